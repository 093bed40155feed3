package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualobserver/pkg/observability"
)

// logHooks traces observer and HTTP events at debug level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.ObserverHooks = (*logHooks)(nil)
	_ observability.HTTPHooks     = (*logHooks)(nil)
)

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("hooks")}
}

func (h *logHooks) OnViewportChange(id, kind string, coalesced bool) {
	h.logger.Debug("viewport", "observer", short(id), "event", kind, "coalesced", coalesced)
}

func (h *logHooks) OnRebuild(id string, generation int, rootMargin string, targets int) {
	h.logger.Debug("rebuild", "observer", short(id), "generation", generation, "rootMargin", rootMargin, "targets", targets)
}

func (h *logHooks) OnResync(id string, generation, flushed int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Warn("resync failed", "observer", short(id), "generation", generation, "err", err)
		return
	}
	h.logger.Debug("resync", "observer", short(id), "generation", generation, "flushed", flushed, "duration", duration)
}

func (h *logHooks) OnDisconnect(id string, generation int) {
	h.logger.Debug("disconnect", "observer", short(id), "generation", generation)
}

func (h *logHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, duration time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", duration)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
