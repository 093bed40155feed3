package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/visualobserver/pkg/buildinfo"
	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/geom"
	"github.com/matzehuels/visualobserver/pkg/margin"
	"github.com/matzehuels/visualobserver/pkg/observability"
	"github.com/matzehuels/visualobserver/pkg/scenario"
	"github.com/matzehuels/visualobserver/pkg/viewport"
)

// MaxBodyBytes limits request bodies.
const MaxBodyBytes = 1 << 20

// Server serves the HTTP API.
type Server struct {
	router chi.Router
	logger *log.Logger
}

// New creates a server. A nil logger uses log.Default().
func New(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/translate", s.handleTranslate)
		r.Post("/simulate", s.handleSimulate)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, duration)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", status, "duration", duration, "id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Current(),
	})
}

// ParseRequest is the body of POST /v1/parse.
type ParseRequest struct {
	RootMargin string `json:"rootMargin"`
}

// ParseResponse is the reply of POST /v1/parse.
type ParseResponse struct {
	RootMargin string    `json:"rootMargin"`
	Sides      [4]string `json:"sides"`
	Pixels     bool      `json:"pixels"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	m, err := margin.Parse(req.RootMargin)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := ParseResponse{RootMargin: m.String(), Pixels: m.IsPixels()}
	for i, tok := range m {
		resp.Sides[i] = tok.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// TranslateRequest is the body of POST /v1/translate.
type TranslateRequest struct {
	Viewport   viewport.Snapshot `json:"viewport"`
	RootMargin string            `json:"rootMargin"`
}

// TranslateResponse is the reply of POST /v1/translate.
type TranslateResponse struct {
	RootMargin string    `json:"rootMargin"`
	Visual     geom.Rect `json:"visual"`
	Root       geom.Rect `json:"root"`
	Expanded   geom.Rect `json:"expanded"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := validateSnapshot(req.Viewport); err != nil {
		s.writeError(w, err)
		return
	}
	spec := req.RootMargin
	if spec == "" {
		spec = "0"
	}
	m, err := margin.Parse(spec)
	if err != nil {
		s.writeError(w, err)
		return
	}

	visual := viewport.VisualRect(req.Viewport)
	writeJSON(w, http.StatusOK, TranslateResponse{
		RootMargin: viewport.TransformRootMargin(req.Viewport, m),
		Visual:     visual,
		Root:       viewport.RootRect(req.Viewport),
		Expanded:   margin.Expand(visual, m),
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	sc, err := scenario.Parse(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report, err := scenario.Run(r.Context(), sc, s.logger)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func validateSnapshot(snap viewport.Snapshot) error {
	checks := []struct {
		name string
		v    float64
	}{
		{"viewport.layout.width", snap.Layout.Width},
		{"viewport.layout.height", snap.Layout.Height},
		{"viewport.body.width", snap.Body.Width},
		{"viewport.body.height", snap.Body.Height},
		{"viewport.visual.width", snap.Visual.Width},
		{"viewport.visual.height", snap.Visual.Height},
	}
	for _, c := range checks {
		if err := errors.ValidateDimension(c.name, c.v); err != nil {
			return err
		}
	}
	if err := errors.ValidateCoordinate("viewport.visual.offsetLeft", snap.Visual.OffsetLeft); err != nil {
		return err
	}
	return errors.ValidateCoordinate("viewport.visual.offsetTop", snap.Visual.OffsetTop)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidMargin,
		errors.ErrCodeInvalidGeometry, errors.ErrCodeInvalidScenario:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
