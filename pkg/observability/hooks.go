// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about observer rebuilds and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetObserverHooks(&myObserverHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Observer().OnViewportChange(id, "scroll", false)
//	// ... rebuild ...
//	observability.Observer().OnResync(id, generation, flushed, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Observer Hooks
// =============================================================================

// ObserverHooks receives events from visual viewport observers. id
// identifies the proxy; generation counts the intersection observers it has
// built, starting at 1.
type ObserverHooks interface {
	// OnViewportChange records a resize or scroll notification. coalesced
	// is true when a resync was already pending.
	OnViewportChange(id, kind string, coalesced bool)

	// OnRebuild records the construction of an intersection observer.
	OnRebuild(id string, generation int, rootMargin string, targets int)

	// OnResync records a completed (or failed) resynchronization.
	OnResync(id string, generation, flushed int, duration time.Duration, err error)

	// OnDisconnect records the terminal disconnect of a proxy.
	OnDisconnect(id string, generation int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopObserverHooks is a no-op implementation of ObserverHooks.
type NoopObserverHooks struct{}

func (NoopObserverHooks) OnViewportChange(string, string, bool)           {}
func (NoopObserverHooks) OnRebuild(string, int, string, int)              {}
func (NoopObserverHooks) OnResync(string, int, int, time.Duration, error) {}
func (NoopObserverHooks) OnDisconnect(string, int)                        {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                       {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	observerHooks ObserverHooks = NoopObserverHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetObserverHooks registers custom observer hooks.
// This should be called once at application startup before any observer is built.
func SetObserverHooks(h ObserverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		observerHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Observer returns the registered observer hooks.
func Observer() ObserverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return observerHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	observerHooks = NoopObserverHooks{}
	httpHooks = NoopHTTPHooks{}
}
