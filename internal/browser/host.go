//go:build js && wasm

package browser

import (
	"sync"
	"syscall/js"
	"time"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/schedule"
	"github.com/matzehuels/visualobserver/pkg/viewport"
)

// Host is the current browser window.
type Host struct {
	window   js.Value
	document js.Value
	visual   js.Value
}

var (
	_ viewport.Host          = (*Host)(nil)
	_ schedule.IdleRequester = (*Host)(nil)
)

// NewHost returns the global window. It fails with UNSUPPORTED when the
// browser has no Visual Viewport API.
func NewHost() (*Host, error) {
	window := js.Global()
	visual := window.Get("visualViewport")
	if !visual.Truthy() {
		return nil, errors.New(errors.ErrCodeUnsupported, "window.visualViewport is not available")
	}
	return &Host{
		window:   window,
		document: window.Get("document"),
		visual:   visual,
	}, nil
}

// DocumentElementClientSize implements viewport.Geometry.
func (h *Host) DocumentElementClientSize() viewport.Size {
	return clientSize(h.document.Get("documentElement"))
}

// BodyClientSize implements viewport.Geometry. It is zero before the body
// is parsed.
func (h *Host) BodyClientSize() viewport.Size {
	return clientSize(h.document.Get("body"))
}

// VisualViewport implements viewport.Geometry.
func (h *Host) VisualViewport() viewport.Visual {
	return viewport.Visual{
		OffsetLeft: h.visual.Get("offsetLeft").Float(),
		OffsetTop:  h.visual.Get("offsetTop").Float(),
		Width:      h.visual.Get("width").Float(),
		Height:     h.visual.Get("height").Float(),
		Scale:      h.visual.Get("scale").Float(),
	}
}

func clientSize(el js.Value) viewport.Size {
	if !el.Truthy() {
		return viewport.Size{}
	}
	return viewport.Size{
		Width:  el.Get("clientWidth").Float(),
		Height: el.Get("clientHeight").Float(),
	}
}

// Subscribe implements viewport.Notifier with addEventListener on the
// visual viewport.
func (h *Host) Subscribe(kind viewport.EventKind, fn func()) func() {
	listener := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	h.visual.Call("addEventListener", string(kind), listener)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.visual.Call("removeEventListener", string(kind), listener)
			listener.Release()
		})
	}
}

// RequestIdleCallback implements schedule.IdleRequester. Browsers without
// requestIdleCallback get a setTimeout of schedule.FallbackDelay.
func (h *Host) RequestIdleCallback(fn func(), timeout time.Duration) func() {
	var (
		once     sync.Once
		callback js.Func
	)
	release := func() { once.Do(callback.Release) }
	callback = js.FuncOf(func(js.Value, []js.Value) any {
		release()
		fn()
		return nil
	})

	if h.window.Get("requestIdleCallback").Type() == js.TypeFunction {
		id := h.window.Call("requestIdleCallback", callback, map[string]any{
			"timeout": timeout.Milliseconds(),
		})
		return func() {
			h.window.Call("cancelIdleCallback", id)
			release()
		}
	}

	id := h.window.Call("setTimeout", callback, schedule.FallbackDelay.Milliseconds())
	return func() {
		h.window.Call("clearTimeout", id)
		release()
	}
}
