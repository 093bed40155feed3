// Package sim provides an in-memory viewport host.
//
// A Host models a browser window: a layout viewport whose size is the
// document element's client box, and a visual viewport that can be panned
// and pinch-zoomed inside it. Every mutation that changes the visual
// viewport emits the same "resize" and "scroll" notifications a browser
// would, synchronously, on the calling goroutine.
//
// The simulator backs the scenario runner, the interactive TUI, the HTTP
// API and the package tests.
package sim

import (
	"math"
	"slices"
	"sync"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/viewport"
)

// MaxScale caps pinch-zoom, mirroring the usual maximum-scale of mobile
// browsers.
const MaxScale = 10

// Host is a simulated browser window. It is safe for concurrent use.
type Host struct {
	mu        sync.Mutex
	layout    viewport.Size
	body      viewport.Size
	quirks    bool
	scale     float64
	offsetX   float64
	offsetY   float64
	nextID    int
	listeners map[viewport.EventKind]map[int]func()
}

var _ viewport.Host = (*Host)(nil)

// New creates a host with the given layout viewport size, unzoomed and
// scrolled to the origin. The body box defaults to the layout size.
func New(width, height float64) (*Host, error) {
	if err := validateSize(width, height); err != nil {
		return nil, err
	}
	return &Host{
		layout:    viewport.Size{Width: width, Height: height},
		body:      viewport.Size{Width: width, Height: height},
		scale:     1,
		listeners: make(map[viewport.EventKind]map[int]func()),
	}, nil
}

func validateSize(width, height float64) error {
	if err := errors.ValidateDimension("width", width); err != nil {
		return err
	}
	return errors.ValidateDimension("height", height)
}

// SetQuirks makes the document element report a zero client box so that
// geometry falls back to the body, like a quirks-mode document.
func (h *Host) SetQuirks(quirks bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quirks = quirks
}

// SetBodySize sets the body element's client box.
func (h *Host) SetBodySize(width, height float64) error {
	if err := validateSize(width, height); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.body = viewport.Size{Width: width, Height: height}
	return nil
}

// DocumentElementClientSize implements viewport.Geometry.
func (h *Host) DocumentElementClientSize() viewport.Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.quirks {
		return viewport.Size{}
	}
	return h.layout
}

// BodyClientSize implements viewport.Geometry.
func (h *Host) BodyClientSize() viewport.Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.body
}

// VisualViewport implements viewport.Geometry.
func (h *Host) VisualViewport() viewport.Visual {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visualLocked()
}

func (h *Host) visualLocked() viewport.Visual {
	return viewport.Visual{
		OffsetLeft: h.offsetX,
		OffsetTop:  h.offsetY,
		Width:      h.layout.Width / h.scale,
		Height:     h.layout.Height / h.scale,
		Scale:      h.scale,
	}
}

// Subscribe implements viewport.Notifier.
func (h *Host) Subscribe(kind viewport.EventKind, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	if h.listeners[kind] == nil {
		h.listeners[kind] = make(map[int]func())
	}
	h.listeners[kind][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[kind], id)
		})
	}
}

// Listeners returns the number of registered listeners for kind.
func (h *Host) Listeners(kind viewport.EventKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[kind])
}

// ScrollTo moves the visual viewport's top-left corner to (x, y), clamped
// so the visual viewport stays inside the layout viewport.
func (h *Host) ScrollTo(x, y float64) error {
	if err := errors.ValidateCoordinate("x", x); err != nil {
		return err
	}
	if err := errors.ValidateCoordinate("y", y); err != nil {
		return err
	}
	h.mu.Lock()
	before := h.visualLocked()
	h.offsetX, h.offsetY = x, y
	h.clampLocked()
	after := h.visualLocked()
	h.mu.Unlock()

	h.emitChanges(before, after)
	return nil
}

// Pan moves the visual viewport by (dx, dy).
func (h *Host) Pan(dx, dy float64) error {
	v := h.VisualViewport()
	return h.ScrollTo(v.OffsetLeft+dx, v.OffsetTop+dy)
}

// Zoom sets the pinch-zoom scale, keeping the centre of the visual
// viewport fixed where possible.
func (h *Host) Zoom(scale float64) error {
	if err := errors.ValidateScale(scale); err != nil {
		return err
	}
	scale = math.Max(1, math.Min(scale, MaxScale))

	h.mu.Lock()
	before := h.visualLocked()
	cx := before.OffsetLeft + before.Width/2
	cy := before.OffsetTop + before.Height/2
	h.scale = scale
	h.offsetX = cx - h.layout.Width/scale/2
	h.offsetY = cy - h.layout.Height/scale/2
	h.clampLocked()
	after := h.visualLocked()
	h.mu.Unlock()

	h.emitChanges(before, after)
	return nil
}

// Resize changes the layout viewport, as rotating a device or resizing a
// window would. The body box follows the layout size.
func (h *Host) Resize(width, height float64) error {
	if err := validateSize(width, height); err != nil {
		return err
	}
	h.mu.Lock()
	before := h.visualLocked()
	h.layout = viewport.Size{Width: width, Height: height}
	h.body = h.layout
	h.clampLocked()
	after := h.visualLocked()
	h.mu.Unlock()

	h.emitChanges(before, after)
	return nil
}

// Emit delivers a notification without changing any geometry.
func (h *Host) Emit(kind viewport.EventKind) {
	for _, fn := range h.snapshot(kind) {
		fn()
	}
}

func (h *Host) clampLocked() {
	maxX := h.layout.Width - h.layout.Width/h.scale
	maxY := h.layout.Height - h.layout.Height/h.scale
	h.offsetX = math.Max(0, math.Min(h.offsetX, maxX))
	h.offsetY = math.Max(0, math.Min(h.offsetY, maxY))
}

func (h *Host) emitChanges(before, after viewport.Visual) {
	if before.Width != after.Width || before.Height != after.Height {
		h.Emit(viewport.Resize)
	}
	if before.OffsetLeft != after.OffsetLeft || before.OffsetTop != after.OffsetTop {
		h.Emit(viewport.Scroll)
	}
}

func (h *Host) snapshot(kind viewport.EventKind) []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]int, 0, len(h.listeners[kind]))
	for id := range h.listeners[kind] {
		ids = append(ids, id)
	}
	// Registration order, like addEventListener.
	slices.Sort(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = h.listeners[kind][id]
	}
	return fns
}
