package viewport

import (
	"github.com/matzehuels/visualobserver/pkg/geom"
	"github.com/matzehuels/visualobserver/pkg/margin"
)

// EventKind names a visual viewport notification.
type EventKind string

const (
	Resize EventKind = "resize"
	Scroll EventKind = "scroll"
)

// Kinds lists every notification the observer subscribes to.
var Kinds = []EventKind{Resize, Scroll}

// Size is a client box size in CSS pixels.
type Size struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// Visual is a snapshot of the visual viewport.
type Visual struct {
	OffsetLeft float64 `json:"offsetLeft" toml:"offset_left"`
	OffsetTop  float64 `json:"offsetTop" toml:"offset_top"`
	Width      float64 `json:"width" toml:"width"`
	Height     float64 `json:"height" toml:"height"`
	Scale      float64 `json:"scale,omitempty" toml:"scale"`
}

// Geometry answers viewport size queries. Implementations must return
// current values on every call.
type Geometry interface {
	// DocumentElementClientSize is the root element's client box. Either
	// dimension may be zero on quirks-mode documents.
	DocumentElementClientSize() Size
	// BodyClientSize is the body element's client box.
	BodyClientSize() Size
	// VisualViewport is the current visual viewport.
	VisualViewport() Visual
}

// Notifier delivers visual viewport change notifications.
type Notifier interface {
	// Subscribe registers fn for kind and returns a function that removes
	// the registration. fn carries no payload: it only signals that the
	// geometry may have changed.
	Subscribe(kind EventKind, fn func()) (unsubscribe func())
}

// Host combines geometry queries and notifications.
type Host interface {
	Geometry
	Notifier
}

// VisualRect returns the visual viewport as a rectangle in layout
// coordinates.
func VisualRect(g Geometry) geom.Rect {
	v := g.VisualViewport()
	return geom.FromOrigin(v.OffsetLeft, v.OffsetTop, v.Width, v.Height)
}

// RootRect returns the layout viewport. Each dimension comes from the
// document element and falls back to the body when it is zero.
func RootRect(g Geometry) geom.Rect {
	html := g.DocumentElementClientSize()
	w, h := html.Width, html.Height
	if w == 0 || h == 0 {
		body := g.BodyClientSize()
		if w == 0 {
			w = body.Width
		}
		if h == 0 {
			h = body.Height
		}
	}
	return geom.FromOrigin(0, 0, w, h)
}

// TransformRootMargin translates m, a margin relative to the visual
// viewport, into a pixel root margin relative to the layout viewport using
// the host's current geometry.
func TransformRootMargin(g Geometry, m margin.Margins) string {
	return margin.TranslateString(VisualRect(g), RootRect(g), m)
}

// Snapshot is a fixed Geometry, for one-shot translations of recorded or
// user-supplied viewport state.
type Snapshot struct {
	Layout Size   `json:"layout" toml:"layout"`
	Body   Size   `json:"body,omitempty" toml:"body"`
	Visual Visual `json:"visual" toml:"visual"`
}

// DocumentElementClientSize implements Geometry.
func (s Snapshot) DocumentElementClientSize() Size { return s.Layout }

// BodyClientSize implements Geometry.
func (s Snapshot) BodyClientSize() Size { return s.Body }

// VisualViewport implements Geometry.
func (s Snapshot) VisualViewport() Visual { return s.Visual }

// Capture records the current geometry of g.
func Capture(g Geometry) Snapshot {
	return Snapshot{
		Layout: g.DocumentElementClientSize(),
		Body:   g.BodyClientSize(),
		Visual: g.VisualViewport(),
	}
}
