package geom

import "fmt"

// Rect is an axis-aligned rectangle in CSS pixels.
type Rect struct {
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
	Left   float64 `json:"left" toml:"left"`
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// FromEdges builds a Rect from its four edges and derives Width and Height.
func FromEdges(top, right, bottom, left float64) Rect {
	return Rect{
		Top:    top,
		Right:  right,
		Bottom: bottom,
		Left:   left,
		Width:  right - left,
		Height: bottom - top,
	}
}

// FromOrigin builds a Rect whose top-left corner is (x, y).
func FromOrigin(x, y, width, height float64) Rect {
	return FromEdges(y, x+width, y+height, x)
}

// String returns the rectangle as "x,y wxh".
func (r Rect) String() string {
	return fmt.Sprintf("%g,%g %gx%g", r.Left, r.Top, r.Width, r.Height)
}
