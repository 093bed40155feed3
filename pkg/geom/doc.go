// Package geom provides the rectangle type shared by the margin transform,
// the viewport host adapters and the observer proxy.
//
// A [Rect] is stored as its four edges plus the derived width and height,
// matching the shape of a DOM client rect. Coordinates are CSS pixels in
// either the layout or the visual coordinate space; the type itself does
// not record which, callers keep track of that.
//
// Rectangles are values. Every operation returns a new Rect and keeps
// Width == Right-Left and Height == Bottom-Top. Top and Left may be
// negative, which happens routinely when a rectangle is expanded outward by
// a margin.
package geom
