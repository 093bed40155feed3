package margin

import "github.com/matzehuels/visualobserver/pkg/geom"

// Expand grows r outward by m. Positive values enlarge the rectangle,
// negative values shrink it.
func Expand(r geom.Rect, m Margins) geom.Rect {
	d := m.Resolve(r)
	return geom.FromEdges(
		r.Top-d[Top],
		r.Right+d[Right],
		r.Bottom+d[Bottom],
		r.Left-d[Left],
	)
}

// Translate returns the pixel margin that, applied to root, yields the
// visual rectangle expanded by m. Positive results still mean "grow
// outward" from root.
func Translate(visual, root geom.Rect, m Margins) Margins {
	ev := Expand(visual, m)
	return Pixels(
		root.Top-ev.Top,
		ev.Right-root.Right,
		ev.Bottom-root.Bottom,
		root.Left-ev.Left,
	)
}

// TranslateString is Translate serialized as a root-margin string.
func TranslateString(visual, root geom.Rect, m Margins) string {
	return Translate(visual, root, m).String()
}
