// Package margin parses root-margin specifications and converts a margin
// expressed against the visual viewport into the equivalent margin against
// the layout viewport.
//
// # Grammar
//
// A specification is one to four whitespace-separated tokens:
//
//	spec  := token (WS+ token){0,3}
//	token := "0" | number "px" | number "%"
//
// Missing sides follow the CSS margin shorthand: right defaults to top,
// bottom defaults to top and left defaults to right. [Parse] always returns
// the four sides in top, right, bottom, left order. Any other unit, a bare
// non-zero number, an empty string or more than four tokens is rejected
// with an INVALID_MARGIN error (see [errors.IsFormat]).
//
// # Percentages
//
// Percent tokens on the right and left sides resolve against the width of
// the rectangle being expanded; top and bottom resolve against its height.
//
// # Translation
//
// [Translate] expands the visual rectangle outward by the requested margin
// and measures, edge by edge, how far the expanded rectangle reaches past
// the layout rectangle. The result is always four pixel tokens and can be
// handed to an intersection observer whose root is the layout viewport.
// The result depends on live geometry and must be recomputed whenever
// either viewport changes.
//
// [errors.IsFormat]: github.com/matzehuels/visualobserver/pkg/errors.IsFormat
package margin
