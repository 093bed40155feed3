// Package viewport describes the host environment the observer proxy reads
// geometry from and listens to.
//
// A [Host] exposes the layout viewport (the document element's client box,
// with the body as fallback) and the visual viewport (the pinch-zoomed,
// panned region the user actually sees), plus "resize" and "scroll"
// notifications for the visual viewport.
//
// [VisualRect] and [RootRect] read a fresh rectangle from the host on
// every call. [TransformRootMargin] combines them with
// [margin.Translate] to produce the root margin an intersection observer
// rooted at the layout viewport needs in order to behave as if it were
// rooted at the visual viewport.
//
// Two hosts ship with the module: the in-memory simulator in
// [github.com/matzehuels/visualobserver/pkg/viewport/sim] and, for js/wasm
// builds, the browser binding in internal/browser.
package viewport
