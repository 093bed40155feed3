// Package browser binds the observer to a real browser through syscall/js.
//
// [Host] reads geometry from window.visualViewport and the document, and
// schedules resyncs with requestIdleCallback, falling back to setTimeout.
// [Factory] builds native IntersectionObservers. Observed DOM nodes are
// handed to the observer as [*Element] values from a reference-counted
// [Registry], so the same node always maps to the same comparable Go value
// and is dropped once no observer holds it. [ParseOptions] reads the init
// object; a root of window.visualViewport selects translation.
//
// The package only builds for GOOS=js GOARCH=wasm.
package browser
