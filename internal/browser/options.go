//go:build js && wasm

package browser

import (
	"syscall/js"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/intersect"
)

// ParseOptions reads an IntersectionObserverInit-like object.
//
// A root of window.visualViewport selects the visual viewport, which is the
// implicit root of a translating observer, so it leaves Options.Root nil.
// Any other root is passed through as a detached *Element.
func ParseOptions(v js.Value) (intersect.Options, error) {
	var opts intersect.Options
	if !v.Truthy() {
		return opts, nil
	}

	if root := v.Get("root"); root.Truthy() && !IsVisualViewport(root) {
		opts.Root = &Element{Value: root}
	}
	if m := v.Get("rootMargin"); m.Type() == js.TypeString {
		opts.RootMargin = m.String()
	}
	switch t := v.Get("threshold"); t.Type() {
	case js.TypeNumber:
		opts.Thresholds = []float64{t.Float()}
	case js.TypeObject:
		for i := range t.Length() {
			opts.Thresholds = append(opts.Thresholds, t.Index(i).Float())
		}
	}
	if err := errors.ValidateThresholds(opts.Thresholds); err != nil {
		return intersect.Options{}, err
	}
	return opts, nil
}

// IsVisualViewport reports whether v is the window's VisualViewport.
func IsVisualViewport(v js.Value) bool {
	visual := js.Global().Get("visualViewport")
	return visual.Truthy() && v.Equal(visual)
}
