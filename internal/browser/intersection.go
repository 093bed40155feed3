//go:build js && wasm

package browser

import (
	"fmt"
	"sync"
	"syscall/js"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/geom"
	"github.com/matzehuels/visualobserver/pkg/intersect"
)

// Factory returns an intersect.Factory building native
// IntersectionObservers. Targets and roots must be *Element values; entry
// targets are resolved through reg.
func Factory(reg *Registry) intersect.Factory {
	return func(cb intersect.Callback, opts intersect.Options) (intersect.Observer, error) {
		return newNative(reg, cb, opts)
	}
}

// native wraps a browser IntersectionObserver.
type native struct {
	reg      *Registry
	value    js.Value
	callback js.Func
	root     intersect.Element
	once     sync.Once
}

var _ intersect.Observer = (*native)(nil)

func newNative(reg *Registry, cb intersect.Callback, opts intersect.Options) (o *native, err error) {
	ctor := js.Global().Get("IntersectionObserver")
	if ctor.Type() != js.TypeFunction {
		return nil, errors.New(errors.ErrCodeUnsupported, "IntersectionObserver is not available")
	}

	config := map[string]any{}
	if opts.RootMargin != "" {
		config["rootMargin"] = opts.RootMargin
	}
	if len(opts.Thresholds) > 0 {
		thresholds := make([]any, len(opts.Thresholds))
		for i, t := range opts.Thresholds {
			thresholds[i] = t
		}
		config["threshold"] = thresholds
	}
	if opts.Root != nil {
		root, ok := opts.Root.(*Element)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "root must be a *browser.Element, got %T", opts.Root)
		}
		config["root"] = root.Value
	}

	o = &native{reg: reg, root: opts.Root}
	o.callback = js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			cb(o.entries(args[0]), o)
		}
		return nil
	})

	defer func() {
		if r := recover(); r != nil {
			o.callback.Release()
			o = nil
			err = constructorError(r)
		}
	}()
	o.value = ctor.New(o.callback, config)
	return o, nil
}

// constructorError converts a panic raised by the IntersectionObserver
// constructor. Browsers throw a SyntaxError for malformed margins; anything
// else, such as a TypeError for an unsupported root, is not a margin error.
func constructorError(r any) error {
	jsErr, ok := r.(js.Error)
	if !ok {
		return errors.New(errors.ErrCodeInternal, "IntersectionObserver: %v", r)
	}
	name := jsErr.Get("name").String()
	message := jsErr.Get("message").String()
	switch name {
	case "SyntaxError":
		return errors.New(errors.ErrCodeInvalidMargin, "IntersectionObserver: %s", message)
	case "TypeError":
		return errors.New(errors.ErrCodeInvalidInput, "IntersectionObserver: %s", message)
	default:
		return errors.New(errors.ErrCodeInternal, "IntersectionObserver: %s: %s", name, message)
	}
}

func (o *native) element(target intersect.Element) js.Value {
	el, ok := target.(*Element)
	if !ok {
		panic(fmt.Sprintf("browser: target must be a *browser.Element, got %T", target))
	}
	return el.Value
}

// Observe implements intersect.Observer.
func (o *native) Observe(target intersect.Element) {
	o.value.Call("observe", o.element(target))
}

// Unobserve implements intersect.Observer.
func (o *native) Unobserve(target intersect.Element) {
	o.value.Call("unobserve", o.element(target))
}

// Disconnect implements intersect.Observer. Queued entries are dropped and
// the callback is released, so Disconnect must be the last call.
func (o *native) Disconnect() {
	o.once.Do(func() {
		o.value.Call("takeRecords")
		o.value.Call("disconnect")
		o.callback.Release()
	})
}

// TakeRecords implements intersect.Observer.
func (o *native) TakeRecords() []intersect.Entry {
	return o.entries(o.value.Call("takeRecords"))
}

// Root implements intersect.Observer.
func (o *native) Root() intersect.Element { return o.root }

// RootMargin implements intersect.Observer.
func (o *native) RootMargin() string { return o.value.Get("rootMargin").String() }

// Thresholds implements intersect.Observer.
func (o *native) Thresholds() []float64 {
	arr := o.value.Get("thresholds")
	out := make([]float64, arr.Length())
	for i := range out {
		out[i] = arr.Index(i).Float()
	}
	return out
}

func (o *native) entries(arr js.Value) []intersect.Entry {
	n := arr.Length()
	if n == 0 {
		return nil
	}
	out := make([]intersect.Entry, n)
	for i := range out {
		e := arr.Index(i)
		out[i] = intersect.Entry{
			Time:               e.Get("time").Float(),
			Target:             o.reg.Resolve(e.Get("target")),
			BoundingClientRect: domRect(e.Get("boundingClientRect")),
			IntersectionRect:   domRect(e.Get("intersectionRect")),
			IntersectionRatio:  e.Get("intersectionRatio").Float(),
			IsIntersecting:     e.Get("isIntersecting").Bool(),
		}
		if rb := e.Get("rootBounds"); rb.Truthy() {
			r := domRect(rb)
			out[i].RootBounds = &r
		}
	}
	return out
}

func domRect(v js.Value) geom.Rect {
	return geom.FromEdges(
		v.Get("top").Float(),
		v.Get("right").Float(),
		v.Get("bottom").Float(),
		v.Get("left").Float(),
	)
}

// EntryValue converts e back into a plain JS object.
func EntryValue(e intersect.Entry) js.Value {
	obj := map[string]any{
		"time":               e.Time,
		"boundingClientRect": rectValue(e.BoundingClientRect),
		"intersectionRect":   rectValue(e.IntersectionRect),
		"intersectionRatio":  e.IntersectionRatio,
		"isIntersecting":     e.IsIntersecting,
		"rootBounds":         nil,
	}
	if el, ok := e.Target.(*Element); ok {
		obj["target"] = el.Value
	}
	if e.RootBounds != nil {
		obj["rootBounds"] = rectValue(*e.RootBounds)
	}
	return js.ValueOf(obj)
}

// EntriesValue converts entries into a JS array.
func EntriesValue(entries []intersect.Entry) js.Value {
	arr := make([]any, len(entries))
	for i, e := range entries {
		arr[i] = EntryValue(e)
	}
	return js.ValueOf(arr)
}

func rectValue(r geom.Rect) map[string]any {
	return map[string]any{
		"top": r.Top, "right": r.Right, "bottom": r.Bottom, "left": r.Left,
		"x": r.Left, "y": r.Top, "width": r.Width, "height": r.Height,
	}
}
