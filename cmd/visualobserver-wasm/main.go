//go:build js && wasm

// Command visualobserver-wasm exposes VisualIntersectionObserver to
// JavaScript:
//
//	const io = new VisualIntersectionObserver((entries, observer) => {
//	  for (const e of entries) console.log(e.target, e.isIntersecting)
//	}, { root: window.visualViewport, rootMargin: "10% 0px" })
//	io.observe(document.querySelector("#hero"))
//
// A root of window.visualViewport, or no root at all, anchors the margin to
// the visual viewport. Any other root is handed to the native observer
// with the margin untouched.
package main

import (
	"os"
	"slices"
	"syscall/js"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualobserver/internal/browser"
	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/intersect"
	"github.com/matzehuels/visualobserver/pkg/observer"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel, Prefix: "visualobserver"})

	host, err := browser.NewHost()
	if err != nil {
		logger.Error("not installing VisualIntersectionObserver", "err", err)
		return
	}
	reg := browser.NewRegistry()

	create := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 || args[0].Type() != js.TypeFunction {
			return failure("TypeError", "VisualIntersectionObserver: callback must be a function")
		}
		var settings js.Value
		if len(args) > 1 {
			settings = args[1]
		}
		opts, err := browser.ParseOptions(settings)
		if err != nil {
			return failure("TypeError", err.Error())
		}

		var self js.Value
		callback := args[0]
		obs, err := observer.New(func(entries []intersect.Entry, _ intersect.Observer) {
			callback.Invoke(browser.EntriesValue(entries), self)
		}, opts, observer.Config{
			Host:    host,
			Factory: browser.Factory(reg),
			Logger:  logger,
		})
		if err != nil {
			if errors.IsFormat(err) {
				return failure("SyntaxError", err.Error())
			}
			return failure("TypeError", err.Error())
		}
		self = wrap(reg, obs, logger)
		return map[string]any{"value": self}
	})
	js.Global().Set("VisualIntersectionObserver", js.Global().Call("eval", constructorShim).Invoke(create))

	select {}
}

// wrap builds the JS object handed back to callers.
func wrap(reg *browser.Registry, obs *observer.Observer, logger *log.Logger) js.Value {
	self := js.Global().Get("Object").New()
	method := func(name string, fn func(args []js.Value) any) {
		self.Set(name, js.FuncOf(func(_ js.Value, args []js.Value) any { return fn(args) }))
	}
	getter := func(name string, fn func() any) {
		desc := js.Global().Get("Object").New()
		desc.Set("get", js.FuncOf(func(js.Value, []js.Value) any { return fn() }))
		js.Global().Get("Object").Call("defineProperty", self, name, desc)
	}

	// Each observer holds one registry reference per observed node.
	observed := func(v js.Value) *browser.Element {
		el := reg.Lookup(v)
		if el == nil || !slices.Contains(obs.Targets(), intersect.Element(el)) {
			return nil
		}
		return el
	}

	method("observe", func(args []js.Value) any {
		if len(args) == 0 || !args[0].Truthy() || observed(args[0]) != nil {
			return nil
		}
		obs.Observe(reg.Acquire(args[0]))
		return nil
	})
	method("unobserve", func(args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		if el := observed(args[0]); el != nil {
			obs.Unobserve(el)
			reg.Release(el)
		}
		return nil
	})
	method("disconnect", func([]js.Value) any {
		targets := obs.Targets()
		obs.Disconnect()
		for _, t := range targets {
			if el, ok := t.(*browser.Element); ok {
				reg.Release(el)
			}
		}
		logger.Debug("disconnected", "released", len(targets), "interned", reg.Len())
		return nil
	})
	method("takeRecords", func([]js.Value) any {
		return browser.EntriesValue(obs.TakeRecords())
	})

	getter("root", func() any {
		if el, ok := obs.Root().(*browser.Element); ok {
			return el.Value
		}
		return nil
	})
	getter("rootMargin", func() any { return obs.RootMargin() })
	getter("thresholds", func() any {
		out := make([]any, 0)
		for _, t := range obs.Thresholds() {
			out = append(out, t)
		}
		return js.ValueOf(out)
	})
	return self
}

// constructorShim turns create's {value} or {error} result into a return
// value or a thrown exception. Exceptions cannot cross a js.FuncOf
// boundary from Go.
const constructorShim = `(function (create) {
  return function VisualIntersectionObserver(callback, options) {
    const r = create(callback, options);
    if (r.error) throw new globalThis[r.error.name](r.error.message);
    return r.value;
  };
})`

func failure(class, msg string) any {
	return map[string]any{"error": map[string]any{"name": class, "message": msg}}
}
