//go:build js && wasm

package browser

import (
	"slices"
	"sync"
	"syscall/js"
)

// Element is a DOM node handed to the observer. js.Value is not comparable,
// so the observer keys its target set by *Element instead.
type Element struct {
	Value js.Value

	refs int
}

// Registry interns observed DOM nodes as *Element values. Nodes are
// reference counted: every Acquire must be paired with a Release, and a
// node is dropped once nothing holds it, so it can be garbage collected.
type Registry struct {
	mu       sync.Mutex
	elements []*Element
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Acquire returns the Element for v, creating it on first use, and takes a
// reference on it.
func (r *Registry) Acquire(v js.Value) *Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	el := r.lookupLocked(v)
	if el == nil {
		el = &Element{Value: v}
		r.elements = append(r.elements, el)
	}
	el.refs++
	return el
}

// Release drops a reference taken by Acquire. It reports whether el was
// removed from the registry.
func (r *Registry) Release(el *Element) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el.refs == 0 {
		return false
	}
	el.refs--
	if el.refs > 0 {
		return false
	}
	r.elements = slices.DeleteFunc(r.elements, func(e *Element) bool { return e == el })
	return true
}

// Lookup returns the interned Element for v, or nil.
func (r *Registry) Lookup(v js.Value) *Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(v)
}

// Resolve returns the interned Element for v, or a detached Element when v
// is not held by anyone. Detached elements are never interned.
func (r *Registry) Resolve(v js.Value) *Element {
	if el := r.Lookup(v); el != nil {
		return el
	}
	return &Element{Value: v}
}

// Len returns the number of interned nodes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.elements)
}

func (r *Registry) lookupLocked(v js.Value) *Element {
	for _, el := range r.elements {
		if el.Value.Equal(v) {
			return el
		}
	}
	return nil
}
