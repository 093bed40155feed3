// Package intersect defines the contract of an intersection observer: the
// primitive the visual viewport proxy wraps and rebuilds.
//
// The package holds types only. It does not compute intersections; concrete
// observers come from the host (the browser's IntersectionObserver in
// internal/browser) or from [github.com/matzehuels/visualobserver/pkg/intersect/recorder]
// in tests and simulations.
package intersect

import (
	"slices"

	"github.com/matzehuels/visualobserver/pkg/geom"
)

// Element is an observed target. Implementations use elements as map keys,
// so an Element must be comparable; pointer types are the norm.
type Element any

// Entry describes one intersection change of a target.
type Entry struct {
	// Time is the host timestamp in milliseconds.
	Time               float64    `json:"time"`
	Target             Element    `json:"-"`
	BoundingClientRect geom.Rect  `json:"boundingClientRect"`
	IntersectionRect   geom.Rect  `json:"intersectionRect"`
	RootBounds         *geom.Rect `json:"rootBounds,omitempty"`
	IntersectionRatio  float64    `json:"intersectionRatio"`
	IsIntersecting     bool       `json:"isIntersecting"`
}

// Observer is the public shape of an intersection observer.
type Observer interface {
	Observe(target Element)
	Unobserve(target Element)
	Disconnect()
	TakeRecords() []Entry

	// Root is nil when the observer uses the implicit (viewport) root.
	Root() Element
	RootMargin() string
	Thresholds() []float64
}

// Callback receives batches of entries together with the observer that
// produced them. Observers never invoke it synchronously from Observe,
// Unobserve, Disconnect or TakeRecords.
type Callback func(entries []Entry, observer Observer)

// Options configures an observer.
type Options struct {
	// Root is the element used as viewport; nil means the implicit root.
	Root Element
	// RootMargin grows (positive) or shrinks (negative) the root
	// rectangle. Empty means "0px 0px 0px 0px".
	RootMargin string
	// Thresholds lists intersection ratios that trigger notifications.
	Thresholds []float64
}

// Clone returns a copy of o that shares no slices with it.
func (o Options) Clone() Options {
	o.Thresholds = slices.Clone(o.Thresholds)
	return o
}

// Factory constructs an observer. Errors (for instance an invalid root
// margin) are returned unchanged to the caller of the proxy.
type Factory func(cb Callback, opts Options) (Observer, error)
