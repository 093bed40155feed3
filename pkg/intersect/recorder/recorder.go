// Package recorder provides an intersection observer that records how it
// is driven instead of computing intersections.
//
// Every observer built through [Recorder.Factory] is kept as an [Instance]
// with a generation ID, the options it was constructed with, the targets
// currently registered and a per-target count of Observe calls. Entries are
// never produced on their own: the driver queues them with
// [Instance.Enqueue] and either delivers them through the callback with
// [Instance.Deliver] or leaves them buffered for TakeRecords.
//
// The scenario runner and the observer tests use it to check that the
// proxy rebuilds with the right margin, re-registers every target exactly
// once and flushes buffered entries before the replacement produces any.
package recorder

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/visualobserver/pkg/intersect"
	"github.com/matzehuels/visualobserver/pkg/margin"
)

// Recorder is an intersect.Factory that remembers every instance it built.
type Recorder struct {
	mu        sync.Mutex
	instances []*Instance
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

// Factory implements intersect.Factory. Like a browser, it rejects root
// margins that do not parse.
func (r *Recorder) Factory(cb intersect.Callback, opts intersect.Options) (intersect.Observer, error) {
	spec := opts.RootMargin
	if spec == "" {
		spec = "0px"
	}
	m, err := margin.Parse(spec)
	if err != nil {
		return nil, err
	}
	opts = opts.Clone()
	if len(opts.Thresholds) == 0 {
		opts.Thresholds = []float64{0}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	inst := &Instance{
		ID:         uuid.New(),
		Generation: len(r.instances) + 1,
		options:    opts,
		margin:     m.String(),
		callback:   cb,
		observed:   make(map[intersect.Element]int),
	}
	r.instances = append(r.instances, inst)
	return inst, nil
}

// Instances returns every instance in construction order.
func (r *Recorder) Instances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.instances)
}

// Latest returns the most recently built instance, or nil.
func (r *Recorder) Latest() *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.instances) == 0 {
		return nil
	}
	return r.instances[len(r.instances)-1]
}

// Live returns the instances that have not been disconnected.
func (r *Recorder) Live() []*Instance {
	var live []*Instance
	for _, inst := range r.Instances() {
		if !inst.Disconnected() {
			live = append(live, inst)
		}
	}
	return live
}

// Instance is one recorded observer.
type Instance struct {
	ID         uuid.UUID
	Generation int

	mu           sync.Mutex
	options      intersect.Options
	margin       string
	callback     intersect.Callback
	targets      []intersect.Element
	observed     map[intersect.Element]int
	pending      []intersect.Entry
	delivered    int
	disconnected bool
}

var _ intersect.Observer = (*Instance)(nil)

// Observe implements intersect.Observer.
func (i *Instance) Observe(target intersect.Element) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.observed[target]++
	if !slices.Contains(i.targets, target) {
		i.targets = append(i.targets, target)
	}
	i.disconnected = false
}

// Unobserve implements intersect.Observer.
func (i *Instance) Unobserve(target intersect.Element) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.targets = slices.DeleteFunc(i.targets, func(e intersect.Element) bool { return e == target })
}

// Disconnect implements intersect.Observer. Buffered entries stay
// available to TakeRecords.
func (i *Instance) Disconnect() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.targets = nil
	i.disconnected = true
}

// TakeRecords implements intersect.Observer.
func (i *Instance) TakeRecords() []intersect.Entry {
	i.mu.Lock()
	defer i.mu.Unlock()
	records := i.pending
	i.pending = nil
	return records
}

// Root implements intersect.Observer.
func (i *Instance) Root() intersect.Element { return i.options.Root }

// RootMargin implements intersect.Observer. The value is normalized to four
// sides, as browsers report it.
func (i *Instance) RootMargin() string { return i.margin }

// Thresholds implements intersect.Observer.
func (i *Instance) Thresholds() []float64 { return slices.Clone(i.options.Thresholds) }

// Options returns the options the instance was constructed with.
func (i *Instance) Options() intersect.Options { return i.options.Clone() }

// Targets returns the registered targets in registration order.
func (i *Instance) Targets() []intersect.Element {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.targets)
}

// ObserveCount returns how many times Observe was called with target.
func (i *Instance) ObserveCount(target intersect.Element) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.observed[target]
}

// Disconnected reports whether Disconnect was called since the last Observe.
func (i *Instance) Disconnected() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disconnected
}

// Enqueue buffers entries as if the host had detected intersection changes.
// Entries for targets that are not registered are dropped, as a real
// observer would never produce them.
func (i *Instance) Enqueue(entries ...intersect.Entry) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := 0
	for _, e := range entries {
		if slices.Contains(i.targets, e.Target) {
			i.pending = append(i.pending, e)
			n++
		}
	}
	return n
}

// Pending returns the number of buffered entries.
func (i *Instance) Pending() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.pending)
}

// Deliver hands buffered entries to the callback, as the host's
// notification task would. It returns the number delivered and does
// nothing when the buffer is empty. Deliver must not be called from inside
// the callback.
func (i *Instance) Deliver() int {
	i.mu.Lock()
	records := i.pending
	i.pending = nil
	i.delivered += len(records)
	cb := i.callback
	i.mu.Unlock()

	if len(records) == 0 {
		return 0
	}
	cb(records, i)
	return len(records)
}

// Delivered returns the total number of entries handed to the callback.
func (i *Instance) Delivered() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.delivered
}
