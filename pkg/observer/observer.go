package observer

import (
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/intersect"
	"github.com/matzehuels/visualobserver/pkg/margin"
	"github.com/matzehuels/visualobserver/pkg/observability"
	"github.com/matzehuels/visualobserver/pkg/schedule"
	"github.com/matzehuels/visualobserver/pkg/viewport"
)

// DefaultRootMargin is used when Options.RootMargin is empty.
const DefaultRootMargin = "0"

// State is the lifecycle state of an Observer.
type State int

const (
	Active State = iota
	Disconnected
)

func (s State) String() string {
	if s == Disconnected {
		return "disconnected"
	}
	return "active"
}

// Config wires an Observer to its host.
type Config struct {
	// Host supplies geometry and viewport notifications. Required.
	Host viewport.Host
	// Factory builds the underlying intersection observers. Required.
	Factory intersect.Factory
	// Scheduler defers resyncs. Defaults to schedule.ForHost(Host).
	Scheduler schedule.Scheduler
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Observer is an intersection observer anchored to the visual viewport.
// It is safe for concurrent use.
type Observer struct {
	id        string
	callback  intersect.Callback
	options   intersect.Options
	margins   margin.Margins
	translate bool

	host      viewport.Host
	factory   intersect.Factory
	scheduler schedule.Scheduler
	logger    *log.Logger

	// deliverMu serializes callback invocations; it is always acquired
	// before mu.
	deliverMu sync.Mutex

	mu            sync.Mutex
	state         State
	live          intersect.Observer
	generation    int
	targets       []intersect.Element
	targetSet     map[intersect.Element]struct{}
	// task identifies the scheduled resync; zero when none is pending.
	task          uint64
	tasks         uint64
	cancelPending func()
	unsubscribe   []func()
}

var _ intersect.Observer = (*Observer)(nil)

// New creates an Active observer. opts.RootMargin is interpreted relative
// to the visual viewport and parsed once; an invalid margin fails with an
// INVALID_MARGIN error. Errors from cfg.Factory are returned unchanged.
func New(cb intersect.Callback, opts intersect.Options, cfg Config) (*Observer, error) {
	if cb == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "callback is required")
	}
	if cfg.Host == nil || cfg.Factory == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "host and factory are required")
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = schedule.ForHost(cfg.Host)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	o := &Observer{
		id:        uuid.NewString(),
		callback:  cb,
		options:   opts.Clone(),
		translate: opts.Root == nil,
		host:      cfg.Host,
		factory:   cfg.Factory,
		scheduler: cfg.Scheduler,
		targetSet: make(map[intersect.Element]struct{}),
	}
	o.logger = cfg.Logger.With("observer", o.id[:8])

	if o.translate {
		spec := opts.RootMargin
		if spec == "" {
			spec = DefaultRootMargin
		}
		m, err := margin.Parse(spec)
		if err != nil {
			return nil, err
		}
		o.margins = m
	}

	live, err := o.build()
	if err != nil {
		return nil, err
	}
	o.live = live

	if o.translate {
		for _, kind := range viewport.Kinds {
			o.unsubscribe = append(o.unsubscribe, o.host.Subscribe(kind, func() { o.notify(kind) }))
		}
	}
	return o, nil
}

// ID returns a random identifier used in logs and hooks.
func (o *Observer) ID() string { return o.id }

// Margins returns the margin requested by the caller, relative to the
// visual viewport. It is the zero value for explicit-root observers.
func (o *Observer) Margins() margin.Margins { return o.margins }

// State returns the lifecycle state.
func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Generation returns how many underlying observers have been built.
func (o *Observer) Generation() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Targets returns the observed targets in registration order.
func (o *Observer) Targets() []intersect.Element {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.targets)
}

// Observe adds target to the observed set and registers it on the live
// observer. Observing a target twice has no additional effect.
func (o *Observer) Observe(target intersect.Element) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Active {
		o.logger.Debug("observe after disconnect ignored")
		return
	}
	if _, ok := o.targetSet[target]; !ok {
		o.targetSet[target] = struct{}{}
		o.targets = append(o.targets, target)
	}
	o.live.Observe(target)
}

// Unobserve removes target from the observed set and the live observer.
func (o *Observer) Unobserve(target intersect.Element) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Active {
		o.logger.Debug("unobserve after disconnect ignored")
		return
	}
	if _, ok := o.targetSet[target]; ok {
		delete(o.targetSet, target)
		o.targets = slices.DeleteFunc(o.targets, func(e intersect.Element) bool { return e == target })
	}
	o.live.Unobserve(target)
}

// TakeRecords returns the entries buffered by the live observer. It
// returns nil once disconnected.
func (o *Observer) TakeRecords() []intersect.Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Active {
		return nil
	}
	return o.live.TakeRecords()
}

// Disconnect stops observing all targets and releases the viewport
// subscriptions. The Observer cannot be reused afterwards.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	if o.state == Disconnected {
		o.mu.Unlock()
		return
	}
	o.state = Disconnected
	o.targets = nil
	clear(o.targetSet)
	o.live.Disconnect()
	for _, unsubscribe := range o.unsubscribe {
		unsubscribe()
	}
	o.unsubscribe = nil
	o.cancelPendingLocked()
	generation := o.generation
	o.mu.Unlock()

	o.logger.Debug("disconnected", "generation", generation)
	observability.Observer().OnDisconnect(o.id, generation)
}

// Root implements intersect.Observer.
func (o *Observer) Root() intersect.Element {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.live.Root()
}

// RootMargin returns the margin of the live observer, i.e. the most
// recently translated layout-space margin.
func (o *Observer) RootMargin() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.live.RootMargin()
}

// Thresholds implements intersect.Observer.
func (o *Observer) Thresholds() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.live.Thresholds()
}

// Resync rebuilds the underlying observer immediately, canceling any
// scheduled resync. It is a no-op once disconnected.
func (o *Observer) Resync() error {
	o.mu.Lock()
	o.cancelPendingLocked()
	o.mu.Unlock()
	return o.resync()
}

func (o *Observer) cancelPendingLocked() {
	if o.cancelPending != nil {
		o.cancelPending()
		o.cancelPending = nil
	}
	o.task = 0
}

// notify handles a viewport notification.
func (o *Observer) notify(kind viewport.EventKind) {
	o.mu.Lock()
	if o.state != Active {
		o.mu.Unlock()
		return
	}
	coalesced := o.task != 0
	if !coalesced {
		o.tasks++
		task := o.tasks
		o.task = task
		o.cancelPending = o.scheduler.Schedule(func() { o.scheduled(task) })
	}
	o.mu.Unlock()

	o.logger.Debug("viewport changed", "event", kind, "coalesced", coalesced)
	observability.Observer().OnViewportChange(o.id, string(kind), coalesced)
}

// scheduled runs the resync identified by task. Tasks that were canceled
// or superseded leave the current one untouched.
func (o *Observer) scheduled(task uint64) {
	o.mu.Lock()
	if o.task != task {
		o.mu.Unlock()
		return
	}
	o.task = 0
	o.cancelPending = nil
	o.mu.Unlock()
	if err := o.resync(); err != nil {
		o.logger.Error("resync failed", "err", err)
	}
}

func (o *Observer) resync() error {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	start := time.Now()
	o.mu.Lock()
	if o.state != Active {
		o.mu.Unlock()
		return nil
	}

	next, err := o.build()
	if err != nil {
		generation := o.generation
		o.mu.Unlock()
		observability.Observer().OnResync(o.id, generation, 0, time.Since(start), err)
		return err
	}

	records := o.live.TakeRecords()
	if records == nil {
		records = []intersect.Entry{}
	}
	o.live.Disconnect()
	o.live = next
	for _, target := range o.targets {
		next.Observe(target)
	}
	generation := o.generation
	o.mu.Unlock()

	// The callback runs even for an empty batch.
	o.callback(records, o)

	duration := time.Since(start)
	o.logger.Debug("resynced", "generation", generation, "flushed", len(records), "duration", duration)
	observability.Observer().OnResync(o.id, generation, len(records), duration, nil)
	return nil
}

// build constructs an underlying observer from current geometry. The
// caller holds mu, except during New.
func (o *Observer) build() (intersect.Observer, error) {
	opts := o.options.Clone()
	if o.translate {
		opts.RootMargin = viewport.TransformRootMargin(o.host, o.margins)
	}
	live, err := o.factory(o.deliver, opts)
	if err != nil {
		return nil, err
	}
	o.generation++
	observability.Observer().OnRebuild(o.id, o.generation, opts.RootMargin, len(o.targets))
	o.logger.Debug("built intersection observer", "generation", o.generation, "rootMargin", opts.RootMargin)
	return live, nil
}

// deliver is the callback handed to every underlying observer.
func (o *Observer) deliver(entries []intersect.Entry, _ intersect.Observer) {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()
	o.callback(entries, o)
}
