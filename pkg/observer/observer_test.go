package observer

import (
	stderrors "errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/intersect"
	"github.com/matzehuels/visualobserver/pkg/intersect/recorder"
	"github.com/matzehuels/visualobserver/pkg/observability"
	"github.com/matzehuels/visualobserver/pkg/schedule"
	"github.com/matzehuels/visualobserver/pkg/viewport"
	"github.com/matzehuels/visualobserver/pkg/viewport/sim"
)

type element struct{ id string }

type harness struct {
	host  *sim.Host
	rec   *recorder.Recorder
	sched *schedule.Manual

	mu      sync.Mutex
	batches [][]intersect.Entry
	selves  []intersect.Observer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	host, err := sim.New(1000, 800)
	if err != nil {
		t.Fatalf("sim.New() error: %v", err)
	}
	return &harness{host: host, rec: recorder.New(), sched: schedule.NewManual()}
}

func (h *harness) callback(entries []intersect.Entry, self intersect.Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, entries)
	h.selves = append(h.selves, self)
}

func (h *harness) config() Config {
	return Config{
		Host:      h.host,
		Factory:   h.rec.Factory,
		Scheduler: h.sched,
		Logger:    log.New(io.Discard),
	}
}

func (h *harness) newObserver(t *testing.T, opts intersect.Options) *Observer {
	t.Helper()
	o, err := New(h.callback, opts, h.config())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return o
}

func TestNewTranslatesMargin(t *testing.T) {
	h := newHarness(t)
	if err := h.host.Zoom(2); err != nil {
		t.Fatalf("Zoom() error: %v", err)
	}

	o := h.newObserver(t, intersect.Options{RootMargin: "0px"})

	want := "-200px -250px -200px -250px"
	if got := o.RootMargin(); got != want {
		t.Errorf("RootMargin() = %q, want %q", got, want)
	}
	if got := o.Margins().String(); got != "0px 0px 0px 0px" {
		t.Errorf("Margins() = %q, want visual request %q", got, "0px 0px 0px 0px")
	}
	if o.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", o.Generation())
	}
	if o.State() != Active {
		t.Errorf("State() = %v, want %v", o.State(), Active)
	}
}

func TestNewDefaultMargin(t *testing.T) {
	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{})

	if got := o.RootMargin(); got != "0px 0px 0px 0px" {
		t.Errorf("RootMargin() = %q, want %q", got, "0px 0px 0px 0px")
	}
}

func TestNewRejectsInvalidMargin(t *testing.T) {
	for _, spec := range []string{"10em", "10", "1px 2px 3px 4px 5px"} {
		t.Run(spec, func(t *testing.T) {
			h := newHarness(t)
			_, err := New(h.callback, intersect.Options{RootMargin: spec}, h.config())
			if !errors.IsFormat(err) {
				t.Fatalf("New(%q) error = %v, want INVALID_MARGIN", spec, err)
			}
			if len(h.rec.Instances()) != 0 {
				t.Errorf("instances built = %d, want 0", len(h.rec.Instances()))
			}
			if h.host.Listeners(viewport.Scroll) != 0 {
				t.Error("failed construction left a scroll listener behind")
			}
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	h := newHarness(t)
	if _, err := New(nil, intersect.Options{}, h.config()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(nil callback) error = %v, want INVALID_INPUT", err)
	}
	if _, err := New(h.callback, intersect.Options{}, Config{Host: h.host}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New(no factory) error = %v, want INVALID_INPUT", err)
	}
}

func TestObserveIsIdempotent(t *testing.T) {
	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{})
	a := &element{"a"}

	o.Observe(a)
	o.Observe(a)

	if got := len(o.Targets()); got != 1 {
		t.Errorf("Targets() = %d, want 1", got)
	}
	if got := len(h.rec.Latest().Targets()); got != 1 {
		t.Errorf("live targets = %d, want 1", got)
	}
}

func TestResyncEndToEnd(t *testing.T) {
	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{RootMargin: "0px", Thresholds: []float64{0, 1}})
	target := &element{"hero"}
	o.Observe(target)

	first := h.rec.Latest()
	first.Enqueue(intersect.Entry{Target: target, IsIntersecting: true, IntersectionRatio: 1})

	// Zooming emits resize and scroll; both fold into one resync.
	if err := h.host.Zoom(2); err != nil {
		t.Fatalf("Zoom() error: %v", err)
	}
	if got := h.sched.Pending(); got != 1 {
		t.Fatalf("pending resyncs = %d, want 1", got)
	}
	if len(h.batches) != 0 {
		t.Fatal("callback ran before the deferred resync")
	}

	h.sched.RunPending()

	// (a) buffered records flushed exactly once, with the proxy as observer.
	if len(h.batches) != 1 || len(h.batches[0]) != 1 || h.batches[0][0].Target != target {
		t.Fatalf("flushed batches = %v, want one batch with the buffered entry", h.batches)
	}
	if h.selves[0] != intersect.Observer(o) {
		t.Error("callback received the underlying observer instead of the proxy")
	}
	if first.Pending() != 0 {
		t.Errorf("old instance still buffers %d entries", first.Pending())
	}

	// (b) a replacement built with the recomputed margin.
	second := h.rec.Latest()
	if second == first {
		t.Fatal("no replacement observer was built")
	}
	if !first.Disconnected() {
		t.Error("old instance was not disconnected")
	}
	want := "-200px -250px -200px -250px"
	if got := second.RootMargin(); got != want {
		t.Errorf("replacement RootMargin() = %q, want %q", got, want)
	}
	if got := o.RootMargin(); got != want {
		t.Errorf("proxy RootMargin() = %q, want %q", got, want)
	}
	if got := second.Thresholds(); len(got) != 2 || got[1] != 1 {
		t.Errorf("replacement Thresholds() = %v, want [0 1]", got)
	}

	// (c) the target is registered exactly once on the replacement.
	if got := second.ObserveCount(target); got != 1 {
		t.Errorf("ObserveCount(target) = %d, want 1", got)
	}
	if got := second.Targets(); len(got) != 1 {
		t.Errorf("replacement targets = %v, want only the observed target", got)
	}
	if len(h.rec.Live()) != 1 {
		t.Errorf("live instances = %d, want 1", len(h.rec.Live()))
	}
}

func TestResyncWithoutRecordsStillCallsBack(t *testing.T) {
	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{})
	o.Observe(&element{"a"})

	h.host.Emit(viewport.Scroll)
	h.sched.RunPending()

	if o.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", o.Generation())
	}
	if len(h.batches) != 1 {
		t.Fatalf("callback invoked %d times, want 1 for an empty flush", len(h.batches))
	}
	if h.batches[0] == nil || len(h.batches[0]) != 0 {
		t.Errorf("flushed batch = %#v, want an empty non-nil slice", h.batches[0])
	}
	if h.selves[0] != intersect.Observer(o) {
		t.Error("callback received the underlying observer instead of the proxy")
	}
}

func TestUnobserveThenResync(t *testing.T) {
	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{})
	a, b := &element{"a"}, &element{"b"}
	o.Observe(a)
	o.Observe(b)
	o.Unobserve(a)

	h.host.Emit(viewport.Resize)
	h.sched.RunPending()

	latest := h.rec.Latest()
	if latest.ObserveCount(a) != 0 {
		t.Errorf("unobserved target re-registered %d times", latest.ObserveCount(a))
	}
	if latest.ObserveCount(b) != 1 {
		t.Errorf("ObserveCount(b) = %d, want 1", latest.ObserveCount(b))
	}
}

func TestDisconnect(t *testing.T) {
	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{})
	a := &element{"a"}
	o.Observe(a)
	live := h.rec.Latest()

	o.Disconnect()

	if o.State() != Disconnected {
		t.Errorf("State() = %v, want %v", o.State(), Disconnected)
	}
	if len(o.Targets()) != 0 {
		t.Errorf("Targets() = %d, want 0", len(o.Targets()))
	}
	if !live.Disconnected() {
		t.Error("live instance not disconnected")
	}
	for _, kind := range viewport.Kinds {
		if n := h.host.Listeners(kind); n != 0 {
			t.Errorf("%s listeners = %d, want 0", kind, n)
		}
	}

	// Further calls are no-ops.
	o.Observe(&element{"b"})
	o.Unobserve(a)
	o.Disconnect()
	if len(o.Targets()) != 0 {
		t.Error("Observe after Disconnect changed the target set")
	}
	if live.ObserveCount(a) != 1 || len(live.Targets()) != 0 {
		t.Error("Observe after Disconnect reached the underlying observer")
	}
	if o.TakeRecords() != nil {
		t.Error("TakeRecords() after Disconnect should be nil")
	}
	if err := o.Resync(); err != nil {
		t.Errorf("Resync() after Disconnect error: %v", err)
	}
	if len(h.rec.Instances()) != 1 {
		t.Errorf("instances = %d, want 1", len(h.rec.Instances()))
	}
}

func TestDisconnectCancelsPendingResync(t *testing.T) {
	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{})

	h.host.Emit(viewport.Scroll)
	o.Disconnect()

	if ran := h.sched.RunPending(); ran != 0 {
		t.Errorf("RunPending() = %d, want 0 after cancel", ran)
	}
	if len(h.rec.Instances()) != 1 {
		t.Errorf("instances = %d, want 1", len(h.rec.Instances()))
	}
}

// stubbornScheduler records cancellation but still lets every task run,
// like a host whose idle callback already fired.
type stubbornScheduler struct {
	fns      []func()
	canceled []bool
}

func (s *stubbornScheduler) Schedule(fn func()) func() {
	i := len(s.fns)
	s.fns = append(s.fns, fn)
	s.canceled = append(s.canceled, false)
	return func() { s.canceled[i] = true }
}

func (h *harness) newStubborn(t *testing.T) (*Observer, *stubbornScheduler) {
	t.Helper()
	sched := &stubbornScheduler{}
	cfg := h.config()
	cfg.Scheduler = sched
	o, err := New(h.callback, intersect.Options{}, cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return o, sched
}

func TestResyncAfterDisconnectIsNoop(t *testing.T) {
	h := newHarness(t)
	o, sched := h.newStubborn(t)

	h.host.Emit(viewport.Scroll)
	o.Disconnect()
	for _, fn := range sched.fns {
		fn()
	}

	if len(h.rec.Instances()) != 1 {
		t.Errorf("instances = %d, want 1 (resync ran after disconnect)", len(h.rec.Instances()))
	}
}

func TestStaleScheduledResyncKeepsNewerOne(t *testing.T) {
	h := newHarness(t)
	o, sched := h.newStubborn(t)

	h.host.Emit(viewport.Scroll)
	if err := o.Resync(); err != nil {
		t.Fatalf("Resync() error: %v", err)
	}
	if !sched.canceled[0] {
		t.Fatal("Resync() did not cancel the scheduled resync")
	}
	h.host.Emit(viewport.Scroll)
	if len(sched.fns) != 2 {
		t.Fatalf("scheduled tasks = %d, want 2", len(sched.fns))
	}

	// The canceled task fires anyway.
	sched.fns[0]()
	if o.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2 (canceled task rebuilt)", o.Generation())
	}

	// The newer task is still pending: notifications coalesce into it and
	// Disconnect cancels it.
	h.host.Emit(viewport.Resize)
	if len(sched.fns) != 2 {
		t.Errorf("scheduled tasks = %d, want 2 (notification not coalesced)", len(sched.fns))
	}
	o.Disconnect()
	if !sched.canceled[1] {
		t.Error("Disconnect() did not cancel the pending resync")
	}

	sched.fns[1]()
	if o.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2 after disconnect", o.Generation())
	}
}

func TestFlushPrecedesReplacementDeliveries(t *testing.T) {
	h := newHarness(t)
	oldTarget, newTarget := &element{"old"}, &element{"new"}
	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	cb := func(entries []intersect.Entry, _ intersect.Observer) {
		id := entries[0].Target.(*element).id
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
		if id != "old" {
			return
		}
		// While the flush is running, the replacement tries to deliver.
		next := h.rec.Latest()
		next.Enqueue(intersect.Entry{Target: newTarget})
		wg.Add(1)
		go func() {
			defer wg.Done()
			next.Deliver()
		}()
		time.Sleep(20 * time.Millisecond)
	}

	o, err := New(cb, intersect.Options{}, h.config())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	o.Observe(oldTarget)
	o.Observe(newTarget)
	h.rec.Latest().Enqueue(intersect.Entry{Target: oldTarget})

	h.host.Emit(viewport.Scroll)
	h.sched.RunPending()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "old" || order[1] != "new" {
		t.Errorf("delivery order = %v, want [old new]", order)
	}
}

func TestFactoryErrorDuringResyncKeepsLiveObserver(t *testing.T) {
	h := newHarness(t)
	calls := 0
	boom := stderrors.New("boom")
	cfg := h.config()
	cfg.Factory = func(cb intersect.Callback, opts intersect.Options) (intersect.Observer, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return h.rec.Factory(cb, opts)
	}
	o, err := New(h.callback, intersect.Options{}, cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	live := h.rec.Latest()
	o.Observe(&element{"a"})

	if err := o.Resync(); !stderrors.Is(err, boom) {
		t.Errorf("Resync() error = %v, want %v unchanged", err, boom)
	}
	if live.Disconnected() {
		t.Error("live observer disconnected after a failed rebuild")
	}
	if o.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", o.Generation())
	}
}

func TestExplicitRootPassesMarginThrough(t *testing.T) {
	h := newHarness(t)
	if err := h.host.Zoom(4); err != nil {
		t.Fatalf("Zoom() error: %v", err)
	}
	root := &element{"scroller"}
	o := h.newObserver(t, intersect.Options{Root: root, RootMargin: "5px"})

	if got := o.RootMargin(); got != "5px 5px 5px 5px" {
		t.Errorf("RootMargin() = %q, want untranslated %q", got, "5px 5px 5px 5px")
	}
	if o.Root() != intersect.Element(root) {
		t.Error("Root() does not pass through")
	}
	if h.host.Listeners(viewport.Scroll) != 0 {
		t.Error("explicit-root observer subscribed to viewport notifications")
	}

	// The primitive, not the proxy, rejects an invalid margin here.
	_, err := New(h.callback, intersect.Options{Root: root, RootMargin: "5em"}, h.config())
	if !errors.IsFormat(err) {
		t.Errorf("New() error = %v, want the factory's INVALID_MARGIN", err)
	}
}

func TestDefaultSchedulerRunsResync(t *testing.T) {
	h := newHarness(t)
	cfg := h.config()
	cfg.Scheduler = nil
	o, err := New(h.callback, intersect.Options{}, cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer o.Disconnect()

	h.host.Emit(viewport.Resize)

	deadline := time.Now().Add(2 * time.Second)
	for o.Generation() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("fallback scheduler never ran the resync")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type countingHooks struct {
	observability.NoopObserverHooks
	mu          sync.Mutex
	changes     int
	coalesced   int
	rebuilds    int
	resyncs     int
	disconnects int
}

func (c *countingHooks) OnViewportChange(_, _ string, coalesced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes++
	if coalesced {
		c.coalesced++
	}
}

func (c *countingHooks) OnRebuild(string, int, string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuilds++
}

func (c *countingHooks) OnResync(string, int, int, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resyncs++
}

func (c *countingHooks) OnDisconnect(string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
}

func TestHooks(t *testing.T) {
	defer observability.Reset()
	hooks := &countingHooks{}
	observability.SetObserverHooks(hooks)

	h := newHarness(t)
	o := h.newObserver(t, intersect.Options{})
	h.host.Emit(viewport.Resize)
	h.host.Emit(viewport.Scroll)
	h.host.Emit(viewport.Scroll)
	h.sched.RunPending()
	o.Disconnect()

	if hooks.changes != 3 || hooks.coalesced != 2 {
		t.Errorf("changes = %d (coalesced %d), want 3 (2)", hooks.changes, hooks.coalesced)
	}
	if hooks.rebuilds != 2 {
		t.Errorf("rebuilds = %d, want 2", hooks.rebuilds)
	}
	if hooks.resyncs != 1 {
		t.Errorf("resyncs = %d, want 1", hooks.resyncs)
	}
	if hooks.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", hooks.disconnects)
	}
}
