package schedule

import (
	"sync"
	"time"
)

const (
	// DefaultIdleTimeout is the timeout hint passed to idle facilities.
	DefaultIdleTimeout = 250 * time.Millisecond

	// FallbackDelay is how long Delay waits when no idle facility exists.
	FallbackDelay = 50 * time.Millisecond
)

// Scheduler runs fn at some later point. The returned cancel function
// prevents fn from running if it has not started yet; calling it after fn
// ran is a no-op.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// IdleRequester is implemented by hosts with an idle-callback facility.
type IdleRequester interface {
	RequestIdleCallback(fn func(), timeout time.Duration) (cancel func())
}

// ForHost returns an Idle scheduler when host implements IdleRequester and
// a Delay scheduler otherwise.
func ForHost(host any) Scheduler {
	if r, ok := host.(IdleRequester); ok {
		return NewIdle(r, DefaultIdleTimeout)
	}
	return NewDelay(FallbackDelay)
}

// =============================================================================
// Idle
// =============================================================================

// Idle schedules work on the host's idle facility.
type Idle struct {
	host    IdleRequester
	timeout time.Duration
}

// NewIdle creates an idle scheduler. A zero timeout uses DefaultIdleTimeout.
func NewIdle(host IdleRequester, timeout time.Duration) *Idle {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Idle{host: host, timeout: timeout}
}

// Schedule implements Scheduler.
func (s *Idle) Schedule(fn func()) func() {
	return s.host.RequestIdleCallback(fn, s.timeout)
}

// =============================================================================
// Delay
// =============================================================================

// Delay runs work on a timer goroutine after a fixed delay.
type Delay struct {
	delay time.Duration
}

// NewDelay creates a fixed-delay scheduler. A non-positive delay uses
// FallbackDelay.
func NewDelay(delay time.Duration) *Delay {
	if delay <= 0 {
		delay = FallbackDelay
	}
	return &Delay{delay: delay}
}

// Schedule implements Scheduler.
func (s *Delay) Schedule(fn func()) func() {
	t := time.AfterFunc(s.delay, fn)
	return func() { t.Stop() }
}

// =============================================================================
// Manual
// =============================================================================

// Manual queues work until RunPending is called. It is safe for concurrent
// use.
type Manual struct {
	mu    sync.Mutex
	queue []*task
}

type task struct {
	fn       func()
	canceled bool
}

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule implements Scheduler.
func (s *Manual) Schedule(fn func()) func() {
	t := &task{fn: fn}
	s.mu.Lock()
	s.queue = append(s.queue, t)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		t.canceled = true
		s.mu.Unlock()
	}
}

// Pending returns the number of queued tasks that have not been canceled.
func (s *Manual) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.queue {
		if !t.canceled {
			n++
		}
	}
	return n
}

// RunPending runs every task queued before the call, in order, and returns
// how many ran. Tasks scheduled while running stay queued for the next call.
func (s *Manual) RunPending() int {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	ran := 0
	for _, t := range batch {
		s.mu.Lock()
		canceled := t.canceled
		t.canceled = true
		s.mu.Unlock()
		if canceled {
			continue
		}
		t.fn()
		ran++
	}
	return ran
}
