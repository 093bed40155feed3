package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeIdleHost struct {
	calls   int
	timeout time.Duration
	fns     []func()
}

func (f *fakeIdleHost) RequestIdleCallback(fn func(), timeout time.Duration) func() {
	f.calls++
	f.timeout = timeout
	f.fns = append(f.fns, fn)
	return func() {}
}

func TestForHost(t *testing.T) {
	if _, ok := ForHost(&fakeIdleHost{}).(*Idle); !ok {
		t.Error("ForHost(idle host) should return *Idle")
	}
	if _, ok := ForHost(struct{}{}).(*Delay); !ok {
		t.Error("ForHost(plain host) should return *Delay")
	}
}

func TestIdleForwardsTimeout(t *testing.T) {
	host := &fakeIdleHost{}
	s := NewIdle(host, 0)

	ran := false
	s.Schedule(func() { ran = true })

	if host.calls != 1 {
		t.Fatalf("RequestIdleCallback calls = %d, want 1", host.calls)
	}
	if host.timeout != DefaultIdleTimeout {
		t.Errorf("timeout = %v, want %v", host.timeout, DefaultIdleTimeout)
	}
	host.fns[0]()
	if !ran {
		t.Error("scheduled function did not run")
	}
}

func TestDelayRuns(t *testing.T) {
	s := NewDelay(time.Millisecond)
	done := make(chan struct{})
	s.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Delay did not run the task")
	}
}

func TestDelayCancel(t *testing.T) {
	s := NewDelay(20 * time.Millisecond)
	var ran atomic.Bool
	cancel := s.Schedule(func() { ran.Store(true) })
	cancel()

	time.Sleep(60 * time.Millisecond)
	if ran.Load() {
		t.Error("canceled task ran")
	}
}

func TestManual(t *testing.T) {
	s := NewManual()
	var order []int

	s.Schedule(func() { order = append(order, 1) })
	cancel := s.Schedule(func() { order = append(order, 2) })
	s.Schedule(func() {
		order = append(order, 3)
		s.Schedule(func() { order = append(order, 4) })
	})
	cancel()

	if got := s.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}
	if ran := s.RunPending(); ran != 2 {
		t.Errorf("RunPending() = %d, want 2", ran)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Errorf("order = %v, want [1 3]", order)
	}

	// Work scheduled during a run waits for the next call.
	if ran := s.RunPending(); ran != 1 {
		t.Errorf("second RunPending() = %d, want 1", ran)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
}
