package recorder

import (
	"testing"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/intersect"
)

type element struct{ id string }

func TestFactoryRecordsOptions(t *testing.T) {
	r := New()
	obs, err := r.Factory(func([]intersect.Entry, intersect.Observer) {}, intersect.Options{RootMargin: "1px 2px"})
	if err != nil {
		t.Fatalf("Factory() error: %v", err)
	}

	if got := obs.RootMargin(); got != "1px 2px 1px 2px" {
		t.Errorf("RootMargin() = %q, want %q", got, "1px 2px 1px 2px")
	}
	if got := obs.Thresholds(); len(got) != 1 || got[0] != 0 {
		t.Errorf("Thresholds() = %v, want [0]", got)
	}
	if r.Latest() != obs {
		t.Error("Latest() does not return the new instance")
	}
	if r.Latest().Generation != 1 {
		t.Errorf("Generation = %d, want 1", r.Latest().Generation)
	}
}

func TestFactoryRejectsBadMargin(t *testing.T) {
	r := New()
	_, err := r.Factory(func([]intersect.Entry, intersect.Observer) {}, intersect.Options{RootMargin: "3em"})
	if !errors.IsFormat(err) {
		t.Errorf("Factory() error = %v, want INVALID_MARGIN", err)
	}
	if len(r.Instances()) != 0 {
		t.Errorf("Instances() = %d, want 0", len(r.Instances()))
	}
}

func TestObserveEnqueueDeliver(t *testing.T) {
	r := New()
	var got []intersect.Entry
	obs, _ := r.Factory(func(entries []intersect.Entry, _ intersect.Observer) {
		got = append(got, entries...)
	}, intersect.Options{})
	inst := obs.(*Instance)

	a, b := &element{"a"}, &element{"b"}
	inst.Observe(a)
	inst.Observe(a)

	if n := inst.Enqueue(intersect.Entry{Target: a}, intersect.Entry{Target: b}); n != 1 {
		t.Errorf("Enqueue() = %d, want 1 (unregistered target dropped)", n)
	}
	if inst.ObserveCount(a) != 2 {
		t.Errorf("ObserveCount(a) = %d, want 2", inst.ObserveCount(a))
	}
	if len(inst.Targets()) != 1 {
		t.Errorf("Targets() = %d, want 1", len(inst.Targets()))
	}

	if n := inst.Deliver(); n != 1 {
		t.Errorf("Deliver() = %d, want 1", n)
	}
	if len(got) != 1 || got[0].Target != a {
		t.Errorf("callback entries = %v, want one entry for a", got)
	}
	if n := inst.Deliver(); n != 0 {
		t.Errorf("second Deliver() = %d, want 0", n)
	}
}

func TestDisconnectKeepsBufferedRecords(t *testing.T) {
	r := New()
	obs, _ := r.Factory(func([]intersect.Entry, intersect.Observer) {}, intersect.Options{})
	inst := obs.(*Instance)
	a := &element{"a"}

	inst.Observe(a)
	inst.Enqueue(intersect.Entry{Target: a, IsIntersecting: true})
	inst.Disconnect()

	if !inst.Disconnected() {
		t.Error("Disconnected() = false, want true")
	}
	if len(inst.Targets()) != 0 {
		t.Errorf("Targets() = %d, want 0", len(inst.Targets()))
	}
	if records := inst.TakeRecords(); len(records) != 1 {
		t.Errorf("TakeRecords() = %d entries, want 1", len(records))
	}
	if len(r.Live()) != 0 {
		t.Errorf("Live() = %d, want 0", len(r.Live()))
	}
}
