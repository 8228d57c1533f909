package assets

import (
	"context"
	"testing"
)

func TestTrackerMonotonicIDs(t *testing.T) {
	tr := NewTracker()
	a := tr.Start(context.Background())
	b := tr.Start(context.Background())
	c := tr.Start(context.Background())

	if a.ID() != 1 || b.ID() != 2 || c.ID() != 3 {
		t.Errorf("ids = %d, %d, %d; want 1, 2, 3", a.ID(), b.ID(), c.ID())
	}
}

func TestTrackerCancelsPredecessor(t *testing.T) {
	tr := NewTracker()
	a := tr.Start(context.Background())

	select {
	case <-a.Context().Done():
		t.Fatal("job A cancelled before a successor started")
	default:
	}

	b := tr.Start(context.Background())

	select {
	case <-a.Context().Done():
	default:
		t.Error("starting job B should cancel job A's context")
	}
	if b.Context().Err() != nil {
		t.Error("job B's context should still be live")
	}
}

func TestTrackerLastJobWins(t *testing.T) {
	tr := NewTracker()
	resolved := make(map[string]string)

	// Job A starts first but finishes after B. Its results must be
	// discarded whole, never merged.
	a := tr.Start(context.Background())
	b := tr.Start(context.Background())

	if ok := b.Apply(func() { resolved["key"] = "fresh" }); !ok {
		t.Fatal("current job should apply")
	}
	if ok := a.Apply(func() { resolved["key"] = "stale" }); ok {
		t.Fatal("superseded job must not apply")
	}

	if resolved["key"] != "fresh" {
		t.Errorf("resolved = %v, stale results leaked in", resolved)
	}
}

func TestTrackerCurrent(t *testing.T) {
	tr := NewTracker()
	a := tr.Start(context.Background())
	if !a.Current() {
		t.Error("a should be current before b starts")
	}

	b := tr.Start(context.Background())
	if a.Current() {
		t.Error("a should not be current after b starts")
	}
	if !b.Current() {
		t.Error("b should be current")
	}
}

func TestTrackerZeroValue(t *testing.T) {
	var tr Tracker
	j := tr.Start(context.Background())
	if j.ID() != 1 {
		t.Errorf("id = %d, want 1", j.ID())
	}
	if !j.Apply(func() {}) {
		t.Error("sole job should apply")
	}
}
