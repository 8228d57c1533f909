package assets

import (
	"context"
	"sync"
)

// Tracker orders resolution jobs so the newest one wins. Live previews
// start a fresh resolution on every document change; the tracker
// cancels the in-flight job and guarantees that a superseded job's
// results are discarded whole rather than merged with fresher data.
type Tracker struct {
	mu     sync.Mutex
	lastID uint64
	cancel context.CancelFunc
}

// NewTracker creates a tracker. The zero value is also usable.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Job is one tracked resolution pass.
type Job struct {
	id  uint64
	ctx context.Context
	t   *Tracker
}

// Start registers a new job and cancels any in-flight predecessor.
// Job ids increase monotonically.
func (t *Tracker) Start(ctx context.Context) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	jctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.lastID++

	return &Job{id: t.lastID, ctx: jctx, t: t}
}

// ID returns the job's sequence number.
func (j *Job) ID() uint64 { return j.id }

// Context returns the job's cancellation context. It is cancelled when
// a newer job starts.
func (j *Job) Context() context.Context { return j.ctx }

// Current reports whether the job is still the newest.
func (j *Job) Current() bool {
	j.t.mu.Lock()
	defer j.t.mu.Unlock()
	return j.id == j.t.lastID
}

// Apply runs fn only if the job is still current and reports whether it
// ran. The check and fn execute under the tracker's lock, so a stale
// job can never slip its results in between a newer job's Start and its
// own Apply.
func (j *Job) Apply(fn func()) bool {
	j.t.mu.Lock()
	defer j.t.mu.Unlock()

	if j.id != j.t.lastID {
		return false
	}
	fn()
	return true
}
