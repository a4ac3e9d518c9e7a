package engine

import (
	"sync"
	"time"
)

// Tracker accumulates batch progress counters. It is safe for concurrent
// use: the walker adds discoveries while workers complete files.
type Tracker struct {
	mu         sync.Mutex
	discovered int
	completed  int
	succeeded  int
	failed     int
	walkErrors int
	bytesRead  int64
	walkDone   bool
	started    time.Time
}

// NewTracker starts a tracker; elapsed time is measured from this call.
func NewTracker() *Tracker {
	return &Tracker{started: time.Now()}
}

// AddDiscovered records one enqueued task.
func (t *Tracker) AddDiscovered() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.discovered++
}

// AddWalkError records one unreadable directory.
func (t *Tracker) AddWalkError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.walkErrors++
}

// FinishWalk marks enumeration complete, fixing the discovered total.
func (t *Tracker) FinishWalk() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.walkDone = true
	return t.discovered
}

// AddResult records one completed file and returns the updated snapshot.
func (t *Tracker) AddResult(res WorkResult) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	if res.OK() {
		t.succeeded++
	} else {
		t.failed++
	}
	t.bytesRead += res.Bytes
	return t.snapshotLocked()
}

// Snapshot returns an immutable copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	elapsed := time.Since(t.started)
	snap := Snapshot{
		Discovered: t.discovered,
		Completed:  t.completed,
		Succeeded:  t.succeeded,
		Failed:     t.failed,
		WalkErrors: t.walkErrors,
		BytesRead:  t.bytesRead,
		WalkDone:   t.walkDone,
		Elapsed:    elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		snap.FilesPerSecond = float64(t.completed) / secs
	}
	if t.walkDone && t.completed > 0 && t.completed < t.discovered {
		avg := elapsed / time.Duration(t.completed)
		snap.ETA = avg * time.Duration(t.discovered-t.completed)
	}
	return snap
}

// Summary converts the final counters into a batch summary.
func (t *Tracker) Summary(interrupted bool) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		Discovered:  t.discovered,
		Completed:   t.completed,
		Succeeded:   t.succeeded,
		Failed:      t.failed,
		WalkErrors:  t.walkErrors,
		BytesRead:   t.bytesRead,
		Elapsed:     time.Since(t.started),
		Interrupted: interrupted,
	}
}

// Snapshot is an immutable view of in-flight progress.
type Snapshot struct {
	Discovered     int
	Completed      int
	Succeeded      int
	Failed         int
	WalkErrors     int
	BytesRead      int64
	WalkDone       bool
	Elapsed        time.Duration
	FilesPerSecond float64
	// ETA is a rough remaining-time estimate, zero until the walk is done
	// and at least one file has completed.
	ETA time.Duration
}

// PercentComplete returns completion as 0-100. It reads zero until the
// walk finishes, since the denominator is still growing before then.
func (s Snapshot) PercentComplete() float64 {
	if !s.WalkDone || s.Discovered == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Discovered) * 100
}
