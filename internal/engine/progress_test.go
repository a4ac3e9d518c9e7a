package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCounters(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 3; i++ {
		tr.AddDiscovered()
	}
	tr.AddWalkError()
	assert.Equal(t, 3, tr.FinishWalk())

	snap := tr.AddResult(WorkResult{Status: StatusOK, Bytes: 100})
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, 1, snap.Succeeded)
	assert.Equal(t, int64(100), snap.BytesRead)

	snap = tr.AddResult(WorkResult{Status: StatusFailed, Bytes: 50})
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, int64(150), snap.BytesRead)
	assert.True(t, snap.WalkDone)

	sum := tr.Summary(false)
	assert.Equal(t, 3, sum.Discovered)
	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 1, sum.WalkErrors)
	assert.False(t, sum.Interrupted)
}

func TestSnapshotPercentComplete(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want float64
	}{
		{name: "walk in progress reads zero", snap: Snapshot{Discovered: 10, Completed: 5}, want: 0},
		{name: "empty batch", snap: Snapshot{WalkDone: true}, want: 0},
		{name: "half done", snap: Snapshot{WalkDone: true, Discovered: 10, Completed: 5}, want: 50},
		{name: "complete", snap: Snapshot{WalkDone: true, Discovered: 4, Completed: 4}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.snap.PercentComplete(), 0.001)
		})
	}
}

func TestTrackerETAOnlyAfterWalk(t *testing.T) {
	tr := NewTracker()
	tr.AddDiscovered()
	tr.AddDiscovered()
	snap := tr.AddResult(WorkResult{Status: StatusOK})
	assert.Zero(t, snap.ETA, "no ETA while the denominator is still growing")

	tr.FinishWalk()
	snap = tr.Snapshot()
	assert.Positive(t, snap.ETA)
}

func TestTrackerInterruptedSummary(t *testing.T) {
	tr := NewTracker()
	tr.AddDiscovered()
	sum := tr.Summary(true)
	assert.True(t, sum.Interrupted)
	assert.Positive(t, sum.Elapsed)
}
