package engine

// Observer receives run lifecycle events so progress rendering stays out
// of the engine. OnResult and the walk events may fire from different
// goroutines; implementations must be safe for concurrent use.
type Observer interface {
	// OnStart fires once before enumeration begins.
	OnStart(root string, workers int)
	// OnWalkDone fires when enumeration finishes with the final
	// discovered count. Results may still be arriving.
	OnWalkDone(discovered int)
	// OnResult fires once per completed file with a progress snapshot.
	OnResult(res WorkResult, snap Snapshot)
	// OnFinish fires once after every worker has exited.
	OnFinish(sum Summary)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnStart(string, int)          {}
func (NopObserver) OnWalkDone(int)               {}
func (NopObserver) OnResult(WorkResult, Snapshot) {}
func (NopObserver) OnFinish(Summary)             {}
