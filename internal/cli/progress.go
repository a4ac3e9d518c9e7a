package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/filemill/filemill/internal/engine"
)

// plainProgress is the line-per-event progress display used when stderr
// is not a terminal or --progress plain is requested. Safe for
// concurrent use; the engine collector calls OnResult serially but
// OnWalkDone can race with it.
type plainProgress struct {
	w        io.Writer
	mu       sync.Mutex
	walkDone bool
	total    int
}

func newPlainProgress(w io.Writer) *plainProgress {
	return &plainProgress{w: w}
}

func (p *plainProgress) OnStart(root string, workers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "processing %s with %d workers\n", root, workers)
}

func (p *plainProgress) OnWalkDone(discovered int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.walkDone = true
	p.total = discovered
	_, _ = fmt.Fprintf(p.w, "discovered %d files\n", discovered)
}

func (p *plainProgress) OnResult(res engine.WorkResult, snap engine.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var prefix string
	if p.walkDone {
		prefix = fmt.Sprintf("[%d/%d]", snap.Completed, p.total)
	} else {
		prefix = fmt.Sprintf("[%d]", snap.Completed)
	}
	if res.OK() {
		_, _ = fmt.Fprintf(p.w, "%s ok   %s\n", prefix, res.Path)
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s FAIL %s: %s\n", prefix, res.Path, res.Error)
}

func (p *plainProgress) OnFinish(sum engine.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "done: %d succeeded, %d failed\n", sum.Succeeded, sum.Failed)
}
