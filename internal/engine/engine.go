// Package engine implements filemill's bounded-concurrency batch file
// processor: a streaming walker feeds a bounded task channel, a fixed
// worker pool streams each file through an analyzer, and a single
// collector aggregates one WorkResult per discovered file.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/filemill/filemill/internal/analyze"
	"github.com/filemill/filemill/internal/logging"
)

// Systemic errors: these abort the batch before any work starts.
var (
	ErrRootMissing = errors.New("root directory does not exist")
	ErrRootNotDir  = errors.New("root path is not a directory")
	ErrNilAnalyzer = errors.New("analyzer cannot be nil")
)

// Engine runs batches. One Engine is safe to reuse for sequential runs
// but not for concurrent ones; each CLI invocation builds its own.
type Engine struct {
	fs       afero.Fs
	analyzer analyze.Analyzer
	opts     Options
	obs      Observer
	tracker  *Tracker
}

// New builds an engine over the given filesystem. Options are validated
// here so misconfiguration surfaces before enumeration.
func New(fsys afero.Fs, analyzer analyze.Analyzer, opts Options) (*Engine, error) {
	if analyzer == nil {
		return nil, ErrNilAnalyzer
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Engine{fs: fsys, analyzer: analyzer, opts: opts, obs: NopObserver{}}, nil
}

// WithObserver sets the progress sink for subsequent runs.
func (e *Engine) WithObserver(obs Observer) *Engine {
	if obs != nil {
		e.obs = obs
	}
	return e
}

// Run processes every file under root that passes the include globs.
// The returned outcome holds one WorkResult per completed file in
// completion order; per-file failures live inside those results and the
// returned error covers systemic failures only.
func (e *Engine) Run(ctx context.Context, root string) (*Outcome, error) {
	if err := e.checkRoot(root); err != nil {
		return nil, err
	}
	return e.run(ctx, root, func(walkCtx context.Context, tasks chan<- FileTask) {
		e.walk(walkCtx, root, tasks)
	})
}

// RunPaths processes an explicit list of root-relative paths with the
// same pool and invariants as Run. Retry runs use this to re-process
// only previously failed files; paths that no longer exist produce
// per-file open failures, not systemic errors.
func (e *Engine) RunPaths(ctx context.Context, root string, paths []string) (*Outcome, error) {
	if err := e.checkRoot(root); err != nil {
		return nil, err
	}
	return e.run(ctx, root, func(walkCtx context.Context, tasks chan<- FileTask) {
		for _, rel := range paths {
			task := FileTask{Path: rel, AbsPath: filepath.Join(root, rel)}
			select {
			case tasks <- task:
				e.tracker.AddDiscovered()
			case <-walkCtx.Done():
				return
			}
		}
	})
}

func (e *Engine) checkRoot(root string) error {
	info, err := e.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRootMissing, root)
		}
		return fmt.Errorf("statting root %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}
	return nil
}

func (e *Engine) run(ctx context.Context, root string, enumerate func(context.Context, chan<- FileTask)) (*Outcome, error) {
	log := logging.FromContext(ctx)
	e.tracker = NewTracker()
	workers := e.opts.EffectiveWorkers()

	e.obs.OnStart(root, workers)
	log.Debug().Ctx(ctx).Str("root", root).Int("workers", workers).Msg("batch started")

	tasks := make(chan FileTask, e.opts.EffectiveQueueDepth())
	results := make(chan WorkResult, workers)

	go func() {
		enumerate(ctx, tasks)
		close(tasks)
		e.obs.OnWalkDone(e.tracker.FinishWalk())
	}()

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			e.worker(ctx, tasks, results)
			return nil
		})
	}
	go func() {
		// Workers never return errors; per-file problems become data.
		_ = g.Wait()
		close(results)
	}()

	outcome := &Outcome{}
	for res := range results {
		snap := e.tracker.AddResult(res)
		e.obs.OnResult(res, snap)
		outcome.Results = append(outcome.Results, res)
	}

	outcome.Summary = e.tracker.Summary(ctx.Err() != nil)
	e.obs.OnFinish(outcome.Summary)
	log.Info().Ctx(ctx).
		Int("discovered", outcome.Summary.Discovered).
		Int("succeeded", outcome.Summary.Succeeded).
		Int("failed", outcome.Summary.Failed).
		Bool("interrupted", outcome.Summary.Interrupted).
		Dur("elapsed", outcome.Summary.Elapsed).
		Msg("batch finished")
	return outcome, nil
}

// worker loops: dequeue one task, stream it, emit one result. It stops
// pulling new work once the context is cancelled; an in-flight read
// finishes or is abandoned depending on Options.AbortInFlight.
func (e *Engine) worker(ctx context.Context, tasks <-chan FileTask, results chan<- WorkResult) {
	for task := range tasks {
		if ctx.Err() != nil {
			return
		}
		res, abandoned := e.processFile(ctx, task)
		if abandoned {
			return
		}
		results <- res
	}
}

// processFile opens and streams one file through the analyzer. Every
// error is converted into the returned WorkResult; abandoned reports a
// cancelled in-flight read whose partial outcome must be discarded.
func (e *Engine) processFile(ctx context.Context, task FileTask) (WorkResult, bool) {
	start := time.Now()

	readCtx := ctx
	if !e.opts.AbortInFlight {
		// A started file finishes even when the batch is cancelled.
		readCtx = context.WithoutCancel(ctx)
	}

	file, err := e.fs.Open(task.AbsPath)
	if err != nil {
		return failedResult(task, KindOpen, err, 0, time.Since(start)), false
	}
	defer func() { _ = file.Close() }()

	counted := &countingReader{r: file}
	analyzed, err := e.analyzer.Analyze(readCtx, counted)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return WorkResult{}, true
		}
		return failedResult(task, classifyFailure(err), err, counted.n, time.Since(start)), false
	}

	return WorkResult{
		Path:        task.Path,
		Status:      StatusOK,
		Metrics:     analyzed.Metrics,
		Annotations: analyzed.Annotations,
		Bytes:       counted.n,
		Duration:    time.Since(start),
	}, false
}

func failedResult(task FileTask, kind string, err error, bytes int64, dur time.Duration) WorkResult {
	return WorkResult{
		Path:        task.Path,
		Status:      StatusFailed,
		FailureKind: kind,
		Error:       err.Error(),
		Bytes:       bytes,
		Duration:    dur,
	}
}

// classifyFailure separates I/O failures surfaced through the reader
// from analyzer-level rejections of well-read content.
func classifyFailure(err error) string {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindRead
	}
	return KindAnalyze
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
