package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/filemill/filemill/internal/logging"
)

// errWalkStopped aborts the walk cleanly on cancellation.
var errWalkStopped = errors.New("walk stopped")

// walk enumerates matching regular files under root and streams them
// into tasks. Unreadable directories are counted and logged, never
// fatal: a permission hole in one subtree must not abort the batch.
func (e *Engine) walk(ctx context.Context, root string, tasks chan<- FileTask) {
	log := logging.FromContext(ctx)

	err := afero.Walk(e.fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if ctx.Err() != nil {
			return errWalkStopped
		}
		if walkErr != nil {
			if info == nil || !info.IsDir() {
				// A file that cannot be stat'd still gets a task; the
				// worker records the open failure on its WorkResult.
				if e.matches(filepath.Base(path)) {
					return e.enqueue(ctx, root, path, tasks)
				}
				return nil
			}
			e.tracker.AddWalkError()
			log.Warn().Ctx(ctx).Err(walkErr).Str("path", path).Msg("walk error, subtree skipped")
			return filepath.SkipDir
		}

		if info.IsDir() {
			if path != root && e.excluded(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !e.matches(info.Name()) {
			return nil
		}

		return e.enqueue(ctx, root, path, tasks)
	})
	if err != nil && !errors.Is(err, errWalkStopped) {
		// Root-level failures were already caught by Run's systemic
		// check; anything surfacing here is a mid-walk directory error.
		e.tracker.AddWalkError()
		log.Warn().Ctx(ctx).Err(err).Str("root", root).Msg("walk ended early")
	}
}

// enqueue hands one matching file to the worker pool, blocking when the
// queue is full so enumeration never outruns processing by more than
// the queue depth.
func (e *Engine) enqueue(ctx context.Context, root, path string, tasks chan<- FileTask) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	select {
	case tasks <- FileTask{Path: rel, AbsPath: path}:
		e.tracker.AddDiscovered()
	case <-ctx.Done():
		return errWalkStopped
	}
	return nil
}

func (e *Engine) excluded(name string) bool {
	for _, dir := range e.opts.ExcludeDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// matches reports whether a file base name passes the include globs.
// Globs were validated by Options.Validate, so Match cannot fail here.
func (e *Engine) matches(name string) bool {
	if len(e.opts.Include) == 0 {
		return true
	}
	for _, glob := range e.opts.Include {
		if ok, _ := filepath.Match(glob, name); ok {
			return true
		}
	}
	return false
}
