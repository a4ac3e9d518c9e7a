package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Worker pool and buffer bounds.
const (
	// DefaultQueueDepth is the task channel depth when none is configured.
	DefaultQueueDepth = 256

	// DefaultChunkSize is the per-worker streaming read buffer.
	DefaultChunkSize = 8 * 1024

	// MaxWorkers is the largest accepted pool size.
	MaxWorkers = 512

	// MaxQueueDepth is the largest accepted task channel depth.
	MaxQueueDepth = 65536

	// MinChunkSize and MaxChunkSize bound the streaming read buffer.
	MinChunkSize = 256
	MaxChunkSize = 16 << 20
)

// Configuration errors surfaced by Options.Validate before any work
// starts.
var (
	ErrInvalidWorkers    = errors.New("workers must be between 0 and 512")
	ErrInvalidQueueDepth = errors.New("queue depth must be between 0 and 65536")
	ErrInvalidChunkSize  = errors.New("chunk size must be between 256 bytes and 16 MiB")
	ErrInvalidGlob       = errors.New("invalid include glob")
)

// Options tunes a batch run. The zero value selects defaults for every
// field.
type Options struct {
	// Workers is the pool size; 0 selects runtime.NumCPU().
	Workers int
	// QueueDepth bounds the task channel; 0 selects DefaultQueueDepth.
	QueueDepth int
	// ChunkSize is the streaming read buffer size; 0 selects 8 KiB.
	ChunkSize int
	// Include holds file-name globs matched against base names. Empty
	// means every regular file.
	Include []string
	// ExcludeDirs lists directory base names skipped during the walk.
	ExcludeDirs []string
	// AbortInFlight abandons in-progress reads on cancellation instead of
	// letting them finish.
	AbortInFlight bool
}

// Validate checks the options for out-of-range values and malformed
// globs. Glob syntax is checked up front so a bad pattern aborts the run
// instead of silently matching nothing.
func (o Options) Validate() error {
	if o.Workers < 0 || o.Workers > MaxWorkers {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, o.Workers)
	}
	if o.QueueDepth < 0 || o.QueueDepth > MaxQueueDepth {
		return fmt.Errorf("%w: got %d", ErrInvalidQueueDepth, o.QueueDepth)
	}
	if o.ChunkSize != 0 && (o.ChunkSize < MinChunkSize || o.ChunkSize > MaxChunkSize) {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, o.ChunkSize)
	}
	for _, glob := range o.Include {
		if _, err := filepath.Match(glob, "probe"); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidGlob, glob)
		}
	}
	return nil
}

// EffectiveWorkers resolves a zero worker count to the host CPU count.
func (o Options) EffectiveWorkers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// EffectiveQueueDepth resolves a zero queue depth to the default.
func (o Options) EffectiveQueueDepth() int {
	if o.QueueDepth > 0 {
		return o.QueueDepth
	}
	return DefaultQueueDepth
}

// EffectiveChunkSize resolves a zero chunk size to the default.
func (o Options) EffectiveChunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return DefaultChunkSize
}
