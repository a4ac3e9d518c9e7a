package engine

import (
	"time"
)

// WorkResult statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Failure kinds recorded on a failed WorkResult.
const (
	// KindOpen marks files that could not be opened or stat'd.
	KindOpen = "open"
	// KindRead marks files whose content stream failed mid-read.
	KindRead = "read"
	// KindAnalyze marks files the analyzer rejected (bad HTML, oversized
	// line, and so on).
	KindAnalyze = "analyze"
)

// FileTask is one unit of work: a single discovered file. Tasks are
// immutable once enqueued and consumed exactly once by one worker.
type FileTask struct {
	// Path is the location relative to the walk root.
	Path string
	// AbsPath is the absolute location used to open the file.
	AbsPath string
}

// WorkResult is the outcome of processing one FileTask. Exactly one
// WorkResult exists per completed task; per-file failures are recorded
// here instead of propagating as errors.
type WorkResult struct {
	Path        string            `json:"path"`
	Status      string            `json:"status"`
	FailureKind string            `json:"failure_kind,omitempty"`
	Error       string            `json:"error,omitempty"`
	Metrics     map[string]int64  `json:"metrics,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Bytes       int64             `json:"bytes"`
	Duration    time.Duration     `json:"duration_ns"`
}

// OK reports whether the file was processed successfully.
func (r WorkResult) OK() bool { return r.Status == StatusOK }

// Detail returns a short human-readable outcome column for table output.
func (r WorkResult) Detail() string {
	if !r.OK() {
		return r.FailureKind + ": " + r.Error
	}
	return ""
}

// Summary aggregates a finished (or interrupted) batch.
type Summary struct {
	// Discovered counts tasks enqueued by the walker.
	Discovered int `json:"discovered"`
	// Completed counts tasks that produced a WorkResult.
	Completed int `json:"completed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// WalkErrors counts directories that could not be read during
	// enumeration. Walk errors are logged, never fatal.
	WalkErrors int `json:"walk_errors"`
	BytesRead  int64 `json:"bytes_read"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	// Interrupted is set when cancellation stopped the batch before every
	// discovered task completed.
	Interrupted bool `json:"interrupted"`
}

// Outcome is what a run hands back to the caller: every WorkResult in
// completion order plus the aggregate summary.
type Outcome struct {
	Results []WorkResult `json:"results"`
	Summary Summary      `json:"summary"`
}
