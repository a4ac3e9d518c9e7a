package cli

import (
	"errors"
	"fmt"
)

// ErrInterrupted marks a run stopped by cancellation. The binary maps it
// to exit code 130.
var ErrInterrupted = errors.New("interrupted")

// DefaultFailExitCode is used with --fail-on-errors when no explicit
// --fail-exit-code is given.
const DefaultFailExitCode = 2

// FailureExitError requests a specific process exit code when
// --fail-on-errors is set and some files failed. The binary unwraps it
// with errors.As.
type FailureExitError struct {
	ExitCode int
	Failed   int
}

func (e *FailureExitError) Error() string {
	return fmt.Sprintf("%d file(s) failed", e.Failed)
}
