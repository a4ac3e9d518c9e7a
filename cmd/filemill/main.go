package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/filemill/filemill/internal/cli"
	"github.com/filemill/filemill/pkg/version"
)

// interruptExitCode follows the shell convention for SIGINT (128 + 2).
const interruptExitCode = 130

func main() {
	os.Exit(run())
}

// run executes the root command and maps its error to a process exit
// code. Split from main so tests can reason about the mapping.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, cli.ErrInterrupted) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return extractExitCode(err)
}

// extractExitCode maps command errors onto exit codes: 0 for success,
// the requested code for --fail-on-errors failures, 130 for
// interruption, and 1 for everything else.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var failure *cli.FailureExitError
	if errors.As(err, &failure) {
		return failure.ExitCode
	}
	if errors.Is(err, cli.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return interruptExitCode
	}
	return 1
}
