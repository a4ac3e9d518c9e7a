package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/filemill/filemill/internal/config"
	"github.com/filemill/filemill/internal/logging"
	"github.com/filemill/filemill/internal/report"
)

// NewRetryCmd creates the "retry" subcommand that re-processes only the
// failed files recorded in a previous run report.
func NewRetryCmd() *cobra.Command {
	var params RunParams

	cmd := &cobra.Command{
		Use:   "retry <report>",
		Short: "Re-process the failed files from a previous run report",
		Long: `Loads a JSON report produced by 'filemill run --report', collects the
paths that failed, and runs only those files through the same analyzer.
The report's root and analyzer are reused; pool tuning can be changed
per retry.`,
		Example: `  # Retry everything that failed in the last run
  filemill retry run.json

  # Retry with a bigger pool and write a fresh report
  filemill retry run.json --workers 16 --report retry.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRetry(cmd, args[0], params)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&params.Workers, "workers", 0, "worker pool size (0 = CPU count)")
	flags.IntVar(&params.QueueDepth, "queue-depth", 0, "task queue depth (0 = default)")
	flags.IntVar(&params.ChunkSize, "chunk-size", 0, "streaming read buffer in bytes (0 = 8 KiB)")
	flags.StringVar(&params.Pattern, "pattern", "", "regular expression for the match analyzer")
	flags.IntVar(&params.MaxLineBytes, "max-line-bytes", 0, "per-line size cap for the match analyzer")
	flags.Int64Var(&params.HTMLMaxBytes, "html-max-bytes", 0, "document size cap for the htmlmeta analyzer")
	flags.StringVar(&params.Output, "output", "", "output format (table, json, ndjson)")
	flags.StringVar(&params.SortBy, "sort", "", "table sort field (path, duration, status)")
	flags.StringVar(&params.Progress, "progress", "", "progress display (auto, plain, tui, off)")
	flags.StringVar(&params.ReportPath, "report", "", "write a JSON retry report to this file")
	flags.BoolVar(&params.FailOnErrors, "fail-on-errors", false, "exit non-zero when any file failed")
	flags.IntVar(&params.FailExitCode, "fail-exit-code", DefaultFailExitCode, "exit code used with --fail-on-errors")
	flags.BoolVar(&params.AbortInFlight, "abort-in-flight", false, "abandon in-progress reads on cancellation")

	return cmd
}

// executeRetry loads the prior report and re-runs its failed paths.
func executeRetry(cmd *cobra.Command, reportPath string, params RunParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	rep, err := report.Load(reportPath)
	if err != nil {
		return fmt.Errorf("loading report %s: %w", reportPath, err)
	}

	cfg := config.GetGlobalConfig()
	applyConfigDefaults(cmd.Flags(), cfg, &params)
	// The analyzer and walk scope come from the report, not config.
	params.Analyzer = rep.Analyzer
	params.Include = nil
	params.ExcludeDirs = nil
	if err := validateOutputParams(&params); err != nil {
		return err
	}

	failed := rep.FailedPaths()
	audit := newAuditContext(ctx, "retry", map[string]string{
		"report":   reportPath,
		"run_id":   rep.RunID,
		"analyzer": rep.Analyzer,
		"failed":   strconv.Itoa(len(failed)),
	})

	if len(failed) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No failed files to retry.")
		audit.logResults(ctx, 0, 0)
		return nil
	}

	eng, err := buildEngine(&params)
	if err != nil {
		audit.logFailure(ctx, err)
		return err
	}

	log.Debug().Ctx(ctx).
		Str("report", reportPath).
		Str("analyzer", rep.Analyzer).
		Int("failed", len(failed)).
		Msg("starting retry")

	started := time.Now()
	outcome, err := runWithProgress(cmd, eng, rep.Root, failed, params.Progress)
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Msg("retry aborted")
		audit.logFailure(ctx, err)
		return err
	}

	return finishRun(cmd, &params, audit, rep.Root, started, outcome)
}
