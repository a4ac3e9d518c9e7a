package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/filemill/filemill/internal/analyze"
	"github.com/filemill/filemill/internal/config"
	"github.com/filemill/filemill/internal/engine"
	"github.com/filemill/filemill/internal/logging"
	"github.com/filemill/filemill/internal/report"
	"github.com/filemill/filemill/internal/tui"
)

// RunParams holds the parameters for the run command execution.
// Exported for testing.
type RunParams struct {
	Include       []string
	ExcludeDirs   []string
	Workers       int
	QueueDepth    int
	ChunkSize     int
	Analyzer      string
	Pattern       string
	MaxLineBytes  int
	HTMLMaxBytes  int64
	Output        string
	SortBy        string
	Progress      string
	ReportPath    string
	FailOnErrors  bool
	FailExitCode  int
	AbortInFlight bool
}

// NewRunCmd creates the "run" subcommand that processes a directory
// tree. Flags left unset fall back to the resolved configuration.
func NewRunCmd() *cobra.Command {
	var params RunParams

	cmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Process every matching file under a directory",
		Long: `Walks the root directory (default "."), streams every file matching
the include globs through the selected analyzer, and reports one
result per file. Individual file failures are recorded and never
abort the batch; only systemic problems (missing root, bad pattern)
do.`,
		Example: `  # Line counts for all files under the current directory
  filemill run

  # Only logs, skipping VCS metadata, with live progress
  filemill run /var/log --include '*.log' --exclude-dir .git --progress tui

  # Fail the build when any file could not be processed
  filemill run ./testdata --fail-on-errors --fail-exit-code 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, args, params)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&params.Include, "include", nil, "file-name glob to process (repeatable)")
	flags.StringArrayVar(&params.ExcludeDirs, "exclude-dir", nil, "directory base name to skip (repeatable)")
	flags.IntVar(&params.Workers, "workers", 0, "worker pool size (0 = CPU count)")
	flags.IntVar(&params.QueueDepth, "queue-depth", 0, "task queue depth (0 = default)")
	flags.IntVar(&params.ChunkSize, "chunk-size", 0, "streaming read buffer in bytes (0 = 8 KiB)")
	flags.StringVar(&params.Analyzer, "analyzer", "", "per-file analyzer (see 'filemill analyzers')")
	flags.StringVar(&params.Pattern, "pattern", "", "regular expression for the match analyzer")
	flags.IntVar(&params.MaxLineBytes, "max-line-bytes", 0, "per-line size cap for the match analyzer")
	flags.Int64Var(&params.HTMLMaxBytes, "html-max-bytes", 0, "document size cap for the htmlmeta analyzer")
	flags.StringVar(&params.Output, "output", "", "output format (table, json, ndjson)")
	flags.StringVar(&params.SortBy, "sort", "", "table sort field (path, duration, status)")
	flags.StringVar(&params.Progress, "progress", "", "progress display (auto, plain, tui, off)")
	flags.StringVar(&params.ReportPath, "report", "", "write a JSON run report to this file")
	flags.BoolVar(&params.FailOnErrors, "fail-on-errors", false, "exit non-zero when any file failed")
	flags.IntVar(&params.FailExitCode, "fail-exit-code", DefaultFailExitCode, "exit code used with --fail-on-errors")
	flags.BoolVar(&params.AbortInFlight, "abort-in-flight", false, "abandon in-progress reads on cancellation")

	return cmd
}

// applyConfigDefaults fills params fields whose flags were not set from
// the resolved configuration, giving flags > env > config precedence.
func applyConfigDefaults(flags *pflag.FlagSet, cfg *config.Config, params *RunParams) {
	if !flags.Changed("include") {
		params.Include = cfg.Run.Include
	}
	if !flags.Changed("exclude-dir") {
		params.ExcludeDirs = cfg.Run.ExcludeDirs
	}
	if !flags.Changed("workers") {
		params.Workers = cfg.Run.Workers
	}
	if !flags.Changed("queue-depth") {
		params.QueueDepth = cfg.Run.QueueDepth
	}
	if !flags.Changed("chunk-size") {
		params.ChunkSize = cfg.Run.ChunkSize
	}
	if !flags.Changed("analyzer") {
		params.Analyzer = cfg.Run.Analyzer
	}
	if !flags.Changed("max-line-bytes") {
		params.MaxLineBytes = cfg.Run.MaxLineBytes
	}
	if !flags.Changed("html-max-bytes") {
		params.HTMLMaxBytes = cfg.Run.HTMLMaxBytes
	}
	if !flags.Changed("abort-in-flight") {
		params.AbortInFlight = cfg.Run.AbortInFlight
	}
	if !flags.Changed("output") {
		params.Output = cfg.Output.DefaultFormat
	}
	if !flags.Changed("sort") {
		params.SortBy = cfg.Output.SortBy
	}
	if !flags.Changed("progress") {
		params.Progress = cfg.Output.Progress
	}
}

// validateOutputParams rejects unknown selector values before any work
// starts.
func validateOutputParams(params *RunParams) error {
	switch params.Output {
	case config.FormatTable, config.FormatJSON, config.FormatNDJSON:
	default:
		return fmt.Errorf("unknown output format %q: expected table, json, or ndjson", params.Output)
	}
	switch params.SortBy {
	case config.SortByPath, config.SortByDuration, config.SortByStatus:
	default:
		return fmt.Errorf("unknown sort field %q: expected path, duration, or status", params.SortBy)
	}
	switch params.Progress {
	case config.ProgressAuto, config.ProgressPlain, config.ProgressTUI, config.ProgressOff:
	default:
		return fmt.Errorf("unknown progress mode %q: expected auto, plain, tui, or off", params.Progress)
	}
	return nil
}

// executeRun runs the batch workflow: resolve parameters, build the
// analyzer and engine, process the tree, render, and persist the report.
func executeRun(cmd *cobra.Command, args []string, params RunParams) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root %s: %w", root, err)
	}

	cfg := config.GetGlobalConfig()
	applyConfigDefaults(cmd.Flags(), cfg, &params)
	if err := validateOutputParams(&params); err != nil {
		return err
	}

	audit := newAuditContext(ctx, "run", map[string]string{
		"root":     absRoot,
		"analyzer": params.Analyzer,
		"workers":  strconv.Itoa(params.Workers),
	})

	eng, err := buildEngine(&params)
	if err != nil {
		audit.logFailure(ctx, err)
		return err
	}

	log.Debug().Ctx(ctx).
		Str("root", absRoot).
		Str("analyzer", params.Analyzer).
		Int("workers", params.Workers).
		Msg("starting run")

	started := time.Now()
	outcome, err := runWithProgress(cmd, eng, absRoot, nil, params.Progress)
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Msg("batch aborted")
		audit.logFailure(ctx, err)
		return err
	}

	return finishRun(cmd, &params, audit, absRoot, started, outcome)
}

// buildEngine assembles the analyzer and engine from run parameters.
// Both constructors validate their inputs, so every misconfiguration
// surfaces here as a systemic error.
func buildEngine(params *RunParams) (*engine.Engine, error) {
	analyzer, err := analyze.New(params.Analyzer, analyze.Options{
		ChunkSize:    params.ChunkSize,
		Pattern:      params.Pattern,
		MaxLineBytes: params.MaxLineBytes,
		HTMLMaxBytes: params.HTMLMaxBytes,
	})
	if err != nil {
		return nil, err
	}

	return engine.New(afero.NewOsFs(), analyzer, engine.Options{
		Workers:       params.Workers,
		QueueDepth:    params.QueueDepth,
		ChunkSize:     params.ChunkSize,
		Include:       params.Include,
		ExcludeDirs:   params.ExcludeDirs,
		AbortInFlight: params.AbortInFlight,
	})
}

// runWithProgress executes the batch with the requested progress
// display. Results always go to stdout; progress and logs stay on
// stderr so piped output remains machine-readable.
func runWithProgress(
	cmd *cobra.Command,
	eng *engine.Engine,
	root string,
	paths []string,
	progressMode string,
) (*engine.Outcome, error) {
	run := func(ctx context.Context) (*engine.Outcome, error) {
		if paths != nil {
			return eng.RunPaths(ctx, root, paths)
		}
		return eng.Run(ctx, root)
	}

	switch tui.ResolveProgressMode(progressMode, os.Stderr) {
	case tui.ModePlain:
		eng.WithObserver(newPlainProgress(cmd.ErrOrStderr()))
		return run(cmd.Context())
	case tui.ModeTUI:
		return runWithTUI(cmd, eng, run)
	default:
		return run(cmd.Context())
	}
}

// runWithTUI drives the batch behind a live bubbletea progress display.
// The engine runs in a goroutine and streams events into the program;
// pressing q cancels the run cooperatively.
func runWithTUI(
	cmd *cobra.Command,
	eng *engine.Engine,
	run func(context.Context) (*engine.Outcome, error),
) (*engine.Outcome, error) {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewProgressModel(cancel)
	program := tea.NewProgram(model, tea.WithOutput(cmd.ErrOrStderr()))
	eng.WithObserver(tui.NewProgramObserver(program))

	var (
		outcome *engine.Outcome
		runErr  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		outcome, runErr = run(ctx)
		// Covers systemic failures that never reach the FinishMsg path.
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("running progress display: %w", err)
	}
	<-done
	return outcome, runErr
}

// finishRun renders the outcome, persists the optional report, audits
// the run, and maps failures onto the documented exit codes.
func finishRun(
	cmd *cobra.Command,
	params *RunParams,
	audit *auditContext,
	root string,
	started time.Time,
	outcome *engine.Outcome,
) error {
	ctx := cmd.Context()

	if err := renderOutcome(cmd.OutOrStdout(), params.Output, params.SortBy, outcome); err != nil {
		audit.logFailure(ctx, err)
		return fmt.Errorf("rendering results: %w", err)
	}

	if params.ReportPath != "" {
		rep := report.New(root, params.Analyzer, started, outcome)
		if err := report.Write(params.ReportPath, rep); err != nil {
			audit.logFailure(ctx, err)
			return err
		}
		logging.FromContext(ctx).Info().Ctx(ctx).
			Str("report", params.ReportPath).
			Str("run_id", rep.RunID).
			Msg("report written")
	}

	audit.logResults(ctx, outcome.Summary.Completed, outcome.Summary.Failed)

	if outcome.Summary.Interrupted {
		return fmt.Errorf("%w: %d of %d files completed",
			ErrInterrupted, outcome.Summary.Completed, outcome.Summary.Discovered)
	}
	if params.FailOnErrors && outcome.Summary.Failed > 0 {
		return &FailureExitError{ExitCode: params.FailExitCode, Failed: outcome.Summary.Failed}
	}
	return nil
}
