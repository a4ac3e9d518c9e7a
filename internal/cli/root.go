package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/filemill/filemill/internal/config"
	"github.com/filemill/filemill/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the filemill CLI. It
// wires up configuration resolution, logging, tracing, audit logging,
// and the run/retry/analyzers/config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var (
		logResult      *logging.LogPathResult
		projectDirFlag string
	)

	cmd := &cobra.Command{
		Use:   "filemill",
		Short: "Process large file sets with a bounded worker pool",
		Long: `filemill walks a directory tree and streams every matching file
through an analyzer using a fixed-size worker pool, producing one
result per file no matter how many individual files fail along the way.`,
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
				cmd.SetContext(ctx)
			}

			cwd, err := os.Getwd()
			if err != nil {
				cwd = "."
			}
			projectDir := config.ResolveProjectDir(ctx, projectDirFlag, cwd)
			config.SetResolvedProjectDir(projectDir)

			cfg := config.NewWithProjectDir(ctx, projectDir)
			if err := config.ApplyEnv(ctx, cfg); err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&projectDirFlag, "project-dir", "",
		"project directory containing .filemill/ (overrides discovery)")
	cmd.AddCommand(NewRunCmd(), NewRetryCmd(), NewAnalyzersCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Count lines in every .log file under the current directory
  filemill run --include '*.log'

  # Grep-style match counting with 8 workers and a persisted report
  filemill run /var/log --analyzer match --pattern 'ERROR' --workers 8 --report run.json

  # Checksum a tree, streaming NDJSON results
  filemill run /data --analyzer checksum --output ndjson

  # Re-process only the failures from a previous run
  filemill retry run.json

  # List available analyzers
  filemill analyzers

  # Initialize configuration
  filemill config init`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd())
	return cmd
}
