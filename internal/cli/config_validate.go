package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/filemill/filemill/internal/config"
)

// NewConfigValidateCmd creates the config validate command for
// validating the resolved configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the resolved configuration (global config merged with any
project-local overlay and FILEMILL_* environment overrides) for
semantic correctness.

This includes:
- Worker, queue depth, and chunk size bounds
- Analyzer name
- Output format, progress mode, and sort field values
- Logging level and format`,
		Example: `  # Validate current configuration
  filemill config validate

  # Validate and show detailed information
  filemill config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic against
// the config resolved by the root command.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Workers: %d", cfg.Run.Workers)
	if cfg.Run.Workers == 0 {
		cmd.Printf(" (CPU count: %d)", cfg.Run.EffectiveWorkers())
	}
	cmd.Println()
	cmd.Printf("  Queue depth: %d\n", cfg.Run.QueueDepth)
	cmd.Printf("  Chunk size: %d bytes\n", cfg.Run.ChunkSize)
	cmd.Printf("  Analyzer: %s\n", cfg.Run.Analyzer)
	if len(cfg.Run.Include) > 0 {
		cmd.Printf("  Include globs: %v\n", cfg.Run.Include)
	}
	if len(cfg.Run.ExcludeDirs) > 0 {
		cmd.Printf("  Excluded dirs: %v\n", cfg.Run.ExcludeDirs)
	}
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Progress: %s\n", cfg.Output.Progress)
	cmd.Printf("  Sort by: %s\n", cfg.Output.SortBy)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)

	if projectDir := config.GetResolvedProjectDir(); projectDir != "" {
		cmd.Println()
		cmd.Printf("  Project directory: %s\n", projectDir)
	}
}
