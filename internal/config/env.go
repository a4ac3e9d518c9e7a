package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// envOverrides captures FILEMILL_* environment variables. Pointer fields
// stay nil when the variable is unset, so only explicitly set variables
// override the file-based configuration.
type envOverrides struct {
	Workers      *int    `env:"FILEMILL_WORKERS"`
	QueueDepth   *int    `env:"FILEMILL_QUEUE_DEPTH"`
	ChunkSize    *int    `env:"FILEMILL_CHUNK_SIZE"`
	Analyzer     *string `env:"FILEMILL_ANALYZER"`
	OutputFormat *string `env:"FILEMILL_OUTPUT_FORMAT"`
	Progress     *string `env:"FILEMILL_PROGRESS"`
	LogLevel     *string `env:"FILEMILL_LOG_LEVEL"`
	LogFormat    *string `env:"FILEMILL_LOG_FORMAT"`
	LogFile      *string `env:"FILEMILL_LOG_FILE"`
}

// ApplyEnv overlays FILEMILL_* environment variables onto cfg. Variables
// that are unset leave the corresponding fields untouched.
func ApplyEnv(ctx context.Context, cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(ctx, &env); err != nil {
		return fmt.Errorf("reading FILEMILL_* environment: %w", err)
	}

	if env.Workers != nil {
		cfg.Run.Workers = *env.Workers
	}
	if env.QueueDepth != nil {
		cfg.Run.QueueDepth = *env.QueueDepth
	}
	if env.ChunkSize != nil {
		cfg.Run.ChunkSize = *env.ChunkSize
	}
	if env.Analyzer != nil {
		cfg.Run.Analyzer = *env.Analyzer
	}
	if env.OutputFormat != nil {
		cfg.Output.DefaultFormat = *env.OutputFormat
	}
	if env.Progress != nil {
		cfg.Output.Progress = *env.Progress
	}
	if env.LogLevel != nil {
		cfg.Logging.Level = *env.LogLevel
	}
	if env.LogFormat != nil {
		cfg.Logging.Format = *env.LogFormat
	}
	if env.LogFile != nil {
		cfg.Logging.File = *env.LogFile
	}

	return nil
}
