// Package config loads, merges, validates, and persists filemill
// configuration. Precedence is defaults, then the global
// ~/.filemill/config.yaml, then a project-local overlay, then FILEMILL_*
// environment variables, with CLI flags applied last by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Defaults and validation bounds for the run section.
const (
	DefaultQueueDepth   = 256
	DefaultChunkSize    = 8 * 1024
	DefaultMaxLineBytes = 1 << 20
	DefaultHTMLMaxBytes = 4 << 20
	DefaultAnalyzer     = "lines"

	MaxWorkers    = 512
	MaxQueueDepth = 65536
	MinChunkSize  = 256
	MaxChunkSize  = 16 << 20
)

// Output format names shared by config validation and CLI flags.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// Progress mode names shared by config validation and CLI flags.
const (
	ProgressAuto  = "auto"
	ProgressPlain = "plain"
	ProgressTUI   = "tui"
	ProgressOff   = "off"
)

// Sort field names accepted for table output.
const (
	SortByPath     = "path"
	SortByDuration = "duration"
	SortByStatus   = "status"
)

const (
	configDirName   = ".filemill"
	configFileName  = "config.yaml"
	historyFileName = "history.jsonl"
)

// RunConfig controls file enumeration and the worker pool.
type RunConfig struct {
	// Workers is the pool size; 0 selects runtime.NumCPU().
	Workers int `yaml:"workers"`
	// QueueDepth bounds the task channel; 0 means unbuffered.
	QueueDepth int `yaml:"queue_depth"`
	// ChunkSize is the per-worker streaming read buffer in bytes.
	ChunkSize int `yaml:"chunk_size"`
	// MaxLineBytes caps a single line for the match analyzer.
	MaxLineBytes int `yaml:"max_line_bytes"`
	// HTMLMaxBytes caps document size for the htmlmeta analyzer.
	HTMLMaxBytes int64 `yaml:"html_max_bytes"`
	// Analyzer names the per-file processor.
	Analyzer string `yaml:"analyzer"`
	// Include holds file-name globs; a file matching any is processed.
	Include []string `yaml:"include"`
	// ExcludeDirs lists directory base names skipped during the walk.
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// AbortInFlight abandons in-progress reads on cancellation instead
	// of letting them finish.
	AbortInFlight bool `yaml:"abort_in_flight"`
}

// EffectiveWorkers resolves a zero worker count to the host CPU count.
func (rc RunConfig) EffectiveWorkers() int {
	if rc.Workers > 0 {
		return rc.Workers
	}
	return runtime.NumCPU()
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Progress      string `yaml:"progress"`
	SortBy        string `yaml:"sort_by"`
}

// Config is the root of the filemill configuration file.
type Config struct {
	Run     RunConfig     `yaml:"run"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`

	configPath string
}

// New returns the default configuration overlaid with the global config
// file when one exists. Unreadable or malformed global files leave the
// defaults in place; `filemill config validate` surfaces the details.
func New() *Config {
	cfg := defaultConfig()

	data, err := os.ReadFile(cfg.ConfigPath())
	if err != nil {
		return cfg
	}
	// Field-level merge: keys absent from the file keep their defaults.
	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Workers:      0,
			QueueDepth:   DefaultQueueDepth,
			ChunkSize:    DefaultChunkSize,
			MaxLineBytes: DefaultMaxLineBytes,
			HTMLMaxBytes: DefaultHTMLMaxBytes,
			Analyzer:     DefaultAnalyzer,
			Include:      []string{"*"},
			ExcludeDirs:  []string{".git"},
		},
		Output: OutputConfig{
			DefaultFormat: FormatTable,
			Progress:      ProgressAuto,
			SortBy:        SortByPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ConfigPath returns the path this Config saves to and loads from. It
// defaults to ~/.filemill/config.yaml.
func (c *Config) ConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return filepath.Join(DefaultConfigDir(), configFileName)
}

// SetConfigPath overrides the path used by Save, e.g. for project-local
// configuration files.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// DefaultConfigDir returns the global configuration directory,
// ~/.filemill. It falls back to the working directory when the home
// directory cannot be resolved.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// DefaultHistoryPath returns the default audit trail location.
func DefaultHistoryPath() string {
	return filepath.Join(DefaultConfigDir(), historyFileName)
}

// Save writes the configuration as YAML to ConfigPath, creating parent
// directories as needed.
func (c *Config) Save() error {
	path := c.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(configFileHeader), data...), 0o600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

const configFileHeader = `# filemill configuration
# Values here are overridden by FILEMILL_* environment variables and CLI flags.
`

// Validate checks the configuration for out-of-range values and unknown
// selector names.
func (c *Config) Validate() error {
	if c.Run.Workers < 0 || c.Run.Workers > MaxWorkers {
		return fmt.Errorf("run.workers must be between 0 and %d, got %d", MaxWorkers, c.Run.Workers)
	}
	if c.Run.QueueDepth < 0 || c.Run.QueueDepth > MaxQueueDepth {
		return fmt.Errorf("run.queue_depth must be between 0 and %d, got %d", MaxQueueDepth, c.Run.QueueDepth)
	}
	if c.Run.ChunkSize < MinChunkSize || c.Run.ChunkSize > MaxChunkSize {
		return fmt.Errorf("run.chunk_size must be between %d and %d, got %d", MinChunkSize, MaxChunkSize, c.Run.ChunkSize)
	}
	if c.Run.MaxLineBytes <= 0 {
		return fmt.Errorf("run.max_line_bytes must be positive, got %d", c.Run.MaxLineBytes)
	}
	if c.Run.HTMLMaxBytes <= 0 {
		return fmt.Errorf("run.html_max_bytes must be positive, got %d", c.Run.HTMLMaxBytes)
	}

	if !validOutputFormats[c.Output.DefaultFormat] {
		return fmt.Errorf("output.default_format must be one of table, json, ndjson; got %q", c.Output.DefaultFormat)
	}
	if !validProgressModes[c.Output.Progress] {
		return fmt.Errorf("output.progress must be one of auto, plain, tui, off; got %q", c.Output.Progress)
	}
	if !validSortFields[c.Output.SortBy] {
		return fmt.Errorf("output.sort_by must be one of path, duration, status; got %q", c.Output.SortBy)
	}

	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level %q is not a valid level: %w", c.Logging.Level, err)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

//nolint:gochecknoglobals // Compile-time lookup tables.
var (
	validOutputFormats = map[string]bool{FormatTable: true, FormatJSON: true, FormatNDJSON: true}
	validProgressModes = map[string]bool{ProgressAuto: true, ProgressPlain: true, ProgressTUI: true, ProgressOff: true}
	validSortFields    = map[string]bool{SortByPath: true, SortByDuration: true, SortByStatus: true}
)

//nolint:gochecknoglobals // Process-wide configuration set once at startup.
var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// SetGlobalConfig stores the resolved configuration for access by
// command implementations.
func SetGlobalConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig returns the process-wide configuration, loading the
// global file on first use when none has been set.
func GetGlobalConfig() *Config {
	globalConfigMu.RLock()
	cfg := globalConfig
	globalConfigMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	if globalConfig == nil {
		globalConfig = New()
	}
	return globalConfig
}

// EnsureLogDir creates the directory for the configured log file.
func EnsureLogDir() error {
	cfg := GetGlobalConfig()
	if cfg.Logging.File == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o750)
}
