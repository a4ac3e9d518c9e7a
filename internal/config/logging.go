package config

import (
	"github.com/filemill/filemill/internal/logging"
)

const outputTypeFile = "file"

// LoggingConfig is the logging section of the configuration file.
type LoggingConfig struct {
	Level  string      `yaml:"level"`
	Format string      `yaml:"format"`
	File   string      `yaml:"file"`
	Audit  AuditConfig `yaml:"audit"`
}

// AuditConfig controls the JSONL command history trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// ToLoggingConfig converts config.LoggingConfig to logging.Config for use
// with the internal/logging package.
//
// The conversion applies these rules:
//   - Level and Format are copied directly
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := "stderr"
	if lc.File != "" {
		output = outputTypeFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}

// ToAuditConfig converts the audit section to a logging.AuditLoggerConfig,
// defaulting the history file to ~/.filemill/history.jsonl when auditing
// is enabled without an explicit path.
func (lc *LoggingConfig) ToAuditConfig() logging.AuditLoggerConfig {
	file := lc.Audit.File
	if lc.Audit.Enabled && file == "" {
		file = DefaultHistoryPath()
	}
	return logging.AuditLoggerConfig{
		Enabled: lc.Audit.Enabled,
		File:    file,
	}
}

// GetLoggingConfig returns the Logging section of the global
// configuration. The returned value is a copy; environment-level
// overrides such as --debug are applied by the caller afterwards.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
