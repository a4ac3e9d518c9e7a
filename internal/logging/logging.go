// Package logging provides filemill's zerolog setup: console or JSON
// output, optional file logging with stderr fallback, context-carried
// trace IDs, and the JSONL audit trail.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Format and output selector values accepted by Config.
const (
	FormatConsole = "console"
	FormatJSON    = "json"

	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputFile   = "file"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name ("trace" through "error").
	// Unknown or empty values fall back to "info".
	Level string
	// Format is "console" for human-readable output or "json".
	// Files always receive JSON regardless of Format.
	Format string
	// Output is "stderr", "stdout", or "file".
	Output string
	// File is the log file path when Output is "file".
	File string
	// Caller adds file:line annotations to each event.
	Caller bool
}

// LogPathResult reports how the logger was wired. When file output was
// requested but the file could not be opened, the logger falls back to
// stderr and FallbackUsed records why.
type LogPathResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if one is open.
func (r *LogPathResult) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLogger builds a logger from cfg. File-open failures silently fall
// back to stderr; use NewLoggerWithPath when the caller needs to know.
func NewLogger(cfg Config) zerolog.Logger {
	return NewLoggerWithPath(cfg).Logger
}

// NewLoggerWithPath builds a logger from cfg and reports whether file
// output took effect. Every logger carries the trace ID hook, so events
// logged with .Ctx(ctx) pick up the trace ID stored in that context.
func NewLoggerWithPath(cfg Config) LogPathResult {
	result := LogPathResult{}

	var out io.Writer
	switch cfg.Output {
	case OutputFile:
		file, err := openLogFile(cfg.File)
		if err != nil {
			result.FallbackUsed = true
			result.FallbackReason = err.Error()
			out = formatWriter(cfg.Format, os.Stderr)
		} else {
			result.UsingFile = true
			result.FilePath = cfg.File
			result.file = file
			out = file
		}
	case OutputStdout:
		out = formatWriter(cfg.Format, os.Stdout)
	default:
		out = formatWriter(cfg.Format, os.Stderr)
	}

	logCtx := zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}
	result.Logger = logCtx.Logger().Hook(TraceHook{})
	return result
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx via Logger.WithContext,
// or a disabled logger when none is present.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// PrintLogPathMessage tells the user where log output is going.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning warns that file logging was requested but could
// not be set up.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: file logging unavailable (%s), logging to stderr\n", reason)
}

func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func formatWriter(format string, term *os.File) io.Writer {
	if format == FormatJSON {
		return term
	}
	return zerolog.ConsoleWriter{Out: term, TimeFormat: time.RFC3339}
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no log file configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
}
