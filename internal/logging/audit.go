package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Audit entry outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditEntry is one line of the command history trail.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Command    string            `json:"command"`
	TraceID    string            `json:"trace_id"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Outcome    string            `json:"outcome"`
	Completed  int               `json:"completed,omitempty"`
	Failed     int               `json:"failed,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

// NewAuditEntry starts an audit entry for command under the given trace
// ID. Chain With* calls to fill in the outcome before logging.
func NewAuditEntry(command, traceID string) *AuditEntry {
	return &AuditEntry{
		Timestamp: time.Now().UTC(),
		Command:   command,
		TraceID:   traceID,
	}
}

// WithParameters attaches the command parameters.
func (e *AuditEntry) WithParameters(params map[string]string) *AuditEntry {
	e.Parameters = params
	return e
}

// WithResults marks the entry successful and records per-file outcome
// counts.
func (e *AuditEntry) WithResults(completed, failed int) *AuditEntry {
	e.Outcome = OutcomeSuccess
	e.Completed = completed
	e.Failed = failed
	return e
}

// WithError marks the entry failed.
func (e *AuditEntry) WithError(msg string) *AuditEntry {
	e.Outcome = OutcomeFailure
	e.Error = msg
	return e
}

// WithDuration records elapsed time since start.
func (e *AuditEntry) WithDuration(start time.Time) *AuditEntry {
	e.DurationMS = time.Since(start).Milliseconds()
	return e
}

// AuditLogger appends audit entries to a durable sink. Implementations
// must be safe for concurrent use.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditEntry)
	Close() error
}

// AuditLoggerConfig controls audit logger construction.
type AuditLoggerConfig struct {
	Enabled bool
	File    string
}

// NewAuditLogger returns a JSONL file-backed audit logger. When auditing
// is disabled or the file cannot be opened, a no-op logger is returned;
// audit setup problems never block the command itself.
func NewAuditLogger(cfg AuditLoggerConfig) AuditLogger {
	if !cfg.Enabled || cfg.File == "" {
		return nopAuditLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
		return nopAuditLogger{}
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nopAuditLogger{}
	}
	return &fileAuditLogger{file: file}
}

type fileAuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// Log appends entry as one JSON line. Write failures are logged at warn
// level and never propagate.
func (l *fileAuditLogger) Log(ctx context.Context, entry AuditEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		FromContext(ctx).Warn().Ctx(ctx).Err(err).Msg("audit entry not serializable")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		FromContext(ctx).Warn().Ctx(ctx).Err(err).Msg("audit entry not written")
	}
}

func (l *fileAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

type nopAuditLogger struct{}

func (nopAuditLogger) Log(context.Context, AuditEntry) {}
func (nopAuditLogger) Close() error                    { return nil }

// ContextWithAuditLogger stores logger in ctx.
func ContextWithAuditLogger(ctx context.Context, logger AuditLogger) context.Context {
	return context.WithValue(ctx, auditLoggerKey, logger)
}

// AuditLoggerFromContext returns the audit logger carried by ctx, or a
// no-op logger when none is present.
func AuditLoggerFromContext(ctx context.Context) AuditLogger {
	if l, ok := ctx.Value(auditLoggerKey).(AuditLogger); ok {
		return l
	}
	return nopAuditLogger{}
}
