// Package report persists run outcomes so a later `filemill retry` can
// re-process only the failures. Reports are JSON files written
// atomically and gated by a semver schema version on load.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/oklog/ulid/v2"

	"github.com/filemill/filemill/internal/engine"
)

// SchemaVersion is stamped into every written report. Loads accept any
// report whose major version matches.
const SchemaVersion = "1.0.0"

// Load errors. Corrupt or incompatible reports are systemic: retry
// aborts rather than guessing at the file's meaning.
var (
	ErrIncompatibleSchema = errors.New("report schema version is not compatible")
	ErrCorruptReport      = errors.New("report file is not valid JSON")
)

// Report is one persisted run: identity, the configuration that shaped
// it, and every WorkResult.
type Report struct {
	SchemaVersion string              `json:"schema_version"`
	RunID         string              `json:"run_id"`
	Root          string              `json:"root"`
	Analyzer      string              `json:"analyzer"`
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    time.Time           `json:"finished_at"`
	Summary       engine.Summary      `json:"summary"`
	Results       []engine.WorkResult `json:"results"`
}

// New assembles a report for a finished run.
func New(root, analyzer string, startedAt time.Time, outcome *engine.Outcome) *Report {
	return &Report{
		SchemaVersion: SchemaVersion,
		RunID:         ulid.Make().String(),
		Root:          root,
		Analyzer:      analyzer,
		StartedAt:     startedAt.UTC(),
		FinishedAt:    time.Now().UTC(),
		Summary:       outcome.Summary,
		Results:       outcome.Results,
	}
}

// FailedPaths returns the root-relative paths of every failed result, in
// report order.
func (r *Report) FailedPaths() []string {
	var paths []string
	for _, res := range r.Results {
		if !res.OK() {
			paths = append(paths, res.Path)
		}
	}
	return paths
}

// Write persists the report to path. The file is written to a temp name
// in the same directory and renamed into place, so readers never observe
// a half-written report.
func Write(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp report file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp report file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting report permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming report into place: %w", err)
	}
	return nil
}

// Load reads and validates a report. Reports written by a different
// major schema version are rejected with ErrIncompatibleSchema.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptReport, path, err)
	}

	if err := checkSchema(r.SchemaVersion); err != nil {
		return nil, err
	}
	return &r, nil
}

func checkSchema(version string) error {
	if version == "" {
		return fmt.Errorf("%w: report has no schema version", ErrIncompatibleSchema)
	}
	fileVer, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: unparsable version %q", ErrIncompatibleSchema, version)
	}
	currentVer := semver.MustParse(SchemaVersion)
	if fileVer.Major() != currentVer.Major() {
		return fmt.Errorf("%w: report is v%s, this build reads v%d.x",
			ErrIncompatibleSchema, version, currentVer.Major())
	}
	return nil
}
