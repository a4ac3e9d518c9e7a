package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemill/filemill/internal/config"
)

// newDefaultTarget returns a Config with known non-zero defaults so tests
// can verify that absent overlay keys leave the original values intact.
func newDefaultTarget() *config.Config {
	return &config.Config{
		Run: config.RunConfig{
			Workers:     4,
			QueueDepth:  128,
			ChunkSize:   8192,
			Analyzer:    "lines",
			Include:     []string{"*.log", "*.txt"},
			ExcludeDirs: []string{".git", "vendor"},
		},
		Output: config.OutputConfig{
			DefaultFormat: "table",
			Progress:      "auto",
			SortBy:        "path",
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// writeOverlay is a test helper that writes YAML content to a temp file
// and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
output:
  default_format: json
  progress: plain
  sort_by: duration
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	// Output should be replaced.
	assert.Equal(t, "json", target.Output.DefaultFormat)
	assert.Equal(t, "plain", target.Output.Progress)
	assert.Equal(t, "duration", target.Output.SortBy)

	// Other sections should be unchanged.
	assert.Equal(t, "info", target.Logging.Level)
	assert.Equal(t, 4, target.Run.Workers)
	assert.Equal(t, []string{"*.log", "*.txt"}, target.Run.Include)
}

func TestShallowMergeYAML_SectionFullyReplaced(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
run:
  workers: 8
  include: ["*.md"]
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, 8, target.Run.Workers)
	assert.Equal(t, []string{"*.md"}, target.Run.Include)
	// Fields the overlay omitted are zeroed because the whole section
	// is replaced.
	assert.Zero(t, target.Run.QueueDepth)
	assert.Empty(t, target.Run.ExcludeDirs)
}

func TestShallowMergeYAML_EmptyOverlayFile(t *testing.T) {
	target := newDefaultTarget()
	original := *target
	overlay := writeOverlay(t, "")

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, original.Output, target.Output)
	assert.Equal(t, original.Logging, target.Logging)
}

func TestShallowMergeYAML_CommentOnlyFile(t *testing.T) {
	target := newDefaultTarget()
	original := *target
	overlay := writeOverlay(t, "# this file is intentionally empty\n# just comments\n")

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, original.Output, target.Output)
	assert.Equal(t, original.Run, target.Run)
}

func TestShallowMergeYAML_CorruptedYAMLReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "{{{{not valid yaml at all")

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing overlay YAML")
}

func TestShallowMergeYAML_MissingFileReturnsError(t *testing.T) {
	target := newDefaultTarget()

	err := config.ShallowMergeYAML(target, "/nonexistent/path/overlay.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading overlay file")
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
logging:
  level: debug
  format: json
unknown_section:
  foo: bar
extra_key: 42
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, "debug", target.Logging.Level)
	assert.Equal(t, "json", target.Logging.Format)
	// Unknown keys are silently ignored and nothing else changes.
	assert.Equal(t, "table", target.Output.DefaultFormat)
}

func TestShallowMergeYAML_ZeroValueFieldsReplaceDefaults(t *testing.T) {
	target := newDefaultTarget()
	require.Equal(t, 128, target.Run.QueueDepth)

	overlay := writeOverlay(t, `
run:
  workers: 0
  queue_depth: 0
  chunk_size: 512
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Zero(t, target.Run.Workers)
	assert.Zero(t, target.Run.QueueDepth)
	assert.Equal(t, 512, target.Run.ChunkSize)
}

func TestShallowMergeYAML_AuditSection(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
logging:
  level: warn
  format: json
  audit:
    enabled: true
    file: /tmp/history.jsonl
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, "warn", target.Logging.Level)
	assert.True(t, target.Logging.Audit.Enabled)
	assert.Equal(t, "/tmp/history.jsonl", target.Logging.Audit.File)
}

func TestShallowMergeYAML_NilTarget(t *testing.T) {
	err := config.ShallowMergeYAML(nil, "/tmp/whatever.yaml")
	require.Error(t, err)
}
