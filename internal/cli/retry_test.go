package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemill/filemill/internal/analyze"
	"github.com/filemill/filemill/internal/engine"
	"github.com/filemill/filemill/internal/report"
)

// writeReport persists a run report with the given results for retry
// tests.
func writeReport(t *testing.T, root, analyzer string, results []engine.WorkResult) string {
	t.Helper()

	sum := engine.Summary{Discovered: len(results), Completed: len(results)}
	for _, res := range results {
		if res.OK() {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
	}
	rep := report.New(root, analyzer, time.Now(), &engine.Outcome{Results: results, Summary: sum})

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, report.Write(path, rep))
	return path
}

func TestRetryCommand(t *testing.T) {
	setupTestConfig(t)
	dir := writeTree(t, map[string]string{
		"ok.txt":     "fine\n",
		"failed.txt": "now readable\ntwo lines\n",
	})

	t.Run("re-processes only failed paths", func(t *testing.T) {
		path := writeReport(t, dir, analyze.NameLines, []engine.WorkResult{
			{Path: "ok.txt", Status: engine.StatusOK},
			{Path: "failed.txt", Status: engine.StatusFailed, FailureKind: engine.KindOpen, Error: "permission denied"},
		})

		out, _, err := execute(t, NewRetryCmd(), path, "--progress", "off", "--output", "json")
		require.NoError(t, err)

		var outcome engine.Outcome
		require.NoError(t, json.Unmarshal([]byte(out), &outcome))
		require.Len(t, outcome.Results, 1)
		assert.Equal(t, "failed.txt", outcome.Results[0].Path)
		assert.True(t, outcome.Results[0].OK())
		assert.EqualValues(t, 2, outcome.Results[0].Metrics[analyze.MetricLines])
	})

	t.Run("still-missing file fails again", func(t *testing.T) {
		path := writeReport(t, dir, analyze.NameLines, []engine.WorkResult{
			{Path: "gone.txt", Status: engine.StatusFailed, FailureKind: engine.KindOpen, Error: "no such file"},
		})

		out, _, err := execute(t, NewRetryCmd(), path, "--progress", "off", "--output", "json")
		require.NoError(t, err)

		var outcome engine.Outcome
		require.NoError(t, json.Unmarshal([]byte(out), &outcome))
		require.Len(t, outcome.Results, 1)
		assert.Equal(t, engine.KindOpen, outcome.Results[0].FailureKind)
	})

	t.Run("nothing to retry", func(t *testing.T) {
		path := writeReport(t, dir, analyze.NameLines, []engine.WorkResult{
			{Path: "ok.txt", Status: engine.StatusOK},
		})

		out, _, err := execute(t, NewRetryCmd(), path, "--progress", "off")
		require.NoError(t, err)
		assert.Contains(t, out, "No failed files to retry.")
	})

	t.Run("missing report is systemic", func(t *testing.T) {
		_, _, err := execute(t, NewRetryCmd(),
			filepath.Join(t.TempDir(), "absent.json"), "--progress", "off")
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("incompatible report schema is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "old.json")
		require.NoError(t, os.WriteFile(path,
			[]byte(`{"schema_version":"99.0.0","root":"/tmp","analyzer":"lines"}`), 0o600))

		_, _, err := execute(t, NewRetryCmd(), path, "--progress", "off")
		require.Error(t, err)
		assert.ErrorIs(t, err, report.ErrIncompatibleSchema)
	})

	t.Run("match analyzer needs the pattern again", func(t *testing.T) {
		path := writeReport(t, dir, analyze.NameMatch, []engine.WorkResult{
			{Path: "failed.txt", Status: engine.StatusFailed, FailureKind: engine.KindRead, Error: "read error"},
		})

		_, _, err := execute(t, NewRetryCmd(), path, "--progress", "off")
		require.Error(t, err)
		assert.ErrorIs(t, err, analyze.ErrPatternRequired)
	})
}
