package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemill/filemill/internal/analyze"
)

// faultFs wraps a filesystem and fails Open for selected paths, standing
// in for permission-denied files.
type faultFs struct {
	afero.Fs
	unreadable map[string]bool
}

func (f *faultFs) Open(name string) (afero.File, error) {
	if f.unreadable[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func newTestEngine(t *testing.T, fs afero.Fs, opts Options) *Engine {
	t.Helper()
	eng, err := New(fs, analyze.NewLines(0), opts)
	require.NoError(t, err)
	return eng
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		analyzer analyze.Analyzer
		opts     Options
		wantErr  error
	}{
		{name: "defaults", analyzer: analyze.NewLines(0), opts: Options{}},
		{name: "nil analyzer", analyzer: nil, opts: Options{}, wantErr: ErrNilAnalyzer},
		{name: "bad workers", analyzer: analyze.NewLines(0), opts: Options{Workers: -1}, wantErr: ErrInvalidWorkers},
		{name: "bad glob", analyzer: analyze.NewLines(0), opts: Options{Include: []string{"[a-"}}, wantErr: ErrInvalidGlob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(afero.NewMemMapFs(), tt.analyzer, tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRunMissingRootIsSystemic(t *testing.T) {
	eng := newTestEngine(t, afero.NewMemMapFs(), Options{})

	_, err := eng.Run(context.Background(), "/nowhere")
	require.ErrorIs(t, err, ErrRootMissing)
}

func TestRunRootIsFileIsSystemic(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data", "not a directory\n")
	eng := newTestEngine(t, fs, Options{})

	_, err := eng.Run(context.Background(), "/data")
	require.ErrorIs(t, err, ErrRootNotDir)
}

func TestRunOneResultPerFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	const n = 100
	for i := 0; i < n; i++ {
		writeFile(t, fs, fmt.Sprintf("/data/file-%03d.log", i), strings.Repeat("line\n", i))
	}
	eng := newTestEngine(t, fs, Options{Workers: 4, Include: []string{"*.log"}})

	outcome, err := eng.Run(context.Background(), "/data")
	require.NoError(t, err)

	require.Len(t, outcome.Results, n)
	seen := make(map[string]bool, n)
	for _, res := range outcome.Results {
		assert.False(t, seen[res.Path], "duplicate result for %s", res.Path)
		seen[res.Path] = true
		assert.True(t, res.OK())
	}
	assert.Equal(t, n, outcome.Summary.Discovered)
	assert.Equal(t, n, outcome.Summary.Completed)
	assert.Equal(t, n, outcome.Summary.Succeeded)
	assert.Zero(t, outcome.Summary.Failed)
	assert.False(t, outcome.Summary.Interrupted)
}

func TestRunUnreadableFileDoesNotAbortBatch(t *testing.T) {
	mem := afero.NewMemMapFs()
	const readable = 20
	for i := 0; i < readable; i++ {
		writeFile(t, mem, fmt.Sprintf("/data/ok-%02d.log", i), "one\ntwo\n")
	}
	writeFile(t, mem, "/data/bad.log", "unreachable\n")
	fs := &faultFs{Fs: mem, unreadable: map[string]bool{"/data/bad.log": true}}

	eng := newTestEngine(t, fs, Options{Workers: 3})
	outcome, err := eng.Run(context.Background(), "/data")
	require.NoError(t, err)

	assert.Equal(t, readable, outcome.Summary.Succeeded)
	assert.Equal(t, 1, outcome.Summary.Failed)

	var failed *WorkResult
	for i := range outcome.Results {
		if !outcome.Results[i].OK() {
			failed = &outcome.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "bad.log", failed.Path)
	assert.Equal(t, KindOpen, failed.FailureKind)
	assert.Contains(t, failed.Error, "permission")
}

// Worker count must not change what gets produced, only when.
func TestRunWorkerCountEquivalence(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i := 0; i < 30; i++ {
		writeFile(t, fs, fmt.Sprintf("/data/f%02d.txt", i), strings.Repeat("x\n", i%7))
	}
	writeFile(t, fs, "/data/bad.txt", "x\n")
	faulty := &faultFs{Fs: fs, unreadable: map[string]bool{"/data/bad.txt": true}}

	collect := func(workers int) map[string]string {
		eng := newTestEngine(t, faulty, Options{Workers: workers})
		outcome, err := eng.Run(context.Background(), "/data")
		require.NoError(t, err)
		got := make(map[string]string, len(outcome.Results))
		for _, res := range outcome.Results {
			got[res.Path] = res.Status
		}
		return got
	}

	assert.Equal(t, collect(1), collect(8))
}

func TestRunExampleBatch(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFile(t, mem, "/logs/a.log", strings.Repeat("entry\n", 10))
	writeFile(t, mem, "/logs/b.log", "never read\n")
	writeFile(t, mem, "/logs/c.log", "")
	fs := &faultFs{Fs: mem, unreadable: map[string]bool{"/logs/b.log": true}}

	eng := newTestEngine(t, fs, Options{Workers: 2, Include: []string{"*.log"}})
	outcome, err := eng.Run(context.Background(), "/logs")
	require.NoError(t, err)
	require.Len(t, outcome.Results, 3)

	byPath := make(map[string]WorkResult, 3)
	for _, res := range outcome.Results {
		byPath[res.Path] = res
	}
	assert.True(t, byPath["a.log"].OK())
	assert.Equal(t, int64(10), byPath["a.log"].Metrics[analyze.MetricLines])
	assert.False(t, byPath["b.log"].OK())
	assert.True(t, byPath["c.log"].OK())
	assert.Equal(t, int64(0), byPath["c.log"].Metrics[analyze.MetricLines])
}

func TestRunCancellationYieldsPartialConsistentResults(t *testing.T) {
	fs := afero.NewMemMapFs()
	const n = 200
	for i := 0; i < n; i++ {
		writeFile(t, fs, fmt.Sprintf("/data/f%03d.log", i), "a\nb\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	obs := &cancellingObserver{cancel: cancel, after: 5}
	eng := newTestEngine(t, fs, Options{Workers: 2, QueueDepth: 4}).WithObserver(obs)

	outcome, err := eng.Run(ctx, "/data")
	require.NoError(t, err)

	assert.True(t, outcome.Summary.Interrupted)
	assert.Less(t, len(outcome.Results), n)
	// Every emitted result is complete and well-formed.
	for _, res := range outcome.Results {
		assert.NotEmpty(t, res.Path)
		assert.Equal(t, StatusOK, res.Status)
		assert.Equal(t, int64(2), res.Metrics[analyze.MetricLines])
	}
	assert.Equal(t, len(outcome.Results), outcome.Summary.Completed)
}

// cancellingObserver cancels the run after a fixed number of results.
type cancellingObserver struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	after  int
	seen   int
}

func (o *cancellingObserver) OnStart(string, int) {}
func (o *cancellingObserver) OnWalkDone(int)      {}
func (o *cancellingObserver) OnFinish(Summary)    {}
func (o *cancellingObserver) OnResult(WorkResult, Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen++
	if o.seen == o.after {
		o.cancel()
	}
}

func TestRunPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/keep.log", "one\n")
	eng := newTestEngine(t, fs, Options{Workers: 2})

	outcome, err := eng.RunPaths(context.Background(), "/data", []string{"keep.log", "gone.log"})
	require.NoError(t, err)
	require.Len(t, outcome.Results, 2)

	byPath := make(map[string]WorkResult, 2)
	for _, res := range outcome.Results {
		byPath[res.Path] = res
	}
	assert.True(t, byPath["keep.log"].OK())
	assert.False(t, byPath["gone.log"].OK())
	assert.Equal(t, KindOpen, byPath["gone.log"].FailureKind)
}

func TestProcessFileClassification(t *testing.T) {
	assert.Equal(t, KindRead, classifyFailure(&os.PathError{Op: "read", Path: "x", Err: errors.New("io")}))
	assert.Equal(t, KindAnalyze, classifyFailure(errors.New("malformed document")))
}

func TestObserverEventOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/data/a.log", "x\n")
	writeFile(t, fs, "/data/b.log", "y\n")

	obs := &recordingObserver{}
	eng := newTestEngine(t, fs, Options{Workers: 1}).WithObserver(obs)
	_, err := eng.Run(context.Background(), "/data")
	require.NoError(t, err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.starts)
	assert.Equal(t, 2, obs.walkTotal)
	assert.Equal(t, 2, obs.results)
	require.NotNil(t, obs.finish)
	assert.Equal(t, 2, obs.finish.Succeeded)
}

type recordingObserver struct {
	mu        sync.Mutex
	starts    int
	walkTotal int
	results   int
	finish    *Summary
}

func (o *recordingObserver) OnStart(string, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts++
}

func (o *recordingObserver) OnWalkDone(discovered int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.walkTotal = discovered
}

func (o *recordingObserver) OnResult(WorkResult, Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results++
}

func (o *recordingObserver) OnFinish(sum Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finish = &sum
}

func TestResultsOrderIndependentOfSort(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/d/c.log", "/d/a.log", "/d/b.log"} {
		writeFile(t, fs, name, "x\n")
	}
	eng := newTestEngine(t, fs, Options{Workers: 3})
	outcome, err := eng.Run(context.Background(), "/d")
	require.NoError(t, err)

	paths := make([]string, 0, len(outcome.Results))
	for _, res := range outcome.Results {
		paths = append(paths, res.Path)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"a.log", "b.log", "c.log"}, paths)
}

func TestRunRecordsDuration(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/d/a.log", "x\n")
	eng := newTestEngine(t, fs, Options{})
	outcome, err := eng.Run(context.Background(), "/d")
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)
	assert.GreaterOrEqual(t, outcome.Results[0].Duration, time.Duration(0))
	assert.Positive(t, outcome.Summary.Elapsed)
}
