package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{name: "empty file", input: "", want: 0},
		{name: "single newline", input: "\n", want: 1},
		{name: "trailing newline", input: "a\nb\nc\n", want: 3},
		{name: "no trailing newline", input: "a\nb\nc", want: 3},
		{name: "ten lines", input: strings.Repeat("line\n", 10), want: 10},
		{name: "blank lines count", input: "\n\n\n", want: 3},
	}

	a := NewLines(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Analyze(context.Background(), strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Metrics[MetricLines])
		})
	}
}

// A tiny chunk size forces newline counting across many read calls; the
// result must not depend on where chunk boundaries fall.
func TestLinesChunkBoundaries(t *testing.T) {
	input := strings.Repeat("0123456789\n", 100)

	small, err := NewLines(7).Analyze(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	large, err := NewLines(64 * 1024).Analyze(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, int64(100), small.Metrics[MetricLines])
	assert.Equal(t, small.Metrics[MetricLines], large.Metrics[MetricLines])
}

func TestLinesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLines(0).Analyze(ctx, strings.NewReader("a\nb\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestLinesReadError(t *testing.T) {
	_, err := NewLines(0).Analyze(context.Background(), failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
}
