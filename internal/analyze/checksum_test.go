package analyze

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "known digest",
			input: "hello world",
			want:  "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:  "empty input",
			input: "",
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	a := NewChecksum(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Analyze(context.Background(), strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Annotations[AnnotationSHA256])
		})
	}
}

// The digest must be independent of how reads are chunked.
func TestChecksumChunkIndependent(t *testing.T) {
	input := strings.Repeat("filemill", 4096)

	small, err := NewChecksum(16).Analyze(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	large, err := NewChecksum(1 << 16).Analyze(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, small.Annotations[AnnotationSHA256], large.Annotations[AnnotationSHA256])
}

func TestChecksumCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChecksum(0).Analyze(ctx, strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}
