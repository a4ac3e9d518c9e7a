package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		analyzer string
		opts     Options
		wantErr  error
	}{
		{name: "lines", analyzer: NameLines},
		{name: "checksum", analyzer: NameChecksum},
		{name: "htmlmeta", analyzer: NameHTMLMeta},
		{name: "match with pattern", analyzer: NameMatch, opts: Options{Pattern: "ERROR"}},
		{name: "match without pattern", analyzer: NameMatch, wantErr: ErrPatternRequired},
		{name: "unknown analyzer", analyzer: "entropy", wantErr: ErrUnknownAnalyzer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.analyzer, tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.analyzer, a.Name())
		})
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(NameMatch, Options{Pattern: "("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling match pattern")
}

func TestAll(t *testing.T) {
	infos := All()
	require.Len(t, infos, 4)

	names := make(map[string]bool, len(infos))
	for _, info := range infos {
		assert.NotEmpty(t, info.Summary)
		names[info.Name] = true
	}
	for _, want := range []string{NameLines, NameMatch, NameChecksum, NameHTMLMeta} {
		assert.True(t, names[want], "missing analyzer %s", want)
	}
}
