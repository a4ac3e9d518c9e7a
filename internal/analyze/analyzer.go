// Package analyze provides the per-file processors that filemill's
// worker pool runs against each discovered file. Analyzers stream their
// input; none of the built-in chunked analyzers holds more than one read
// buffer in memory at a time.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// Built-in analyzer names.
const (
	NameLines    = "lines"
	NameMatch    = "match"
	NameChecksum = "checksum"
	NameHTMLMeta = "htmlmeta"
)

// Metric and annotation keys emitted by the built-in analyzers.
const (
	MetricLines   = "lines"
	MetricMatches = "matches"
	MetricLinks   = "links"

	AnnotationSHA256 = "sha256"
	AnnotationTitle  = "title"
)

// Fallback tuning values used when Options fields are zero.
const (
	defaultChunkSize    = 8 * 1024
	defaultMaxLineBytes = 1 << 20
	defaultHTMLMaxBytes = 4 << 20
)

// Configuration errors surfaced before any work starts.
var (
	ErrUnknownAnalyzer = errors.New("unknown analyzer")
	ErrPatternRequired = errors.New("match analyzer requires a pattern")
)

// Result carries what an analyzer learned about one file.
type Result struct {
	Metrics     map[string]int64
	Annotations map[string]string
}

// Analyzer processes one file's content stream. Implementations must be
// safe for concurrent use: one Analyzer instance is shared by all
// workers in a pool.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, r io.Reader) (Result, error)
}

// Options carries per-run analyzer tuning. Zero values select defaults.
type Options struct {
	// ChunkSize is the read buffer size for the chunked analyzers.
	ChunkSize int
	// Pattern is the regular expression for the match analyzer.
	Pattern string
	// MaxLineBytes caps a single line for the match analyzer.
	MaxLineBytes int
	// HTMLMaxBytes caps document size for the htmlmeta analyzer.
	HTMLMaxBytes int64
}

// New builds the named analyzer. Unknown names, missing patterns, and
// invalid patterns are configuration errors; they abort the run before
// any file is processed.
func New(name string, opts Options) (Analyzer, error) {
	switch name {
	case NameLines:
		return NewLines(opts.ChunkSize), nil
	case NameMatch:
		if opts.Pattern == "" {
			return nil, ErrPatternRequired
		}
		re, err := regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling match pattern: %w", err)
		}
		return NewMatch(re, opts.MaxLineBytes), nil
	case NameChecksum:
		return NewChecksum(opts.ChunkSize), nil
	case NameHTMLMeta:
		return NewHTMLMeta(opts.HTMLMaxBytes), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, name)
	}
}

// Info describes one analyzer for listings.
type Info struct {
	Name    string
	Summary string
}

// All returns the built-in analyzers in display order.
func All() []Info {
	return []Info{
		{Name: NameLines, Summary: "count lines using fixed-size chunk reads"},
		{Name: NameMatch, Summary: "count lines matching a regular expression"},
		{Name: NameChecksum, Summary: "stream a SHA-256 digest of each file"},
		{Name: NameHTMLMeta, Summary: "extract the title and link count from HTML"},
	}
}
