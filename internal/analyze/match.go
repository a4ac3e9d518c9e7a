package analyze

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
)

// matchAnalyzer counts lines matched by a regular expression.
type matchAnalyzer struct {
	re           *regexp.Regexp
	maxLineBytes int
}

// NewMatch returns an analyzer counting lines matched by re. Lines
// longer than maxLineBytes fail that file rather than growing the scan
// buffer without bound; maxLineBytes <= 0 selects the default 1 MiB.
func NewMatch(re *regexp.Regexp, maxLineBytes int) Analyzer {
	if maxLineBytes <= 0 {
		maxLineBytes = defaultMaxLineBytes
	}
	return &matchAnalyzer{re: re, maxLineBytes: maxLineBytes}
}

func (*matchAnalyzer) Name() string { return NameMatch }

// Analyze scans line by line, emitting total line and match counts.
// Cancellation is honored between lines.
func (a *matchAnalyzer) Analyze(ctx context.Context, r io.Reader) (Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(defaultChunkSize, a.maxLineBytes)), a.maxLineBytes)

	var lines, matches int64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		lines++
		if a.re.Match(scanner.Bytes()) {
			matches++
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Result{}, fmt.Errorf("line exceeds %d bytes: %w", a.maxLineBytes, err)
		}
		return Result{}, err
	}

	return Result{Metrics: map[string]int64{
		MetricLines:   lines,
		MetricMatches: matches,
	}}, nil
}
