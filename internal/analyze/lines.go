package analyze

import (
	"bytes"
	"context"
	"io"
)

// linesAnalyzer counts lines with a fixed-size read buffer, keeping peak
// memory constant regardless of file size.
type linesAnalyzer struct {
	chunkSize int
}

// NewLines returns the line-count analyzer. chunkSize <= 0 selects the
// default 8 KiB buffer.
func NewLines(chunkSize int) Analyzer {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &linesAnalyzer{chunkSize: chunkSize}
}

func (*linesAnalyzer) Name() string { return NameLines }

// Analyze counts newline bytes chunk by chunk. A non-empty file whose
// last byte is not a newline still counts its final line; an empty file
// has zero lines. Cancellation is honored between chunks.
func (a *linesAnalyzer) Analyze(ctx context.Context, r io.Reader) (Result, error) {
	buf := make([]byte, a.chunkSize)
	var lines, total int64
	last := byte('\n')

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			total += int64(n)
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, err
		}
	}

	if total > 0 && last != '\n' {
		lines++
	}
	return Result{Metrics: map[string]int64{MetricLines: lines}}, nil
}
