package analyze

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// checksumAnalyzer streams a SHA-256 digest using a fixed-size buffer.
type checksumAnalyzer struct {
	chunkSize int
}

// NewChecksum returns the SHA-256 analyzer. chunkSize <= 0 selects the
// default 8 KiB buffer.
func NewChecksum(chunkSize int) Analyzer {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &checksumAnalyzer{chunkSize: chunkSize}
}

func (*checksumAnalyzer) Name() string { return NameChecksum }

// Analyze hashes the stream chunk by chunk and emits the hex digest as
// the sha256 annotation. Cancellation is honored between chunks.
func (a *checksumAnalyzer) Analyze(ctx context.Context, r io.Reader) (Result, error) {
	h := sha256.New()
	buf := make([]byte, a.chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			// sha256 writes never fail.
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, err
		}
	}

	return Result{
		Annotations: map[string]string{AnnotationSHA256: hex.EncodeToString(h.Sum(nil))},
	}, nil
}
