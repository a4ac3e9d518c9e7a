package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrHTMLTooLarge marks documents over the configured parse limit.
var ErrHTMLTooLarge = errors.New("html document exceeds size limit")

// htmlMetaAnalyzer extracts the document title and link count. Parsing
// builds a DOM, so input size is capped instead of chunked.
type htmlMetaAnalyzer struct {
	maxBytes int64
}

// NewHTMLMeta returns the HTML metadata analyzer. maxBytes <= 0 selects
// the default 4 MiB cap.
func NewHTMLMeta(maxBytes int64) Analyzer {
	if maxBytes <= 0 {
		maxBytes = defaultHTMLMaxBytes
	}
	return &htmlMetaAnalyzer{maxBytes: maxBytes}
}

func (*htmlMetaAnalyzer) Name() string { return NameHTMLMeta }

// Analyze parses the document and emits the links metric plus a title
// annotation when a non-empty <title> is present. Documents over the
// size cap fail that file.
func (a *htmlMetaAnalyzer) Analyze(ctx context.Context, r io.Reader) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	counted := &countingReader{r: r}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(counted, a.maxBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("parsing html: %w", err)
	}
	if counted.n > a.maxBytes {
		return Result{}, fmt.Errorf("%w: limit %d bytes", ErrHTMLTooLarge, a.maxBytes)
	}

	res := Result{
		Metrics: map[string]int64{MetricLinks: int64(doc.Find("a[href]").Length())},
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		res.Annotations = map[string]string{AnnotationTitle: title}
	}
	return res, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
