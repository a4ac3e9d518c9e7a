package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/filemill/filemill/internal/config"
	"github.com/filemill/filemill/internal/engine"
)

// annotationDisplayMax caps annotation values in the table so checksum
// digests don't blow up the DETAIL column.
const annotationDisplayMax = 20

var (
	summaryBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	summaryTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	failedCountStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// renderOutcome writes the batch outcome to w in the requested format.
func renderOutcome(w io.Writer, format, sortBy string, outcome *engine.Outcome) error {
	switch format {
	case config.FormatJSON:
		return renderJSON(w, sortBy, outcome)
	case config.FormatNDJSON:
		return renderNDJSON(w, sortBy, outcome)
	default:
		return renderTable(w, sortBy, outcome)
	}
}

func renderJSON(w io.Writer, sortBy string, outcome *engine.Outcome) error {
	sorted := engine.Outcome{
		Results: sortedResults(outcome.Results, sortBy),
		Summary: outcome.Summary,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sorted)
}

// renderNDJSON emits one JSON object per result line, then the summary.
// Suited for piping into jq or a log collector.
func renderNDJSON(w io.Writer, sortBy string, outcome *engine.Outcome) error {
	enc := json.NewEncoder(w)
	for _, res := range sortedResults(outcome.Results, sortBy) {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return enc.Encode(outcome.Summary)
}

func renderTable(w io.Writer, sortBy string, outcome *engine.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tSTATUS\tDETAIL\tDURATION")
	for _, res := range sortedResults(outcome.Results, sortBy) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			res.Path, res.Status, detailColumn(res), res.Duration.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, renderSummaryBox(outcome.Summary))
	return nil
}

// detailColumn condenses a result into one table cell: metrics and
// annotations for successes, the failure kind and error for failures.
func detailColumn(res engine.WorkResult) string {
	if !res.OK() {
		return fmt.Sprintf("%s: %s", res.FailureKind, res.Error)
	}

	parts := make([]string, 0, len(res.Metrics)+len(res.Annotations))
	for _, k := range sortedKeys(res.Metrics) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, res.Metrics[k]))
	}
	for _, k := range sortedKeys(res.Annotations) {
		v := res.Annotations[k]
		if len(v) > annotationDisplayMax {
			v = v[:annotationDisplayMax] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// renderSummaryBox formats the run summary in a bordered box with
// locale-aware thousands separators.
func renderSummaryBox(sum engine.Summary) string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("Batch Summary"))
	b.WriteString("\n\n")
	_, _ = p.Fprintf(&b, "Discovered:  %d files\n", sum.Discovered)
	_, _ = p.Fprintf(&b, "Completed:   %d files\n", sum.Completed)
	_, _ = p.Fprintf(&b, "Succeeded:   %d\n", sum.Succeeded)
	if sum.Failed > 0 {
		_, _ = fmt.Fprintf(&b, "Failed:      %s\n", failedCountStyle.Render(p.Sprintf("%d", sum.Failed)))
	} else {
		_, _ = p.Fprintf(&b, "Failed:      %d\n", sum.Failed)
	}
	if sum.WalkErrors > 0 {
		_, _ = p.Fprintf(&b, "Walk errors: %d\n", sum.WalkErrors)
	}
	_, _ = p.Fprintf(&b, "Bytes read:  %d\n", sum.BytesRead)
	_, _ = p.Fprintf(&b, "Elapsed:     %s", sum.Elapsed.Round(time.Millisecond))
	if sum.Interrupted {
		b.WriteString("\n")
		b.WriteString(failedCountStyle.Render("Interrupted before completion"))
	}

	return summaryBoxStyle.Render(b.String())
}

// sortedResults returns a sorted copy; the engine's completion order is
// nondeterministic, so every output format sorts before rendering.
func sortedResults(results []engine.WorkResult, sortBy string) []engine.WorkResult {
	out := make([]engine.WorkResult, len(results))
	copy(out, results)

	switch sortBy {
	case config.SortByDuration:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Duration != out[j].Duration {
				return out[i].Duration > out[j].Duration
			}
			return out[i].Path < out[j].Path
		})
	case config.SortByStatus:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].OK() != out[j].OK() {
				return !out[i].OK()
			}
			return out[i].Path < out[j].Path
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Path < out[j].Path
		})
	}
	return out
}
