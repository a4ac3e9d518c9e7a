// Package tui renders live batch progress with bubbletea. The model is
// event-driven: the engine observer forwards run events as messages and
// never touches the terminal itself.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/filemill/filemill/internal/engine"
)

// Layout constants.
const (
	progressBarWidth  = 30
	maxPathDisplayLen = 48
	truncateSuffix    = "..."
)

// Styles for the progress line.
//
//nolint:gochecknoglobals // Shared immutable style definitions.
var (
	countStyle  = lipgloss.NewStyle().Bold(true)
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// Messages forwarded from the engine observer.
type (
	// StartMsg announces the run configuration.
	StartMsg struct {
		Root    string
		Workers int
	}
	// WalkDoneMsg carries the final discovered count.
	WalkDoneMsg struct{ Discovered int }
	// ResultMsg carries one completed file and the updated counters.
	ResultMsg struct {
		Result   engine.WorkResult
		Snapshot engine.Snapshot
	}
	// FinishMsg ends the program.
	FinishMsg struct{ Summary engine.Summary }
)

// ProgressModel is the live progress display for a batch run.
type ProgressModel struct {
	spinner  spinner.Model
	bar      progress.Model
	cancel   context.CancelFunc
	root     string
	workers  int
	snap     engine.Snapshot
	lastPath string
	walkDone bool
	finished bool
}

// NewProgressModel builds the progress display. cancel is invoked when
// the user presses q or ctrl+c; the run then winds down cooperatively
// and the model quits on the engine's FinishMsg.
func NewProgressModel(cancel context.CancelFunc) *ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return &ProgressModel{
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressBarWidth)),
		cancel:  cancel,
	}
}

// Init implements tea.Model.
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case StartMsg:
		m.root = msg.Root
		m.workers = msg.Workers
		return m, nil

	case WalkDoneMsg:
		m.walkDone = true
		m.snap.Discovered = msg.Discovered
		return m, nil

	case ResultMsg:
		m.snap = msg.Snapshot
		m.lastPath = msg.Result.Path
		return m, nil

	case FinishMsg:
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *ProgressModel) View() string {
	if m.finished {
		// The final summary is rendered on stdout by the caller.
		return ""
	}

	counts := fmt.Sprintf("%s processed", countStyle.Render(fmt.Sprintf("%d", m.snap.Completed)))
	if m.walkDone {
		counts = fmt.Sprintf("%s of %s", countStyle.Render(fmt.Sprintf("%d", m.snap.Completed)),
			countStyle.Render(fmt.Sprintf("%d", m.snap.Discovered)))
	}

	status := okStyle.Render(fmt.Sprintf("%d ok", m.snap.Succeeded))
	if m.snap.Failed > 0 {
		status += " " + failedStyle.Render(fmt.Sprintf("%d failed", m.snap.Failed))
	}

	line := fmt.Sprintf("%s %s  %s  %s", m.spinner.View(), counts, m.bar.ViewAs(m.snap.PercentComplete()/100), status)
	if eta := m.snap.ETA; eta > 0 {
		line += pathStyle.Render(fmt.Sprintf("  eta %s", eta.Round(time.Second)))
	}
	if m.lastPath != "" {
		line += "\n  " + pathStyle.Render(truncatePath(m.lastPath))
	}
	return line + "\n"
}

// Finished reports whether the run completed; used after Run returns to
// distinguish quit-by-finish from an aborted program.
func (m *ProgressModel) Finished() bool { return m.finished }

func truncatePath(path string) string {
	if len(path) <= maxPathDisplayLen {
		return path
	}
	return truncateSuffix + path[len(path)-maxPathDisplayLen+len(truncateSuffix):]
}
