package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/filemill/filemill/internal/engine"
)

// ProgramObserver bridges engine events into a running bubbletea
// program. tea.Program.Send is safe for concurrent use, so this observer
// is too.
type ProgramObserver struct {
	program *tea.Program
}

// NewProgramObserver wraps program as an engine observer.
func NewProgramObserver(program *tea.Program) *ProgramObserver {
	return &ProgramObserver{program: program}
}

var _ engine.Observer = (*ProgramObserver)(nil)

func (o *ProgramObserver) OnStart(root string, workers int) {
	o.program.Send(StartMsg{Root: root, Workers: workers})
}

func (o *ProgramObserver) OnWalkDone(discovered int) {
	o.program.Send(WalkDoneMsg{Discovered: discovered})
}

func (o *ProgramObserver) OnResult(res engine.WorkResult, snap engine.Snapshot) {
	o.program.Send(ResultMsg{Result: res, Snapshot: snap})
}

func (o *ProgramObserver) OnFinish(sum engine.Summary) {
	o.program.Send(FinishMsg{Summary: sum})
}
