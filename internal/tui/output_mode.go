package tui

import (
	"os"

	"golang.org/x/term"
)

// Progress mode names shared with config and CLI flags.
const (
	ModeAuto  = "auto"
	ModePlain = "plain"
	ModeTUI   = "tui"
	ModeOff   = "off"
)

// ResolveProgressMode maps the configured progress mode to a concrete
// one. Auto selects the TUI when stderr is a terminal and silence
// otherwise, keeping piped and CI runs clean; explicit modes are passed
// through.
func ResolveProgressMode(mode string, stderr *os.File) string {
	if mode != ModeAuto {
		return mode
	}
	if stderr != nil && term.IsTerminal(int(stderr.Fd())) {
		return ModeTUI
	}
	return ModeOff
}
