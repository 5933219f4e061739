package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// FooterModel renders the key hints and the run status.
type FooterModel struct {
	help      help.Model
	keys      KeyMap
	paused    bool
	done      bool
	cancelled bool
	hasError  bool
	width     int
}

// NewFooterModel creates a footer for keys.
func NewFooterModel(keys KeyMap) FooterModel {
	return FooterModel{help: help.New(), keys: keys}
}

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) {
	f.width = w
	f.help.Width = w
}

func (f *FooterModel) SetPaused(p bool)    { f.paused = p }
func (f *FooterModel) SetDone(d bool)      { f.done = d }
func (f *FooterModel) SetCancelled(c bool) { f.cancelled = c }
func (f *FooterModel) SetError(e bool)     { f.hasError = e }

// Status returns the plain status label.
func (f FooterModel) Status() string {
	switch {
	case f.hasError:
		return "ERROR"
	case f.cancelled:
		return "CANCELLED"
	case f.done:
		return "DONE"
	case f.paused:
		return "PAUSED"
	}
	return "RUNNING"
}

// View renders the footer.
func (f FooterModel) View() string {
	var status string
	switch s := f.Status(); s {
	case "ERROR":
		status = statusErrorStyle.Render(s)
	case "CANCELLED", "PAUSED":
		status = statusPausedStyle.Render(s)
	case "DONE":
		status = statusDoneStyle.Render(s)
	default:
		status = statusRunningStyle.Render(s)
	}
	hints := f.help.ShortHelpView(f.keys.ShortHelp())
	gap := max(f.width-lipgloss.Width(hints)-lipgloss.Width(status)-1, 1)
	return hints + spaces(gap) + status
}
