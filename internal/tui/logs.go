package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/heatsolve/internal/analysis"
	"github.com/agbru/heatsolve/internal/config"
	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/orchestration"
)

// maxLogLines bounds the scrollback of the log panel.
const maxLogLines = 500

// LogsModel is a scrollable log of run events.
type LogsModel struct {
	lines    []string
	viewport viewport.Model
	follow   bool
	width    int
	height   int
}

// NewLogsModel creates an empty log panel.
func NewLogsModel() LogsModel {
	return LogsModel{viewport: viewport.New(0, 0), follow: true}
}

// SetSize updates the outer dimensions.
func (l *LogsModel) SetSize(w, h int) {
	l.width = w
	l.height = h
	l.viewport.Width = max(w-2, 0)
	l.viewport.Height = max(h-3, 0)
	l.refresh()
}

// Reset clears the log.
func (l *LogsModel) Reset() {
	l.lines = nil
	l.follow = true
	l.refresh()
}

// Lines returns the raw log lines.
func (l LogsModel) Lines() []string { return l.lines }

func (l *LogsModel) add(line string) {
	stamp := logTimeStyle.Render(time.Now().Format("15:04:05"))
	l.lines = append(l.lines, stamp+" "+line)
	if len(l.lines) > maxLogLines {
		l.lines = l.lines[len(l.lines)-maxLogLines:]
	}
	l.refresh()
}

func (l *LogsModel) refresh() {
	l.viewport.SetContent(strings.Join(l.lines, "\n"))
	if l.follow {
		l.viewport.GotoBottom()
	}
}

// AddExecutionConfig logs the run parameters.
func (l *LogsModel) AddExecutionConfig(cfg config.AppConfig, configs []heat.SimulationConfig) {
	l.add(fmt.Sprintf("Starting %d simulation(s), timeout %s", len(configs), cfg.Timeout))
	for i, c := range configs {
		l.add(logSimStyle.Render(fmt.Sprintf("#%d", i)) +
			fmt.Sprintf(" f=%.3f N=%d tol=%g max=%d", c.HotFraction, c.GridSize, c.Tolerance, c.MaxIterations))
	}
}

// AddResult logs a terminated simulation.
func (l *LogsModel) AddResult(i int, res heat.SolveResult) {
	text := fmt.Sprintf("#%d converged after %d iterations (Δ=%s) in %s",
		i, res.FinalIteration, format.FormatDelta(res.FinalDelta), format.FormatExecutionDuration(res.Elapsed))
	if !res.Converged {
		l.add(logWarningStyle.Render(fmt.Sprintf("#%d hit the iteration cap at %d (Δ=%s)",
			i, res.FinalIteration, format.FormatDelta(res.FinalDelta))))
		return
	}
	l.add(logSuccessStyle.Render(text))
}

// AddFailure logs a failed simulation.
func (l *LogsModel) AddFailure(i int, reason string) {
	l.add(logErrorStyle.Render(fmt.Sprintf("#%d failed: %s", i, reason)))
}

// AddStreamEnd logs the terminal event.
func (l *LogsModel) AddStreamEnd(cancelled bool) {
	if cancelled {
		l.add(logWarningStyle.Render("Run cancelled"))
		return
	}
	l.add(statusDoneStyle.Render("Run complete"))
}

// AddOutcomes logs the final table in compact form.
func (l *LogsModel) AddOutcomes(outcomes []orchestration.SimulationOutcome) {
	ok := 0
	for _, o := range outcomes {
		if o.Succeeded() {
			ok++
		}
	}
	l.add(fmt.Sprintf("%d of %d simulation(s) produced a result", ok, len(outcomes)))
}

// AddSummary logs the hot-fraction analysis.
func (l *LogsModel) AddSummary(s analysis.Summary) {
	l.add(fmt.Sprintf("Iterations %.0f ± %.0f, fastest f=%.3f (%d), slowest f=%.3f (%d), r=%+.3f",
		s.MeanIterations, s.StdIterations, s.Fastest.Fraction, s.Fastest.Iterations,
		s.Slowest.Fraction, s.Slowest.Iterations, s.Correlation))
}

// AddError logs a run-level error.
func (l *LogsModel) AddError(msg ErrorMsg) {
	l.add(logErrorStyle.Render(fmt.Sprintf("Error: %v", msg.Err)))
}

// Update forwards scroll keys to the viewport. Scrolling up stops following
// new lines until the bottom is reached again.
func (l *LogsModel) Update(msg tea.Msg) {
	l.viewport, _ = l.viewport.Update(msg)
	l.follow = l.viewport.AtBottom()
}

// View renders the panel.
func (l LogsModel) View() string {
	return panel("Log", l.viewport.View(), l.width, l.height)
}
