package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/heat"
)

type simState int

const (
	simRunning simState = iota
	simConverged
	simCapped
	simFailed
	simCancelled
)

type simRow struct {
	config  heat.SimulationConfig
	percent float64
	state   simState
	result  *heat.SolveResult
	reason  string
}

// SimulationsModel shows one progress bar per simulation of the batch.
type SimulationsModel struct {
	rows   []simRow
	bar    progress.Model
	width  int
	height int
}

// NewSimulationsModel creates the panel for the given batch.
func NewSimulationsModel(configs []heat.SimulationConfig) SimulationsModel {
	rows := make([]simRow, len(configs))
	for i, c := range configs {
		rows[i] = simRow{config: c}
	}
	return SimulationsModel{
		rows: rows,
		bar:  progress.New(progress.WithGradient(barCold, barHot), progress.WithoutPercentage()),
	}
}

// SetSize updates the outer dimensions.
func (m *SimulationsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.bar.Width = max(w-50, 10)
}

// Reset clears the progress of every row.
func (m *SimulationsModel) Reset() {
	for i := range m.rows {
		m.rows[i] = simRow{config: m.rows[i].config}
	}
}

// UpdateProgress applies a batch of percentages. Values never move backwards.
func (m *SimulationsModel) UpdateProgress(percent []float64) {
	for i, p := range percent {
		if i < len(m.rows) && p > m.rows[i].percent {
			m.rows[i].percent = p
		}
	}
}

// SetResult marks simulation i as terminated with res.
func (m *SimulationsModel) SetResult(i int, res heat.SolveResult) {
	if i < 0 || i >= len(m.rows) {
		return
	}
	m.rows[i].percent = 100
	m.rows[i].result = &res
	m.rows[i].state = simCapped
	if res.Converged {
		m.rows[i].state = simConverged
	}
}

// SetFailed marks simulation i as failed.
func (m *SimulationsModel) SetFailed(i int, reason string) {
	if i < 0 || i >= len(m.rows) {
		return
	}
	m.rows[i].state = simFailed
	m.rows[i].reason = reason
}

// MarkCancelled flags every still running simulation as cancelled.
func (m *SimulationsModel) MarkCancelled() {
	for i := range m.rows {
		if m.rows[i].state == simRunning {
			m.rows[i].state = simCancelled
		}
	}
}

// Result returns the result of simulation i, if any.
func (m SimulationsModel) Result(i int) (heat.SolveResult, bool) {
	if i < 0 || i >= len(m.rows) || m.rows[i].result == nil {
		return heat.SolveResult{}, false
	}
	return *m.rows[i].result, true
}

// Len returns the number of simulations.
func (m SimulationsModel) Len() int { return len(m.rows) }

// View renders the panel.
func (m SimulationsModel) View() string {
	var b strings.Builder
	for i, r := range m.rows {
		if i > 0 {
			b.WriteString("\n")
		}
		label := logSimStyle.Render(fmt.Sprintf(" #%d f=%.3f N=%-3d", i, r.config.HotFraction, r.config.GridSize))
		fmt.Fprintf(&b, "%s %s %s %s", label, m.bar.ViewAs(r.percent/100), format.FormatPercent(r.percent), r.status())
	}
	return panel("Simulations", b.String(), m.width, m.height)
}

func (r simRow) status() string {
	switch r.state {
	case simConverged:
		return logSuccessStyle.Render(fmt.Sprintf("converged @%d", r.result.FinalIteration))
	case simCapped:
		return logWarningStyle.Render(fmt.Sprintf("capped @%d", r.result.FinalIteration))
	case simFailed:
		return logErrorStyle.Render("failed")
	case simCancelled:
		return logWarningStyle.Render("cancelled")
	}
	return dimStyle.Render("running")
}
