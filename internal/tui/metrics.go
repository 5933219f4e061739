package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/heatsolve/internal/analysis"
	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/metrics"
)

// MetricsModel displays runtime memory and convergence figures.
type MetricsModel struct {
	mem        MemStatsMsg
	gridBytes  uint64
	iterations int
	elapsed    float64
	decay      *analysis.Decay
	summary    *analysis.Summary
	width      int
	height     int
}

// NewMetricsModel creates the panel for a batch.
func NewMetricsModel(configs []heat.SimulationConfig) MetricsModel {
	var grid uint64
	for _, c := range configs {
		grid += metrics.GridBytes(c.GridSize)
	}
	return MetricsModel{gridBytes: grid}
}

// SetSize updates dimensions.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateMemStats updates memory statistics.
func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.mem = msg
}

// AddResult accumulates the throughput of a finished simulation and fits
// its residual decay.
func (m *MetricsModel) AddResult(res heat.SolveResult) {
	m.iterations += res.FinalIteration
	m.elapsed += res.Elapsed.Seconds()
	if fit, err := analysis.FitDecay(res.History); err == nil {
		m.decay = &fit
	}
}

// SetSummary stores the hot-fraction analysis.
func (m *MetricsModel) SetSummary(s analysis.Summary) {
	m.summary = &s
}

// View renders the panel.
func (m MetricsModel) View() string {
	colWidth := max((m.width-4)/2, 1)

	left := []string{
		formatMetricCol("Heap:", format.FormatBytes(m.mem.HeapAlloc), colWidth),
		formatMetricCol("Fields:", format.FormatBytes(m.gridBytes), colWidth),
		formatMetricCol("Rate:", m.rate(), colWidth),
	}
	right := []string{
		formatMetricCol("GC:", fmt.Sprintf("%d", m.mem.NumGC), colWidth),
		formatMetricCol("Goroutines:", fmt.Sprintf("%d", m.mem.NumGoroutine), colWidth),
		formatMetricCol("Contraction:", m.contraction(), colWidth),
	}
	if m.summary != nil {
		left = append(left, formatMetricCol("Mean iter:", fmt.Sprintf("%.0f", m.summary.MeanIterations), colWidth))
		right = append(right, formatMetricCol("r(f, iter):", fmt.Sprintf("%+.3f", m.summary.Correlation), colWidth))
	}

	var rows strings.Builder
	for i := range left {
		if i > 0 {
			rows.WriteString("\n")
		}
		rows.WriteString(left[i] + right[i])
	}
	return panel("Metrics", rows.String(), m.width, m.height)
}

func (m MetricsModel) rate() string {
	if m.elapsed <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f it/s", float64(m.iterations)/m.elapsed)
}

func (m MetricsModel) contraction() string {
	if m.decay == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f", m.decay.Rate)
}

func formatMetricCol(label, value string, colWidth int) string {
	cell := fmt.Sprintf(" %s %s",
		metricLabelStyle.Render(fmt.Sprintf("%-12s", label)),
		metricValueStyle.Render(value))
	if visible := lipgloss.Width(cell); visible < colWidth {
		cell += strings.Repeat(" ", colWidth-visible)
	}
	return cell
}
