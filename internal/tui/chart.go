package tui

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/heat"
)

const historySamples = 120

// ChartModel plots the average progress of the run and, once a simulation
// finishes, its residual history. System CPU and memory sparklines sit below.
type ChartModel struct {
	progress   *Series
	cpu        *Series
	mem        *Series
	residuals  []float64
	residualOf int
	average    float64
	done       bool
	width      int
	height     int
}

// NewChartModel creates an empty chart.
func NewChartModel() ChartModel {
	return ChartModel{
		progress:   NewSeries(historySamples),
		cpu:        NewSeries(historySamples),
		mem:        NewSeries(historySamples),
		residualOf: -1,
	}
}

// SetSize updates the outer dimensions and resizes the sample windows to
// the plot width.
func (c *ChartModel) SetSize(w, h int) {
	c.width, c.height = w, h
	inner := max(w-16, 1)
	c.cpu.Resize(inner)
	c.mem.Resize(inner)
	c.progress.Resize(max(w-4, 1) * 2)
}

// AddProgress records the average progress of the run.
func (c *ChartModel) AddProgress(average float64) {
	c.average = average
	c.progress.Push(average)
}

// ShowResidual plots the residual history of simulation i.
func (c *ChartModel) ShowResidual(i int, res heat.SolveResult) {
	deltas := lo.Map(res.History, func(r heat.IterationRecord, _ int) float64 { return r.Delta })
	c.residuals = ResidualScale(deltas, res.Config.Tolerance)
	c.residualOf = i
}

// UpdateSysStats records a system sample.
func (c *ChartModel) UpdateSysStats(cpu, mem float64) {
	c.cpu.Push(cpu)
	c.mem.Push(mem)
}

// SetDone freezes the chart.
func (c *ChartModel) SetDone() { c.done = true }

// Reset clears all series.
func (c *ChartModel) Reset() {
	c.progress.Reset()
	c.cpu.Reset()
	c.mem.Reset()
	c.residuals = nil
	c.residualOf = -1
	c.average = 0
	c.done = false
}

// View renders the panel.
func (c ChartModel) View() string {
	plotRows := max(c.height-6, 1)
	plotWidth := max(c.width-4, 1)

	title := "Average Progress"
	values := c.progress.Values()
	if c.residualOf >= 0 {
		title = fmt.Sprintf("Residual #%d (log)", c.residualOf)
		values = c.residuals
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render(title) + "  " + metricValueStyle.Render(format.FormatPercent(c.average)))
	for _, line := range RenderBrailleChart(values, plotWidth, plotRows) {
		b.WriteString("\n" + chartStyle.Render(line))
	}
	fmt.Fprintf(&b, "\n%s %s %s",
		metricLabelStyle.Render("CPU"), cpuSparklineStyle.Render(RenderSparkline(c.cpu.Values())),
		metricValueStyle.Render(fmt.Sprintf("%3.0f%%", c.cpu.Last())))
	fmt.Fprintf(&b, "\n%s %s %s",
		metricLabelStyle.Render("MEM"), memSparklineStyle.Render(RenderSparkline(c.mem.Values())),
		metricValueStyle.Render(fmt.Sprintf("%3.0f%%", c.mem.Last())))

	return panel("Convergence", b.String(), c.width, c.height)
}
