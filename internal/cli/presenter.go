package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/agbru/heatsolve/internal/analysis"
	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/metrics"
	"github.com/agbru/heatsolve/internal/orchestration"
	"github.com/agbru/heatsolve/internal/ui"
)

// CLIEventReporter implements orchestration.EventReporter with a spinner and
// progress bar.
type CLIEventReporter struct{}

var _ orchestration.EventReporter = CLIEventReporter{}

// DisplayEvents renders the stream with DisplayProgress.
func (CLIEventReporter) DisplayEvents(wg *sync.WaitGroup, events <-chan orchestration.Event, numSimulations int, out io.Writer) {
	DisplayProgress(wg, events, numSimulations, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for terminal
// output.
type CLIResultPresenter struct{}

var (
	_ orchestration.ResultPresenter   = CLIResultPresenter{}
	_ orchestration.DurationFormatter = CLIResultPresenter{}
	_ orchestration.ErrorHandler      = CLIResultPresenter{}
)

type tableColumn struct {
	header string
	width  int
}

// PresentComparisonTable prints one row per simulation. Cells are padded
// before colorization so that escape codes do not break the alignment.
func (p CLIResultPresenter) PresentComparisonTable(outcomes []orchestration.SimulationOutcome, out io.Writer) {
	fmt.Fprintf(out, "\n--- Simulation Summary ---\n")

	rows := lo.Map(outcomes, func(o orchestration.SimulationOutcome, _ int) []string {
		iterations, delta := "-", "-"
		if o.Succeeded() {
			iterations = fmt.Sprintf("%d", o.Result.FinalIteration)
			delta = format.FormatDelta(o.Result.FinalDelta)
		}
		return []string{
			fmt.Sprintf("#%d", o.Index),
			fmt.Sprintf("%.3f", o.Config.HotFraction),
			fmt.Sprintf("%d", o.Config.GridSize),
			iterations,
			delta,
			p.FormatDuration(o.Duration),
		}
	})

	cols := []tableColumn{{"Sim", 0}, {"f", 0}, {"N", 0}, {"Iterations", 0}, {"Final Δ", 0}, {"Duration", 0}}
	for i := range cols {
		cols[i].width = len([]rune(cols[i].header))
		for _, r := range rows {
			cols[i].width = max(cols[i].width, len([]rune(r[i])))
		}
	}

	for _, c := range cols {
		fmt.Fprintf(out, "%s   ", ui.Colorize(ui.ColorUnderline(), c.header)+padRight("", c.width-len([]rune(c.header))))
	}
	fmt.Fprintf(out, "%s\n", ui.Colorize(ui.ColorUnderline(), "Status"))

	for i, r := range rows {
		for j, cell := range r {
			padded := padRight(cell, cols[j].width-len([]rune(cell)))
			switch j {
			case 0:
				padded = ui.Colorize(ui.ColorPrimary(), padded)
			case 5:
				padded = ui.Colorize(ui.ColorYellow(), padded)
			}
			fmt.Fprintf(out, "%s   ", padded)
		}
		fmt.Fprintf(out, "%s\n", statusCell(outcomes[i]))
	}
}

func statusCell(o orchestration.SimulationOutcome) string {
	switch {
	case o.Succeeded() && o.Result.Converged:
		return ui.Colorize(ui.ColorGreen(), "✅ Converged")
	case o.Succeeded():
		return ui.Colorize(ui.ColorYellow(), "⚠️  Iteration cap")
	case errors.Is(o.Err, heat.ErrCancelled):
		return ui.Colorize(ui.ColorYellow(), "⏹  Cancelled")
	default:
		return ui.Colorize(ui.ColorRed(), fmt.Sprintf("❌ Failure (%v)", o.Err))
	}
}

// padRight appends length spaces to s.
func padRight(s string, length int) string {
	if length <= 0 {
		return s
	}
	return s + strings.Repeat(" ", length)
}

// PresentSummary prints the convergence analysis. Verbose mode adds the
// per-simulation decay fit; batches of two or more add the relationship
// between hot fraction and iteration count.
func (CLIResultPresenter) PresentSummary(outcomes []orchestration.SimulationOutcome, verbose bool, out io.Writer) {
	succeeded := lo.Filter(outcomes, func(o orchestration.SimulationOutcome, _ int) bool { return o.Succeeded() })
	if len(succeeded) == 0 {
		return
	}

	if verbose {
		fmt.Fprintf(out, "\n--- Convergence Analysis ---\n")
		for _, o := range succeeded {
			DisplayDecay(o.Index, *o.Result, out)
		}
	}

	if len(succeeded) < 2 {
		return
	}
	points := lo.Map(succeeded, func(o orchestration.SimulationOutcome, _ int) analysis.Point {
		return analysis.PointFromResult(*o.Result)
	})
	summary, err := analysis.Summarize(points)
	if err != nil {
		return
	}
	DisplaySweepSummary(summary, out)
}

// DisplayDecay prints the fitted decay of a single result.
func DisplayDecay(index int, res heat.SolveResult, out io.Writer) {
	fit, err := analysis.FitDecay(res.History)
	if err != nil {
		fmt.Fprintf(out, "  #%d  not enough history for a fit (%d samples)\n", index, len(res.History))
		return
	}
	fmt.Fprintf(out, "  #%d  contraction %s%.5f%s per iteration, R² %.4f, predicted %s%.0f%s iterations to reach %g\n",
		index,
		ui.ColorMagenta(), fit.Rate, ui.ColorReset(),
		fit.RSquared,
		ui.ColorMagenta(), fit.PredictIterations(res.Config.Tolerance), ui.ColorReset(),
		res.Config.Tolerance)
}

// DisplaySweepSummary prints how the iteration count varies with the hot
// fraction.
func DisplaySweepSummary(s analysis.Summary, out io.Writer) {
	fmt.Fprintf(out, "\n--- Hot Fraction vs. Iterations ---\n")
	fmt.Fprintf(out, "Mean iterations: %s%.1f%s ± %.1f\n", ui.ColorMagenta(), s.MeanIterations, ui.ColorReset(), s.StdIterations)
	fmt.Fprintf(out, "Fastest: f=%.3f in %d iterations. Slowest: f=%.3f in %d iterations.\n",
		s.Fastest.Fraction, s.Fastest.Iterations, s.Slowest.Fraction, s.Slowest.Iterations)
	fmt.Fprintf(out, "Correlation (f, iterations): %s%+.3f%s\n", ui.ColorMagenta(), s.Correlation, ui.ColorReset())
	if s.Unconverged > 0 {
		fmt.Fprintf(out, "%s%d point(s) hit the iteration cap and are lower bounds.%s\n", ui.ColorYellow(), s.Unconverged, ui.ColorReset())
	}
}

// FormatDuration formats a duration for display.
func (CLIResultPresenter) FormatDuration(d time.Duration) string {
	return format.FormatExecutionDuration(d)
}

// HandleError renders err and returns the matching exit code.
func (CLIResultPresenter) HandleError(err error, duration time.Duration, out io.Writer) int {
	return apperrors.HandleRunError(err, duration, out, CLIColorProvider{})
}

// CLIColorProvider implements apperrors.ColorProvider with the active theme.
type CLIColorProvider struct{}

func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// DisplayMemoryStats shows memory statistics after a run.
func DisplayMemoryStats(snap metrics.MemorySnapshot, gridBytes uint64, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Heap in use:     %s\n", format.FormatBytes(snap.HeapAlloc))
	fmt.Fprintf(out, "  Obtained:        %s\n", format.FormatBytes(snap.Sys))
	fmt.Fprintf(out, "  Field buffers:   %s\n", format.FormatBytes(gridBytes))
	fmt.Fprintf(out, "  GC cycles:       %d\n", snap.NumGC)
}
