package app

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/agbru/heatsolve/internal/analysis"
	"github.com/agbru/heatsolve/internal/cli"
	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/metrics"
	"github.com/agbru/heatsolve/internal/orchestration"
	"github.com/agbru/heatsolve/internal/sysmon"
	"github.com/agbru/heatsolve/internal/ui"
)

// runSweep solves one simulation per hot fraction over the sweep range, a
// few at a time, and reports how the iteration count depends on the
// fraction.
func (a *Application) runSweep(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.lifecycle(ctx)
	defer cancel()

	fractions := analysis.Linspace(a.Config.SweepMin, a.Config.SweepMax, a.Config.SweepCount)
	configs := lo.Map(fractions, func(f float64, _ int) heat.SimulationConfig {
		return a.Config.SweepSimulation(f)
	})
	size := sysmon.SampleContext(ctx).Headroom(metrics.GridBytes(a.Config.GridSize), a.Config.SweepConcurrency)
	batches := lo.Chunk(configs, size)

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		fmt.Fprintf(out, "Sweeping %s%d%s hot fractions in [%.3f, %.3f], %d at a time.\n",
			ui.ColorPrimary(), len(configs), ui.ColorReset(), a.Config.SweepMin, a.Config.SweepMax, size)
	}

	orch := a.newOrchestrator(a.Logger)
	reporter, progressOut := a.eventReporter(out)

	outcomes := make([]orchestration.SimulationOutcome, 0, len(configs))
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		if !a.Config.Quiet {
			fmt.Fprintf(out, "\n--- Sweep batch %d/%d ---\n", i+1, len(batches))
		}
		results, err := orchestration.ExecuteSimulations(ctx, orch, batch, reporter, progressOut)
		if err != nil {
			return apperrors.HandleRunError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
		}
		offset := len(outcomes)
		for _, r := range results {
			r.Index += offset
			outcomes = append(outcomes, r)
		}
	}

	if len(outcomes) == 0 {
		return apperrors.HandleRunError(ctx.Err(), 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	return a.finish(outcomes, batches[0], out)
}
