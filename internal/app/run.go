package app

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/agbru/heatsolve/internal/cli"
	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/export"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/metrics"
	"github.com/agbru/heatsolve/internal/orchestration"
)

// runSimulations runs the configured batch once and reports it on the
// console.
func (a *Application) runSimulations(ctx context.Context, out io.Writer) int {
	ctx, cancel := a.lifecycle(ctx)
	defer cancel()

	configs := a.Config.Simulations()
	orch := a.newOrchestrator(a.Logger)

	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(configs, out)
	}

	reporter, progressOut := a.eventReporter(out)
	outcomes, err := orchestration.ExecuteSimulations(ctx, orch, configs, reporter, progressOut)
	if err != nil {
		return apperrors.HandleRunError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	return a.finish(outcomes, configs, out)
}

// eventReporter chooses the progress display for the console.
func (a *Application) eventReporter(out io.Writer) (orchestration.EventReporter, io.Writer) {
	if a.Config.Quiet {
		return orchestration.NullEventReporter{}, io.Discard
	}
	return cli.CLIEventReporter{}, out
}

// finish presents the outcomes, exports the final fields and returns the
// exit code. resident lists the simulations that ran side by side.
func (a *Application) finish(outcomes []orchestration.SimulationOutcome, resident []heat.SimulationConfig, out io.Writer) int {
	presenter := cli.CLIResultPresenter{}

	var exitCode int
	if a.Config.Quiet {
		cli.DisplayQuietResults(outcomes, out)
		exitCode = orchestration.AnalyzeResults(outcomes, false, presenter, io.Discard)
	} else {
		exitCode = orchestration.AnalyzeResults(outcomes, a.Config.Verbose, presenter, out)
	}

	if a.Config.Verbose {
		cli.DisplayMemoryStats(metrics.NewMemoryCollector().Snapshot(), fieldBytes(resident), out)
	}

	if a.Config.OutputDir == "" {
		return exitCode
	}
	f, err := export.ParseFormat(a.Config.Format)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	paths, err := cli.WriteOutputs(outcomes, cli.OutputConfig{Dir: a.Config.OutputDir, Format: f, Quiet: a.Config.Quiet})
	if !a.Config.Quiet {
		cli.DisplayWrittenFiles(paths, out)
	}
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving fields: %v\n", err)
		if exitCode == apperrors.ExitSuccess {
			exitCode = apperrors.ExitErrorGeneric
		}
	}
	return exitCode
}

// fieldBytes estimates the memory held by the fields of a batch.
func fieldBytes(configs []heat.SimulationConfig) uint64 {
	return lo.SumBy(configs, func(c heat.SimulationConfig) uint64 { return metrics.GridBytes(c.GridSize) })
}
