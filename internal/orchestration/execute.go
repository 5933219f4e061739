package orchestration

import (
	"context"
	"fmt"
	"io"
	"sync"

	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
)

// ExecuteSimulations starts a run on o and blocks until it is over, handing
// the event stream to reporter for display. It is the synchronous entry point
// used by the CLI and sweep modes.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - o: The orchestrator that starts the run.
//   - configs: The batch to run; it is validated as a whole.
//   - reporter: Displays events (use NullEventReporter for quiet mode).
//   - out: The io.Writer for progress output.
//
// Returns:
//   - []SimulationOutcome: One outcome per configuration, in order.
//   - error: A validation error if the batch was rejected.
func ExecuteSimulations(ctx context.Context, o *Orchestrator, configs []heat.SimulationConfig, reporter EventReporter, out io.Writer) ([]SimulationOutcome, error) {
	session, err := o.StartRun(ctx, configs)
	if err != nil {
		return nil, err
	}

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go reporter.DisplayEvents(&displayWg, session.Events(), len(configs), out)

	outcomes := session.Wait()
	displayWg.Wait()
	return outcomes, nil
}

// AnalyzeResults presents the outcomes of a run and derives the exit code.
//
// The comparison table is always shown. When no simulation produced a result
// the first error decides the exit code. When some simulations stopped at
// their iteration cap the run is reported as partial.
func AnalyzeResults(outcomes []SimulationOutcome, verbose bool, presenter ResultPresenter, out io.Writer) int {
	var firstError error
	successCount, unconverged := 0, 0
	for _, o := range outcomes {
		switch {
		case o.Succeeded():
			successCount++
			if !o.Result.Converged {
				unconverged++
			}
		case firstError == nil:
			firstError = o.Err
		}
	}

	presenter.PresentComparisonTable(outcomes, out)

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No simulation produced a result.\n")
		return presenter.HandleError(firstError, 0, out)
	}

	presenter.PresentSummary(outcomes, verbose, out)

	switch {
	case firstError != nil:
		fmt.Fprintf(out, "\nGlobal Status: Partial. %d of %d simulations did not finish.\n",
			len(outcomes)-successCount, len(outcomes))
		return presenter.HandleError(firstError, 0, out)
	case unconverged > 0:
		fmt.Fprintf(out, "\nGlobal Status: Partial. %d of %d simulations hit the iteration cap.\n",
			unconverged, len(outcomes))
		return apperrors.ExitErrorNonConvergence
	}
	fmt.Fprintf(out, "\nGlobal Status: Success. All simulations converged.\n")
	return apperrors.ExitSuccess
}
