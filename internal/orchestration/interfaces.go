package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/heatsolve/internal/heat"
)

// SimulationOutcome is the per-simulation record kept by a Session once the
// run is over. It is the shared domain type between orchestration and the
// presentation layers.
type SimulationOutcome struct {
	// Index is the position of the configuration in the submitted batch.
	Index int
	// Config is the configuration the simulation ran with.
	Config heat.SimulationConfig
	// Result is set when the simulation terminated normally.
	Result *heat.SolveResult
	// Duration is the wall time spent in the solver.
	Duration time.Duration
	// Err is set when the simulation failed or was cancelled.
	Err error
}

// Succeeded reports whether the simulation produced a result.
func (o SimulationOutcome) Succeeded() bool { return o.Err == nil && o.Result != nil }

// EventReporter displays a Session's event stream.
//
// DisplayEvents is called in its own goroutine and must consume events until
// the channel is closed, then call wg.Done. Implementations handle the visual
// representation (spinners, bars, dashboards) while the orchestration layer
// focuses on running the simulations.
type EventReporter interface {
	DisplayEvents(wg *sync.WaitGroup, events <-chan Event, numSimulations int, out io.Writer)
}

// EventReporterFunc is a function adapter that implements EventReporter.
type EventReporterFunc func(wg *sync.WaitGroup, events <-chan Event, numSimulations int, out io.Writer)

// DisplayEvents calls the underlying function.
func (f EventReporterFunc) DisplayEvents(wg *sync.WaitGroup, events <-chan Event, numSimulations int, out io.Writer) {
	f(wg, events, numSimulations, out)
}

// NullEventReporter drains the stream without displaying anything.
// Useful for quiet mode or testing.
type NullEventReporter struct{}

// DisplayEvents drains the channel without output.
func (NullEventReporter) DisplayEvents(wg *sync.WaitGroup, events <-chan Event, _ int, _ io.Writer) {
	defer wg.Done()
	DrainEvents(events)
}

// ResultPresenter presents the outcomes of a finished run.
type ResultPresenter interface {
	ErrorHandler

	// PresentComparisonTable displays one row per simulation.
	PresentComparisonTable(outcomes []SimulationOutcome, out io.Writer)

	// PresentSummary displays the convergence analysis of the successful
	// simulations.
	PresentSummary(outcomes []SimulationOutcome, verbose bool, out io.Writer)
}

// DurationFormatter formats durations for display.
type DurationFormatter interface {
	FormatDuration(d time.Duration) string
}

// ErrorHandler handles run errors and returns exit codes.
type ErrorHandler interface {
	HandleError(err error, duration time.Duration, out io.Writer) int
}

// Recorder observes a run for instrumentation. Implementations must be safe
// for concurrent use.
type Recorder interface {
	RunStarted(simulations int)
	RunEnded(outcome string, elapsed time.Duration)
	SimulationStarted()
	SimulationEnded(status string, iterations int, elapsed time.Duration)
	ProgressFlushed()
}

// Run outcomes and simulation statuses passed to a Recorder.
const (
	OutcomeComplete  = "complete"
	OutcomeCancelled = "cancelled"

	StatusConverged   = "converged"
	StatusUnconverged = "unconverged"
	StatusFailed      = "failed"
	StatusCancelled   = "cancelled"
)

// NopRecorder ignores every observation.
type NopRecorder struct{}

func (NopRecorder) RunStarted(int)                             {}
func (NopRecorder) RunEnded(string, time.Duration)             {}
func (NopRecorder) SimulationStarted()                         {}
func (NopRecorder) SimulationEnded(string, int, time.Duration) {}
func (NopRecorder) ProgressFlushed()                           {}
