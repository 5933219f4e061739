package orchestration

import "github.com/agbru/heatsolve/internal/heat"

// EventType names an event on the wire and in logs.
type EventType string

const (
	EventRunStarted         EventType = "run_started"
	EventProgressBatch      EventType = "progress_batch"
	EventSimulationFinished EventType = "simulation_finished"
	EventSimulationFailed   EventType = "simulation_failed"
	EventRunComplete        EventType = "run_complete"
	EventRunCancelled       EventType = "run_cancelled"
	EventRunFailed          EventType = "run_failed"
)

// Event is one item of a Session's event stream.
//
// A stream starts with RunStarted, carries any number of ProgressBatch,
// SimulationFinished and SimulationFailed events, and ends with exactly one
// of RunComplete or RunCancelled. RunFailed is only produced by transports
// for requests that never became a Session.
type Event interface {
	Type() EventType
}

// RunStarted opens the stream.
type RunStarted struct {
	Count int
}

// ProgressBatch carries the latest percentage for every simulation, indexed
// like the submitted configurations.
type ProgressBatch struct {
	Percent []float64
}

// SimulationFinished carries the result of a simulation that terminated,
// converged or not.
type SimulationFinished struct {
	Index  int
	Result heat.SolveResult
}

// SimulationFailed reports a simulation that hit an internal failure.
// Sibling simulations are unaffected.
type SimulationFailed struct {
	Index  int
	Reason string
}

// RunComplete closes a stream in which every simulation finished or failed.
type RunComplete struct{}

// RunCancelled closes a stream in which at least one simulation was stopped
// by cancellation.
type RunCancelled struct{}

// RunFailed rejects a start request.
type RunFailed struct {
	Reason string
}

func (RunStarted) Type() EventType         { return EventRunStarted }
func (ProgressBatch) Type() EventType      { return EventProgressBatch }
func (SimulationFinished) Type() EventType { return EventSimulationFinished }
func (SimulationFailed) Type() EventType   { return EventSimulationFailed }
func (RunComplete) Type() EventType        { return EventRunComplete }
func (RunCancelled) Type() EventType       { return EventRunCancelled }
func (RunFailed) Type() EventType          { return EventRunFailed }

// IsTerminal reports whether ev closes a stream.
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case RunComplete, RunCancelled, RunFailed:
		return true
	}
	return false
}
