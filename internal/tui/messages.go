package tui

import (
	"time"

	"github.com/agbru/heatsolve/internal/analysis"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/orchestration"
)

// Run-scoped messages carry the generation of the run that produced them so
// that the model can drop stragglers after a restart.

// TickMsg drives the periodic sampling of memory and system stats.
type TickMsg time.Time

// RunStartedMsg opens a run.
type RunStartedMsg struct {
	Count      int
	Generation uint64
}

// ProgressMsg carries the aggregated percentages after a progress batch.
type ProgressMsg struct {
	Percent    []float64
	Average    float64
	Generation uint64
}

// SimulationDoneMsg reports a simulation that terminated normally.
type SimulationDoneMsg struct {
	Index      int
	Result     heat.SolveResult
	Generation uint64
}

// SimulationFailedMsg reports a simulation that failed.
type SimulationFailedMsg struct {
	Index      int
	Reason     string
	Generation uint64
}

// StreamEndedMsg reports the terminal event of the stream.
type StreamEndedMsg struct {
	Cancelled  bool
	Generation uint64
}

// ResultsMsg carries the final outcomes of a run.
type ResultsMsg struct {
	Outcomes   []orchestration.SimulationOutcome
	Generation uint64
}

// SummaryMsg carries the hot-fraction analysis of a batch.
type SummaryMsg struct {
	Summary    analysis.Summary
	Generation uint64
}

// ErrorMsg reports a run-level error.
type ErrorMsg struct {
	Err        error
	Duration   time.Duration
	Generation uint64
}

// RunCompleteMsg is returned by the command that executes the run.
type RunCompleteMsg struct {
	ExitCode   int
	Generation uint64
}

// MemStatsMsg carries runtime memory statistics.
type MemStatsMsg struct {
	HeapAlloc    uint64
	Sys          uint64
	NumGC        uint32
	NumGoroutine int
}

// SysStatsMsg carries system-wide CPU and memory usage.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}

// ContextCancelledMsg is sent when the parent context ends.
type ContextCancelledMsg struct {
	Err error
}
