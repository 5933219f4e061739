package heat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrCancelled is returned by Solver.Run when the context is cancelled before
// the solve terminates. No result is produced in that case.
var ErrCancelled = errors.New("solve cancelled")

// ErrNonFinite is returned when a step produces a NaN or infinite delta.
var ErrNonFinite = errors.New("non-finite delta")

// IterationRecord is one sample of the convergence history.
type IterationRecord struct {
	Iteration int     `json:"iteration"`
	Delta     float64 `json:"delta"`
}

// SolveResult is the immutable outcome of a solve that reached termination.
type SolveResult struct {
	Config         SimulationConfig  `json:"config"`
	FinalGrid      Grid              `json:"final_grid"`
	History        []IterationRecord `json:"history"`
	FinalIteration int               `json:"final_iteration"`
	FinalDelta     float64           `json:"final_delta"`
	Converged      bool              `json:"converged"`
	Elapsed        time.Duration     `json:"elapsed"`
}

// Sample is what a Solver reports each time it records a history entry.
type Sample struct {
	Iteration int
	Delta     float64
	// InitialDelta is the delta of iteration 1, the reference for progress.
	InitialDelta float64
	// Terminal is set on the last sample of a solve.
	Terminal bool
}

// ProgressFunc receives every recorded history sample as it is produced,
// including the terminal one.
type ProgressFunc func(Sample)

// Solver runs a single configuration to termination.
type Solver interface {
	Run(ctx context.Context, cfg SimulationConfig, onProgress ProgressFunc) (SolveResult, error)
}

// JacobiSolver is the default Solver. The zero value is ready to use and
// holds no state between runs, so one value may serve concurrent solves.
type JacobiSolver struct{}

// NewSolver returns the default Jacobi solver.
func NewSolver() JacobiSolver { return JacobiSolver{} }

// Run relaxes a fresh field for cfg until the step delta falls strictly below
// cfg.Tolerance or cfg.MaxIterations steps have run. It checks ctx once per
// iteration and returns ErrCancelled when it is done.
//
// History holds iteration t whenever t is a multiple of cfg.SampleEvery and
// always holds the terminal iteration, each exactly once.
func (JacobiSolver) Run(ctx context.Context, cfg SimulationConfig, onProgress ProgressFunc) (SolveResult, error) {
	if err := cfg.checkRunnable(); err != nil {
		return SolveResult{}, err
	}
	if onProgress == nil {
		onProgress = func(Sample) {}
	}

	start := time.Now()
	field := NewField(cfg.GridSize, cfg.HotFraction)
	history := make([]IterationRecord, 0, cfg.MaxIterations/cfg.SampleEvery+1)
	done := ctx.Done()
	var initial float64

	for iter := 1; ; iter++ {
		select {
		case <-done:
			return SolveResult{}, ErrCancelled
		default:
		}

		delta := field.Step()
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			return SolveResult{}, fmt.Errorf("iteration %d: %w", iter, ErrNonFinite)
		}

		if iter == 1 {
			initial = delta
		}

		converged := delta < cfg.Tolerance
		terminal := converged || iter == cfg.MaxIterations
		if terminal || iter%cfg.SampleEvery == 0 {
			history = append(history, IterationRecord{Iteration: iter, Delta: delta})
			onProgress(Sample{Iteration: iter, Delta: delta, InitialDelta: initial, Terminal: terminal})
		}
		if terminal {
			return SolveResult{
				Config:         cfg,
				FinalGrid:      field.Snapshot(),
				History:        history,
				FinalIteration: iter,
				FinalDelta:     delta,
				Converged:      converged,
				Elapsed:        time.Since(start),
			}, nil
		}
	}
}
