package orchestration

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/agbru/heatsolve/internal/heat"
)

// floodSolver emits far more samples than the event channel can hold.
type floodSolver struct{}

func (floodSolver) Run(ctx context.Context, cfg heat.SimulationConfig, onProgress heat.ProgressFunc) (heat.SolveResult, error) {
	for i := 1; i <= 100000; i++ {
		onProgress(heat.Sample{Iteration: i, Delta: 1 / float64(i), InitialDelta: 1})
	}
	onProgress(heat.Sample{Iteration: 100001, Delta: 1e-6, InitialDelta: 1, Terminal: true})
	return heat.SolveResult{Config: cfg, FinalIteration: 100001, Converged: true}, nil
}

// slowReporter drains the stream with a delay per event.
func slowReporter(delay time.Duration) EventReporter {
	return EventReporterFunc(func(wg *sync.WaitGroup, events <-chan Event, _ int, _ io.Writer) {
		defer wg.Done()
		for range events {
			time.Sleep(delay)
		}
	})
}

// TestOrchestrationNoDeadlock_MixedBehaviors verifies that ExecuteSimulations
// completes without deadlocking under various solver behaviour combinations.
func TestOrchestrationNoDeadlock_MixedBehaviors(t *testing.T) {
	testCases := []struct {
		name     string
		solver   heat.Solver
		reporter EventReporter
		configs  []heat.SimulationConfig
	}{
		{
			name:     "all_instant",
			solver:   &MockSolver{},
			reporter: NullEventReporter{},
			configs:  []heat.SimulationConfig{fastConfig(0.1), fastConfig(0.2), fastConfig(0.3)},
		},
		{
			name:     "mixed_with_errors",
			solver:   &MockSolver{Behaviors: map[float64]string{0.2: "error", 0.3: "panic"}},
			reporter: NullEventReporter{},
			configs:  []heat.SimulationConfig{fastConfig(0.1), fastConfig(0.2), fastConfig(0.3)},
		},
		{
			name:     "progress_flood",
			solver:   floodSolver{},
			reporter: NullEventReporter{},
			configs:  []heat.SimulationConfig{fastConfig(0.1), fastConfig(0.2), fastConfig(0.3), fastConfig(0.4), fastConfig(0.5)},
		},
		{
			name:     "progress_flood_slow_consumer",
			solver:   floodSolver{},
			reporter: slowReporter(5 * time.Millisecond),
			configs:  []heat.SimulationConfig{fastConfig(0.1), fastConfig(0.2)},
		},
		{
			name:     "real_solver_single",
			solver:   heat.NewSolver(),
			reporter: slowReporter(time.Millisecond),
			configs:  []heat.SimulationConfig{fastConfig(0.2)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			o := New(WithSolver(tc.solver), WithFlushInterval(time.Millisecond))
			done := make(chan struct{})
			go func() {
				defer close(done)
				_, _ = ExecuteSimulations(ctx, o, tc.configs, tc.reporter, io.Discard)
			}()

			select {
			case <-done:
			case <-time.After(10 * time.Second):
				t.Fatal("DEADLOCK: ExecuteSimulations did not complete within timeout")
			}
		})
	}
}

// TestOrchestrationNoDeadlock_ContextCancellation verifies that cancelling
// the context during execution does not cause a deadlock.
func TestOrchestrationNoDeadlock_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	big := heat.SimulationConfig{HotFraction: 0.1, GridSize: heat.MaxGridSize, Tolerance: 1e-6, MaxIterations: heat.MaxMaxIterations, SampleEvery: 1}
	big2 := big
	big2.HotFraction = 0.2

	done := make(chan []SimulationOutcome, 1)
	go func() {
		outcomes, _ := ExecuteSimulations(ctx, New(WithFlushInterval(time.Millisecond)),
			[]heat.SimulationConfig{big, big2}, slowReporter(time.Millisecond), io.Discard)
		done <- outcomes
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case outcomes := <-done:
		for _, o := range outcomes {
			if o.Result != nil {
				t.Errorf("simulation %d produced a result after cancellation", o.Index)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("DEADLOCK after context cancellation")
	}
}
