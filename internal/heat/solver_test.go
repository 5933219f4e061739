package heat

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quickConfig(fraction float64) SimulationConfig {
	return SimulationConfig{
		HotFraction:   fraction,
		GridSize:      21,
		Tolerance:     1e-3,
		MaxIterations: 5000,
		SampleEvery:   10,
	}
}

func TestRunConvergesAndRecordsHistory(t *testing.T) {
	t.Parallel()
	cfg := quickConfig(0.2)
	var samples []Sample
	res, err := NewSolver().Run(context.Background(), cfg, func(s Sample) { samples = append(samples, s) })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, final delta %v after %d iterations", res.FinalDelta, res.FinalIteration)
	}
	if res.FinalDelta >= cfg.Tolerance {
		t.Errorf("FinalDelta %v not below tolerance", res.FinalDelta)
	}
	if res.Config != cfg {
		t.Errorf("Config = %+v, want %+v", res.Config, cfg)
	}

	last := res.History[len(res.History)-1]
	if last.Iteration != res.FinalIteration || last.Delta != res.FinalDelta {
		t.Errorf("last history entry %+v does not match final state", last)
	}
	seen := make(map[int]bool)
	for i, rec := range res.History {
		if seen[rec.Iteration] {
			t.Fatalf("iteration %d recorded twice", rec.Iteration)
		}
		seen[rec.Iteration] = true
		if rec.Iteration%cfg.SampleEvery != 0 && i != len(res.History)-1 {
			t.Errorf("history entry %d at iteration %d is not a sample point", i, rec.Iteration)
		}
	}
	for it := cfg.SampleEvery; it < res.FinalIteration; it += cfg.SampleEvery {
		if !seen[it] {
			t.Errorf("history misses sample iteration %d", it)
		}
	}

	if len(samples) != len(res.History) {
		t.Fatalf("progress callbacks = %d, history = %d", len(samples), len(res.History))
	}
	if !samples[len(samples)-1].Terminal {
		t.Error("last sample must be terminal")
	}
	if samples[0].InitialDelta != 0.25 {
		t.Errorf("InitialDelta = %v, want 0.25", samples[0].InitialDelta)
	}
}

func TestRunDeltaIsNonIncreasing(t *testing.T) {
	t.Parallel()
	cfg := quickConfig(0.3)
	cfg.SampleEvery = 1
	res, err := NewSolver().Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i := 2; i < len(res.History); i++ {
		if res.History[i].Delta > res.History[i-1].Delta+1e-12 {
			t.Fatalf("delta increased at iteration %d: %v -> %v",
				res.History[i].Iteration, res.History[i-1].Delta, res.History[i].Delta)
		}
	}
}

func TestRunTerminatesExactly(t *testing.T) {
	t.Parallel()

	t.Run("stops at first delta below tolerance", func(t *testing.T) {
		t.Parallel()
		cfg := quickConfig(0.2)
		res, err := NewSolver().Run(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		f := NewField(cfg.GridSize, cfg.HotFraction)
		for it := 1; it < res.FinalIteration; it++ {
			if d := f.Step(); d < cfg.Tolerance {
				t.Fatalf("delta %v at iteration %d already below tolerance", d, it)
			}
		}
		if d := f.Step(); d != res.FinalDelta {
			t.Fatalf("replayed final delta %v, want %v", d, res.FinalDelta)
		}
	})

	t.Run("stops at max iterations without converging", func(t *testing.T) {
		t.Parallel()
		cfg := quickConfig(0.2)
		cfg.Tolerance = 1e-15
		cfg.MaxIterations = 37
		res, err := NewSolver().Run(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if res.Converged || res.FinalIteration != 37 {
			t.Fatalf("Converged=%v FinalIteration=%d, want false/37", res.Converged, res.FinalIteration)
		}
		if got := res.History[len(res.History)-1].Iteration; got != 37 {
			t.Fatalf("terminal iteration %d not recorded", got)
		}
	})

	t.Run("single iteration grid without free cells", func(t *testing.T) {
		t.Parallel()
		cfg := SimulationConfig{HotFraction: 0.5, GridSize: 3, Tolerance: 1e-3, MaxIterations: 10, SampleEvery: 5}
		res, err := NewSolver().Run(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !res.Converged || res.FinalIteration != 1 || res.FinalDelta != 0 {
			t.Fatalf("got %+v, want converged at iteration 1 with delta 0", res)
		}
	})
}

func TestRunMatchesManualSteps(t *testing.T) {
	t.Parallel()
	const steps = 123
	cfg := quickConfig(0.25)
	cfg.Tolerance = 0
	cfg.MaxIterations = steps

	res, err := NewSolver().Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	f := NewField(cfg.GridSize, cfg.HotFraction)
	for i := 0; i < steps; i++ {
		f.Step()
	}
	manual := f.Snapshot()
	for k := range manual.Cells {
		if manual.Cells[k] != res.FinalGrid.Cells[k] {
			t.Fatalf("cell %d: Run=%v manual=%v", k, res.FinalGrid.Cells[k], manual.Cells[k])
		}
	}
}

func TestLargerHotSquareConvergesFaster(t *testing.T) {
	t.Parallel()
	big, err := NewSolver().Run(context.Background(), quickConfig(0.2), nil)
	if err != nil {
		t.Fatal(err)
	}
	small, err := NewSolver().Run(context.Background(), quickConfig(0.05), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !big.Converged || !small.Converged {
		t.Fatalf("both runs should converge: 0.2=%v 0.05=%v", big.Converged, small.Converged)
	}
	if big.FinalIteration >= small.FinalIteration {
		t.Errorf("f=0.2 took %d iterations, f=0.05 took %d; expected fewer for the larger square",
			big.FinalIteration, small.FinalIteration)
	}
}

func TestRunCancellation(t *testing.T) {
	t.Parallel()

	t.Run("already cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewSolver().Run(ctx, quickConfig(0.2), nil)
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("Run() error = %v, want ErrCancelled", err)
		}
	})

	t.Run("cancelled mid-run", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cfg := SimulationConfig{HotFraction: 0.2, GridSize: 181, Tolerance: 1e-12, MaxIterations: 20000, SampleEvery: 10}
		var calls int
		done := make(chan error, 1)
		go func() {
			_, err := NewSolver().Run(ctx, cfg, func(Sample) {
				calls++
				if calls == 3 {
					cancel()
				}
			})
			done <- err
		}()
		select {
		case err := <-done:
			if !errors.Is(err, ErrCancelled) {
				t.Fatalf("Run() error = %v, want ErrCancelled", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("solver did not observe cancellation")
		}
	})
}

func TestRunRejectsUnrunnableConfig(t *testing.T) {
	t.Parallel()
	cfg := quickConfig(0.2)
	cfg.SampleEvery = 0
	if _, err := NewSolver().Run(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for zero sample period")
	}
}
