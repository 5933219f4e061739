package cli

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"
	"github.com/golang/mock/gomock"

	"github.com/agbru/heatsolve/internal/cli/mocks"
	"github.com/agbru/heatsolve/internal/config"
	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/export"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/metrics"
	"github.com/agbru/heatsolve/internal/orchestration"
	"github.com/agbru/heatsolve/internal/ui"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := ui.GetCurrentTheme()
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(prev) })
}

func useSpinner(t *testing.T, s Spinner) {
	t.Helper()
	prev := newSpinner
	newSpinner = func(...spinner.Option) Spinner { return s }
	t.Cleanup(func() { newSpinner = prev })
}

// result builds a solve result whose history decays geometrically.
func result(fraction float64, iterations int, converged bool) *heat.SolveResult {
	cfg := heat.DefaultConfig(fraction)
	cfg.GridSize = 3
	var history []heat.IterationRecord
	for i := 10; i <= iterations; i += 10 {
		history = append(history, heat.IterationRecord{Iteration: i, Delta: 0.25 * math.Pow(0.99, float64(i))})
	}
	return &heat.SolveResult{
		Config:         cfg,
		FinalGrid:      heat.Grid{N: 3, Cells: []float64{0, 0, 0, 0, 1, 0, 0, 0, 0}},
		History:        history,
		FinalIteration: iterations,
		FinalDelta:     history[len(history)-1].Delta,
		Converged:      converged,
	}
}

func outcomes() []orchestration.SimulationOutcome {
	return []orchestration.SimulationOutcome{
		{Index: 0, Config: result(0.1, 400, true).Config, Result: result(0.1, 400, true), Duration: 12 * time.Millisecond},
		{Index: 1, Config: result(0.3, 200, false).Config, Result: result(0.3, 200, false), Duration: 8 * time.Millisecond},
		{Index: 2, Config: heat.DefaultConfig(0.5), Err: apperrors.SimulationError{Index: 2, Cause: errors.New("boom")}},
		{Index: 3, Config: heat.DefaultConfig(0.6), Err: apperrors.SimulationError{Index: 3, Cause: heat.ErrCancelled}},
	}
}

func TestDisplayProgress(t *testing.T) {
	noColor(t)
	ctrl := gomock.NewController(t)
	s := mocks.NewMockSpinner(ctrl)
	s.EXPECT().Start().Times(1)
	s.EXPECT().Stop().Times(1)
	s.EXPECT().UpdateSuffix(gomock.Any()).AnyTimes()
	useSpinner(t, s)

	events := make(chan orchestration.Event, 8)
	events <- orchestration.RunStarted{Count: 2}
	events <- orchestration.ProgressBatch{Percent: []float64{40, 10}}
	events <- orchestration.SimulationFinished{Index: 0, Result: *result(0.1, 100, true)}
	events <- orchestration.SimulationFailed{Index: 1, Reason: "boom"}
	events <- orchestration.RunComplete{}
	close(events)

	var out bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, events, 2, &out)
	wg.Wait()

	line := out.String()
	if !strings.Contains(line, "(0 running)") {
		t.Errorf("final line should report no pending simulation: %q", line)
	}
	if !strings.Contains(line, "#0 "+strings.Repeat("█", CompactBarWidth)) {
		t.Errorf("finished simulation should show a full bar: %q", line)
	}
}

func TestDisplayProgressSingle(t *testing.T) {
	noColor(t)
	ctrl := gomock.NewController(t)
	s := mocks.NewMockSpinner(ctrl)
	s.EXPECT().Start()
	s.EXPECT().Stop()
	s.EXPECT().UpdateSuffix(gomock.Any()).AnyTimes()
	useSpinner(t, s)

	events := make(chan orchestration.Event, 3)
	events <- orchestration.ProgressBatch{Percent: []float64{100}}
	events <- orchestration.RunComplete{}
	close(events)

	var out bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, events, 1, &out)

	if got := out.String(); !strings.Contains(got, "Solving:") || !strings.Contains(got, "100.0%") {
		t.Errorf("unexpected final line %q", got)
	}
}

func TestDisplayProgressNoSimulations(t *testing.T) {
	ctrl := gomock.NewController(t)
	useSpinner(t, mocks.NewMockSpinner(ctrl)) // any call fails the test

	events := make(chan orchestration.Event, 1)
	events <- orchestration.RunComplete{}
	close(events)

	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, events, 0, &bytes.Buffer{})
	wg.Wait()
}

func TestPresentComparisonTable(t *testing.T) {
	noColor(t)
	var out bytes.Buffer
	CLIResultPresenter{}.PresentComparisonTable(outcomes(), &out)
	got := out.String()

	for _, want := range []string{"Sim", "Iterations", "Final Δ", "✅ Converged", "Iteration cap", "Cancelled", "Failure", "boom", "400", "12ms"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 6 {
		t.Fatalf("want title, header and 4 rows, got %d lines", len(lines))
	}
	col := strings.Index(lines[1], "Status")
	for _, row := range lines[2:] {
		if len([]rune(row)) < col {
			t.Fatalf("row shorter than header: %q", row)
		}
	}
}

func TestPresentSummary(t *testing.T) {
	noColor(t)

	t.Run("verbose with sweep", func(t *testing.T) {
		var out bytes.Buffer
		CLIResultPresenter{}.PresentSummary(outcomes(), true, &out)
		got := out.String()
		for _, want := range []string{"Convergence Analysis", "contraction 0.99000", "Correlation", "Fastest: f=0.300", "1 point(s) hit the iteration cap"} {
			if !strings.Contains(got, want) {
				t.Errorf("summary missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("single quiet summary", func(t *testing.T) {
		var out bytes.Buffer
		CLIResultPresenter{}.PresentSummary(outcomes()[:1], false, &out)
		if out.Len() != 0 {
			t.Errorf("expected no output, got %q", out.String())
		}
	})

	t.Run("no history", func(t *testing.T) {
		var out bytes.Buffer
		DisplayDecay(0, heat.SolveResult{}, &out)
		if !strings.Contains(out.String(), "not enough history") {
			t.Errorf("got %q", out.String())
		}
	})
}

func TestHandleError(t *testing.T) {
	noColor(t)
	tests := []struct {
		err  error
		code int
	}{
		{nil, apperrors.ExitSuccess},
		{apperrors.ValidationError{Field: "grid_size", Message: "too small"}, apperrors.ExitErrorConfig},
		{fmt.Errorf("wrap: %w", errors.New("boom")), apperrors.ExitErrorGeneric},
	}
	for _, tt := range tests {
		if got := (CLIResultPresenter{}).HandleError(tt.err, 0, &bytes.Buffer{}); got != tt.code {
			t.Errorf("HandleError(%v) = %d, want %d", tt.err, got, tt.code)
		}
	}
}

func TestAnalyzeResultsWithPresenter(t *testing.T) {
	noColor(t)
	var out bytes.Buffer
	code := orchestration.AnalyzeResults(outcomes()[:2], false, CLIResultPresenter{}, &out)
	if code != apperrors.ExitErrorNonConvergence {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorNonConvergence)
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fields")

	paths, err := WriteOutputs(outcomes(), OutputConfig{Dir: dir, Format: export.FormatVTI})
	if err != nil {
		t.Fatalf("WriteOutputs: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("want 2 fields and a collection, got %v", paths)
	}
	if filepath.Base(paths[2]) != "series.pvd" {
		t.Errorf("last path = %s, want series.pvd", paths[2])
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	csvPaths, err := WriteOutputs(outcomes(), OutputConfig{Dir: dir, Format: export.FormatCSV})
	if err != nil || len(csvPaths) != 2 {
		t.Fatalf("csv: paths=%v err=%v", csvPaths, err)
	}

	none, err := WriteOutputs(outcomes(), OutputConfig{})
	if err != nil || none != nil {
		t.Errorf("empty dir should write nothing, got %v %v", none, err)
	}
}

func TestDisplayQuietResults(t *testing.T) {
	var out bytes.Buffer
	DisplayQuietResults(outcomes(), &out)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("want 4 lines, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "0\t0.100\t400\t") || !strings.HasSuffix(lines[0], "converged") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "unconverged") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "failed") {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestPrintExecution(t *testing.T) {
	noColor(t)
	cfg, err := config.ParseConfig("heatsolve", []string{"-o", "out"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	PrintExecutionConfig(cfg, &out)
	PrintExecutionMode(cfg.Simulations(), &out)
	got := out.String()
	for _, want := range []string{"Mode run", "logical processors", "written to out as vti", "3 concurrent simulations", "f=0.330", "hot square 17×17", "Starting Execution"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestDisplayMemoryStats(t *testing.T) {
	var out bytes.Buffer
	DisplayMemoryStats(metrics.MemorySnapshot{HeapAlloc: 2048, NumGC: 3}, metrics.GridBytes(51), &out)
	if !strings.Contains(out.String(), "Field buffers:   40.6 KiB") {
		t.Errorf("got %q", out.String())
	}
}

func TestProgressBarPercent(t *testing.T) {
	if got := progressBar(50, 4); got != "██░░" {
		t.Errorf("progressBar(50, 4) = %q", got)
	}
}
