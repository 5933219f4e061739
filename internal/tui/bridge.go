package tui

import (
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"

	"github.com/agbru/heatsolve/internal/analysis"
	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/orchestration"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the bridge goroutines can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
// It is a no-op until a program is set.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// TUIEventReporter implements orchestration.EventReporter by translating a
// Session's events into bubbletea messages.
type TUIEventReporter struct {
	ref *programRef
	gen uint64
}

var _ orchestration.EventReporter = (*TUIEventReporter)(nil)

// DisplayEvents consumes the stream until it is closed.
func (t *TUIEventReporter) DisplayEvents(wg *sync.WaitGroup, events <-chan orchestration.Event, numSimulations int, _ io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(numSimulations)
	if agg == nil {
		orchestration.DrainEvents(events)
		return
	}

	for ev := range events {
		agg.Apply(ev)
		switch e := ev.(type) {
		case orchestration.RunStarted:
			t.ref.Send(RunStartedMsg{Count: e.Count, Generation: t.gen})
		case orchestration.ProgressBatch:
			t.ref.Send(ProgressMsg{
				Percent:    lo.Map(lo.Range(agg.NumSimulations()), func(i, _ int) float64 { return agg.Percent(i) }),
				Average:    agg.Average(),
				Generation: t.gen,
			})
		case orchestration.SimulationFinished:
			t.ref.Send(SimulationDoneMsg{Index: e.Index, Result: e.Result, Generation: t.gen})
		case orchestration.SimulationFailed:
			t.ref.Send(SimulationFailedMsg{Index: e.Index, Reason: e.Reason, Generation: t.gen})
		case orchestration.RunComplete:
			t.ref.Send(StreamEndedMsg{Generation: t.gen})
		case orchestration.RunCancelled:
			t.ref.Send(StreamEndedMsg{Cancelled: true, Generation: t.gen})
		}
	}
}

// TUIResultPresenter implements orchestration.ResultPresenter.
// It sends result messages to the TUI instead of writing to stdout.
type TUIResultPresenter struct {
	ref *programRef
	gen uint64
}

var (
	_ orchestration.ResultPresenter   = (*TUIResultPresenter)(nil)
	_ orchestration.DurationFormatter = (*TUIResultPresenter)(nil)
	_ orchestration.ErrorHandler      = (*TUIResultPresenter)(nil)
)

// PresentComparisonTable sends the outcomes to the TUI.
func (t *TUIResultPresenter) PresentComparisonTable(outcomes []orchestration.SimulationOutcome, _ io.Writer) {
	t.ref.Send(ResultsMsg{Outcomes: outcomes, Generation: t.gen})
}

// PresentSummary sends the hot-fraction analysis when the batch has at least
// two results.
func (t *TUIResultPresenter) PresentSummary(outcomes []orchestration.SimulationOutcome, _ bool, _ io.Writer) {
	points := lo.FilterMap(outcomes, func(o orchestration.SimulationOutcome, _ int) (analysis.Point, bool) {
		if !o.Succeeded() {
			return analysis.Point{}, false
		}
		return analysis.PointFromResult(*o.Result), true
	})
	summary, err := analysis.Summarize(points)
	if err != nil {
		return
	}
	t.ref.Send(SummaryMsg{Summary: summary, Generation: t.gen})
}

// FormatDuration delegates to the shared formatter.
func (t *TUIResultPresenter) FormatDuration(d time.Duration) string {
	return format.FormatExecutionDuration(d)
}

// HandleError sends an error message to the TUI and returns the exit code.
func (t *TUIResultPresenter) HandleError(err error, duration time.Duration, _ io.Writer) int {
	if err != nil {
		t.ref.Send(ErrorMsg{Err: err, Duration: duration, Generation: t.gen})
	}
	return apperrors.HandleRunError(err, duration, io.Discard, nil)
}
