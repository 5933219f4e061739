package orchestration

import "github.com/samber/lo"

// ProgressAggregator folds ProgressBatch events into a per-simulation view.
// Both CLI and TUI use it to avoid duplicating the bookkeeping.
type ProgressAggregator struct {
	percent  []float64
	finished []bool
	failed   []bool
}

// NewProgressAggregator creates an aggregator for the given number of
// simulations. Returns nil if numSimulations <= 0.
func NewProgressAggregator(numSimulations int) *ProgressAggregator {
	if numSimulations <= 0 {
		return nil
	}
	return &ProgressAggregator{
		percent:  make([]float64, numSimulations),
		finished: make([]bool, numSimulations),
		failed:   make([]bool, numSimulations),
	}
}

// Apply updates the view with ev. It ignores indices outside the batch and
// never moves a percentage backwards.
func (a *ProgressAggregator) Apply(ev Event) {
	switch e := ev.(type) {
	case ProgressBatch:
		for i, p := range e.Percent {
			if i < len(a.percent) && p > a.percent[i] {
				a.percent[i] = p
			}
		}
	case SimulationFinished:
		if a.inRange(e.Index) {
			a.finished[e.Index] = true
			a.percent[e.Index] = 100
		}
	case SimulationFailed:
		if a.inRange(e.Index) {
			a.failed[e.Index] = true
		}
	}
}

func (a *ProgressAggregator) inRange(i int) bool { return i >= 0 && i < len(a.percent) }

// Percent returns the current percentage of simulation i.
func (a *ProgressAggregator) Percent(i int) float64 { return a.percent[i] }

// Finished reports whether simulation i produced a result.
func (a *ProgressAggregator) Finished(i int) bool { return a.finished[i] }

// Failed reports whether simulation i failed.
func (a *ProgressAggregator) Failed(i int) bool { return a.failed[i] }

// Average returns the mean percentage across simulations.
func (a *ProgressAggregator) Average() float64 {
	return lo.Sum(a.percent) / float64(len(a.percent))
}

// Pending returns the number of simulations still running.
func (a *ProgressAggregator) Pending() int {
	return lo.CountBy(lo.Range(len(a.percent)), func(i int) bool {
		return !a.finished[i] && !a.failed[i]
	})
}

// NumSimulations returns the number of simulations being tracked.
func (a *ProgressAggregator) NumSimulations() int { return len(a.percent) }

// IsMulti returns true if tracking more than one simulation.
func (a *ProgressAggregator) IsMulti() bool { return len(a.percent) > 1 }

// DrainEvents reads all events from the channel without processing.
func DrainEvents(events <-chan Event) {
	for range events {
	}
}
