package progress

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

// DefaultFlushInterval is the default minimum spacing between two batches,
// about three flushes per second.
const DefaultFlushInterval = 333 * time.Millisecond

// Sink receives flushed batches. Offer must not block and reports whether the
// batch was taken; a refused batch stays pending and is offered again at the
// next flush. Deliver may block and is used only for the final flush.
type Sink interface {
	Offer(percent []float64) bool
	Deliver(percent []float64)
}

// Reporter keeps the latest percentage of every simulation in a run in
// lock-free slots. Solvers write through a Writer; a single Run loop reads all
// slots and hands batches to a Sink at most once per interval, except that a
// slot reaching Complete triggers an immediate flush.
type Reporter struct {
	slots    []atomic.Uint64
	dirty    atomic.Bool
	urgent   chan struct{}
	interval time.Duration
}

// NewReporter creates a reporter with n slots, all at 0%.
func NewReporter(n int, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Reporter{
		slots:    make([]atomic.Uint64, n),
		urgent:   make(chan struct{}, 1),
		interval: interval,
	}
}

// Len returns the number of slots.
func (r *Reporter) Len() int { return len(r.slots) }

// Writer returns the write handle for slot i.
func (r *Reporter) Writer(i int) Writer {
	return Writer{r: r, i: i}
}

// Writer updates a single slot. It never blocks.
type Writer struct {
	r *Reporter
	i int
}

// Report stores percent in the slot if it is higher than the stored value, so
// a slot never moves backwards. Reaching Complete requests an immediate flush.
func (w Writer) Report(percent float64) {
	if math.IsNaN(percent) {
		return
	}
	percent = clamp(percent, 0, Complete)
	slot := &w.r.slots[w.i]
	for {
		old := slot.Load()
		if percent <= math.Float64frombits(old) {
			return
		}
		if slot.CompareAndSwap(old, math.Float64bits(percent)) {
			break
		}
	}
	w.r.dirty.Store(true)
	if percent >= Complete {
		select {
		case w.r.urgent <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns the current value of every slot.
func (r *Reporter) Snapshot() []float64 {
	out := make([]float64, len(r.slots))
	for i := range r.slots {
		out[i] = math.Float64frombits(r.slots[i].Load())
	}
	return out
}

// Run flushes pending changes to sink until ctx is done, then performs one
// last blocking flush if anything is still pending. Run must be called from a
// single goroutine.
func (r *Reporter) Run(ctx context.Context, sink Sink) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.dirty.Swap(false) {
				sink.Deliver(r.Snapshot())
			}
			return
		case <-ticker.C:
			r.offer(sink)
		case <-r.urgent:
			r.offer(sink)
		}
	}
}

func (r *Reporter) offer(sink Sink) {
	if !r.dirty.Swap(false) {
		return
	}
	if !sink.Offer(r.Snapshot()) {
		r.dirty.Store(true)
	}
}
