// Package progress turns solver deltas into completion percentages and
// batches the latest percentage of every simulation in a run into
// rate-limited snapshots.
package progress

import "math"

const (
	// RunningCap is the highest percentage reported before a solve terminates.
	RunningCap = 99.0
	// Complete is reported exactly once a solve terminates.
	Complete = 100.0
)

// Percent estimates completion on a logarithmic scale between the first
// iteration's delta and the tolerance:
//
//	100 × ln(initial/delta) / ln(initial/tolerance)
//
// clamped to [0, RunningCap]. It returns 0 when the ratio is undefined, that
// is when initial ≤ tolerance, delta ≥ initial or any input is not a positive
// finite number.
func Percent(initial, delta, tolerance float64) float64 {
	if !positive(initial) || !positive(tolerance) || math.IsNaN(delta) {
		return 0
	}
	if initial <= tolerance || delta >= initial {
		return 0
	}
	if delta <= tolerance {
		return RunningCap
	}
	p := 100 * math.Log(initial/delta) / math.Log(initial/tolerance)
	return clamp(p, 0, RunningCap)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
