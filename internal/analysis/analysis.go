// Package analysis derives convergence statistics from solve results: the
// geometric decay rate of the step delta for a single solve, and the
// relationship between hot-square size and iterations across a sweep.
package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/agbru/heatsolve/internal/heat"
)

// ErrInsufficientData is returned when there are fewer than two usable points.
var ErrInsufficientData = errors.New("insufficient data for fit")

// Decay is a least-squares fit of ln(delta) = Intercept + Slope·iteration.
type Decay struct {
	Intercept float64
	Slope     float64
	// Rate is the per-iteration contraction factor exp(Slope).
	Rate float64
	// RSquared is the coefficient of determination of the fit.
	RSquared float64
	Points   int
}

// FitDecay fits the history of a solve. Records with a non-positive delta
// are skipped since their logarithm is undefined.
func FitDecay(history []heat.IterationRecord) (Decay, error) {
	xs := make([]float64, 0, len(history))
	ys := make([]float64, 0, len(history))
	for _, r := range history {
		if r.Delta > 0 && !math.IsInf(r.Delta, 0) {
			xs = append(xs, float64(r.Iteration))
			ys = append(ys, math.Log(r.Delta))
		}
	}
	if len(xs) < 2 || floats.Min(xs) == floats.Max(xs) {
		return Decay{}, ErrInsufficientData
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Decay{
		Intercept: alpha,
		Slope:     beta,
		Rate:      math.Exp(beta),
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		Points:    len(xs),
	}, nil
}

// PredictIterations returns the iteration at which the fitted delta reaches
// tol, or +Inf when the fit does not decay.
func (d Decay) PredictIterations(tol float64) float64 {
	if d.Slope >= 0 || tol <= 0 {
		return math.Inf(1)
	}
	return (math.Log(tol) - d.Intercept) / d.Slope
}

// Point is one entry of a sweep: a hot fraction and its iteration count.
type Point struct {
	Fraction   float64
	Iterations int
	Converged  bool
}

// PointFromResult extracts the sweep point of a solve.
func PointFromResult(r heat.SolveResult) Point {
	return Point{Fraction: r.Config.HotFraction, Iterations: r.FinalIteration, Converged: r.Converged}
}

// Summary describes N(f) over a sweep.
type Summary struct {
	Points []Point // sorted by fraction
	// Correlation is Pearson's r between fraction and iterations.
	Correlation    float64
	MeanIterations float64
	StdIterations  float64
	Fastest        Point
	Slowest        Point
	Unconverged    int
}

// Summarize computes the sweep summary. It needs at least two points.
func Summarize(points []Point) (Summary, error) {
	if len(points) < 2 {
		return Summary{}, ErrInsufficientData
	}
	sorted := append([]Point(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Fraction < sorted[j].Fraction })

	fs := make([]float64, len(sorted))
	ns := make([]float64, len(sorted))
	s := Summary{Points: sorted, Fastest: sorted[0], Slowest: sorted[0]}
	for i, p := range sorted {
		fs[i], ns[i] = p.Fraction, float64(p.Iterations)
		if p.Iterations < s.Fastest.Iterations {
			s.Fastest = p
		}
		if p.Iterations > s.Slowest.Iterations {
			s.Slowest = p
		}
		if !p.Converged {
			s.Unconverged++
		}
	}
	s.MeanIterations, s.StdIterations = stat.MeanStdDev(ns, nil)
	s.Correlation = stat.Correlation(fs, ns, nil)
	return s, nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
