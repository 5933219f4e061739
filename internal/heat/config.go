package heat

import (
	"fmt"
	"math"

	apperrors "github.com/agbru/heatsolve/internal/errors"
)

// Accepted ranges for externally submitted configurations.
const (
	MinGridSize      = 21
	MaxGridSize      = 181
	MaxTolerance     = 0.01
	MinMaxIterations = 1000
	MaxMaxIterations = 20000
	MinBatchSize     = 1
	MaxBatchSize     = 5
)

// Pinned temperatures.
const (
	ColdValue = 0.0
	HotValue  = 1.0
)

// SimulationConfig parameterizes one solve. It is passed by value, so a
// Solver's copy cannot change once the solve has started.
type SimulationConfig struct {
	// HotFraction is the side of the centered hot square relative to GridSize.
	HotFraction float64 `json:"hot_fraction" yaml:"hot_fraction"`
	// GridSize is N for the N×N grid.
	GridSize int `json:"grid_size" yaml:"grid_size"`
	// Tolerance stops the solve once a step's delta falls strictly below it.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
	// MaxIterations caps the number of steps.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// SampleEvery sets the history sampling period in iterations.
	SampleEvery int `json:"sample_every" yaml:"sample_every"`
}

// DefaultConfig returns the configuration used when a caller only varies
// the hot fraction.
func DefaultConfig(hotFraction float64) SimulationConfig {
	return SimulationConfig{
		HotFraction:   hotFraction,
		GridSize:      51,
		Tolerance:     1e-3,
		MaxIterations: 15000,
		SampleEvery:   100,
	}
}

// HotSide returns the side length of the hot square for this configuration.
func (c SimulationConfig) HotSide() int {
	return HotSide(c.GridSize, c.HotFraction)
}

// HotSide computes round(fraction × n) clamped to [1, n-2].
func HotSide(n int, fraction float64) int {
	side := int(math.Round(fraction * float64(n)))
	if side < 1 {
		side = 1
	}
	if side > n-2 {
		side = n - 2
	}
	return side
}

// Validate checks a configuration against the accepted external ranges.
// The returned error is an apperrors.ValidationError naming the field.
func (c SimulationConfig) Validate() error {
	switch {
	case !(c.HotFraction > 0 && c.HotFraction <= 1):
		return invalid("hot_fraction", "must be in (0, 1], got %v", c.HotFraction)
	case c.GridSize < MinGridSize || c.GridSize > MaxGridSize:
		return invalid("grid_size", "must be in [%d, %d], got %d", MinGridSize, MaxGridSize, c.GridSize)
	case !(c.Tolerance > 0 && c.Tolerance <= MaxTolerance):
		return invalid("tolerance", "must be in (0, %v], got %v", MaxTolerance, c.Tolerance)
	case c.MaxIterations < MinMaxIterations || c.MaxIterations > MaxMaxIterations:
		return invalid("max_iterations", "must be in [%d, %d], got %d", MinMaxIterations, MaxMaxIterations, c.MaxIterations)
	case c.SampleEvery < 1:
		return invalid("sample_every", "must be at least 1, got %d", c.SampleEvery)
	}
	return nil
}

// ValidateBatch validates a whole start request. Any invalid entry rejects
// the batch; the error names the offending entry, e.g. "configs[2].tolerance".
func ValidateBatch(configs []SimulationConfig) error {
	if len(configs) < MinBatchSize || len(configs) > MaxBatchSize {
		return invalid("configs", "must contain between %d and %d entries, got %d", MinBatchSize, MaxBatchSize, len(configs))
	}
	for i, c := range configs {
		if err := c.Validate(); err != nil {
			ve := err.(apperrors.ValidationError)
			ve.Field = fmt.Sprintf("configs[%d].%s", i, ve.Field)
			return ve
		}
	}
	return nil
}

// checkRunnable enforces only what the solver itself needs. It is looser than
// Validate so that tests and sweeps can use tolerance 0 or small grids.
func (c SimulationConfig) checkRunnable() error {
	switch {
	case c.GridSize < 3:
		return invalid("grid_size", "must be at least 3, got %d", c.GridSize)
	case c.MaxIterations < 1:
		return invalid("max_iterations", "must be positive, got %d", c.MaxIterations)
	case c.SampleEvery < 1:
		return invalid("sample_every", "must be at least 1, got %d", c.SampleEvery)
	case math.IsNaN(c.HotFraction) || math.IsNaN(c.Tolerance):
		return invalid("config", "contains NaN")
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return apperrors.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
