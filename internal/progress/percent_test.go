package progress

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPercent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                      string
		initial, delta, tolerance float64
		want                      float64
	}{
		{"at start", 0.25, 0.25, 1e-3, 0},
		{"halfway on log scale", 1, 0.01, 1e-4, 50},
		{"at tolerance is capped", 0.25, 1e-3, 1e-3, RunningCap},
		{"below tolerance is capped", 0.25, 1e-5, 1e-3, RunningCap},
		{"delta above initial", 0.25, 0.3, 1e-3, 0},
		{"initial below tolerance", 1e-4, 1e-5, 1e-3, 0},
		{"zero initial", 0, 0, 1e-3, 0},
		{"zero tolerance", 0.25, 0.1, 0, 0},
		{"NaN delta", 0.25, math.NaN(), 1e-3, 0},
		{"infinite initial", math.Inf(1), 0.1, 1e-3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Percent(tt.initial, tt.delta, tt.tolerance)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Percent(%v, %v, %v) = %v, want %v", tt.initial, tt.delta, tt.tolerance, got, tt.want)
			}
		})
	}
}

// TestPercentMonotone_PropertyBased checks that a smaller delta never yields
// a smaller percentage and that the result stays within [0, RunningCap].
func TestPercentMonotone_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("percent is bounded and monotone in delta", prop.ForAll(
		func(a, b float64) bool {
			const initial, tol = 0.25, 1e-3
			hi, lo := math.Max(a, b), math.Min(a, b)
			pHi := Percent(initial, hi, tol)
			pLo := Percent(initial, lo, tol)
			return pHi >= 0 && pLo <= RunningCap && pLo >= pHi
		},
		gen.Float64Range(1e-6, 0.5),
		gen.Float64Range(1e-6, 0.5),
	))

	properties.TestingRun(t)
}
