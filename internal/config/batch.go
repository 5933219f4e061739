package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
)

// batchFile is the on-disk layout of a batch:
//
//	defaults:
//	  grid_size: 101
//	  tolerance: 0.001
//	simulations:
//	  - hot_fraction: 0.1
//	  - hot_fraction: 0.3
//	    max_iterations: 20000
//
// Unset fields of a simulation fall back to defaults, then to the
// application defaults.
type batchFile struct {
	Defaults    batchEntry   `yaml:"defaults"`
	Simulations []batchEntry `yaml:"simulations"`
}

type batchEntry struct {
	HotFraction   *float64 `yaml:"hot_fraction"`
	GridSize      *int     `yaml:"grid_size"`
	Tolerance     *float64 `yaml:"tolerance"`
	MaxIterations *int     `yaml:"max_iterations"`
	SampleEvery   *int     `yaml:"sample_every"`
}

func (e batchEntry) over(base heat.SimulationConfig) heat.SimulationConfig {
	if e.HotFraction != nil {
		base.HotFraction = *e.HotFraction
	}
	if e.GridSize != nil {
		base.GridSize = *e.GridSize
	}
	if e.Tolerance != nil {
		base.Tolerance = *e.Tolerance
	}
	if e.MaxIterations != nil {
		base.MaxIterations = *e.MaxIterations
	}
	if e.SampleEvery != nil {
		base.SampleEvery = *e.SampleEvery
	}
	return base
}

// LoadBatch reads and validates a YAML batch file.
func LoadBatch(path string) ([]heat.SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("cannot read batch file: %v", err)
	}
	return ParseBatch(data)
}

// ParseBatch decodes a batch document. Unknown keys are rejected and the
// resulting batch must pass heat.ValidateBatch.
func ParseBatch(data []byte) ([]heat.SimulationConfig, error) {
	var doc batchFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewConfigError("invalid batch file: %v", err)
	}

	base := doc.Defaults.over(heat.SimulationConfig{
		GridSize:      DefaultGridSize,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		SampleEvery:   DefaultSampleEvery,
	})
	out := make([]heat.SimulationConfig, len(doc.Simulations))
	for i, e := range doc.Simulations {
		if e.HotFraction == nil {
			return nil, apperrors.ValidationError{
				Field:   fmt.Sprintf("configs[%d].hot_fraction", i),
				Message: "is required",
			}
		}
		out[i] = e.over(base)
	}
	if err := heat.ValidateBatch(out); err != nil {
		return nil, err
	}
	return out, nil
}
