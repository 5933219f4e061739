package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("heatsolve", nil, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ModeRun, cfg.Mode)
	assert.Equal(t, DefaultFractions, cfg.Fractions)
	assert.Equal(t, DefaultGridSize, cfg.GridSize)
	assert.Equal(t, DefaultTolerance, cfg.Tolerance)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, DefaultSampleEvery, cfg.SampleEvery)
	assert.Equal(t, DefaultFlush, cfg.FlushInterval)
	assert.Equal(t, "vti", cfg.Format)
	assert.GreaterOrEqual(t, cfg.SweepConcurrency, 1)

	sims := cfg.Simulations()
	require.Len(t, sims, 3)
	for i, s := range sims {
		assert.Equal(t, DefaultFractions[i], s.HotFraction)
		assert.NoError(t, s.Validate())
	}
}

func TestParseConfigFlags(t *testing.T) {
	args := []string{
		"--mode", "SWEEP", "--fractions", "0.1, 0.5", "--grid", "101", "--tol", "0.0005",
		"--max-iter", "20000", "--sample-every", "25", "-o", "out", "--format", "CSV",
		"--timeout", "1m", "-v",
	}
	cfg, err := ParseConfig("heatsolve", args, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, ModeSweep, cfg.Mode)
	assert.Equal(t, []float64{0.1, 0.5}, cfg.Fractions)
	assert.Equal(t, 101, cfg.GridSize)
	assert.Equal(t, 0.0005, cfg.Tolerance)
	assert.Equal(t, 20000, cfg.MaxIterations)
	assert.Equal(t, 25, cfg.SampleEvery)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.True(t, cfg.Verbose)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"bad fraction list", []string{"--fractions", "0.1,abc"}},
		{"unknown mode", []string{"--mode", "gui"}},
		{"bad format", []string{"--format", "png"}},
		{"quiet and verbose", []string{"-q", "-v"}},
		{"negative flush", []string{"--flush", "-1s"}},
		{"bad sweep range", []string{"--mode", "sweep", "--sweep-min", "0.9", "--sweep-max", "0.5"}},
		{"positional argument", []string{"extra"}},
		{"missing batch file", []string{"--batch", "/nonexistent/batch.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig("heatsolve", tt.args, io.Discard)
			require.Error(t, err)
			var ce apperrors.ConfigError
			assert.True(t, errors.As(err, &ce), "want ConfigError, got %T: %v", err, err)
		})
	}
}

func TestParseConfigHelp(t *testing.T) {
	_, err := ParseConfig("heatsolve", []string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"GRID", "81")
	t.Setenv(EnvPrefix+"FRACTIONS", "0.25,0.75")
	t.Setenv(EnvPrefix+"TIMEOUT", "45s")
	t.Setenv(EnvPrefix+"QUIET", "yes")
	t.Setenv(EnvPrefix+"MAX_ITER", "not-a-number")

	cfg, err := ParseConfig("heatsolve", []string{"--grid", "61"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 61, cfg.GridSize, "CLI flag must win over env")
	assert.Equal(t, []float64{0.25, 0.75}, cfg.Fractions)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.True(t, cfg.Quiet)
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations, "unparseable env must be ignored")
}

func TestParseBoolEnv(t *testing.T) {
	for in, want := range map[string]bool{"TRUE": true, "1": true, "yes": true, "no": false, "0": false} {
		assert.Equal(t, want, parseBoolEnv(in, !want), in)
	}
	assert.True(t, parseBoolEnv("maybe", true))
}

func TestParseBatch(t *testing.T) {
	doc := []byte(`
defaults:
  grid_size: 101
  tolerance: 0.0005
simulations:
  - hot_fraction: 0.1
  - hot_fraction: 0.3
    max_iterations: 20000
    sample_every: 10
`)
	batch, err := ParseBatch(doc)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, heat.SimulationConfig{
		HotFraction: 0.1, GridSize: 101, Tolerance: 0.0005,
		MaxIterations: DefaultMaxIterations, SampleEvery: DefaultSampleEvery,
	}, batch[0])
	assert.Equal(t, 20000, batch[1].MaxIterations)
	assert.Equal(t, 10, batch[1].SampleEvery)
	assert.Equal(t, 101, batch[1].GridSize)
}

func TestParseBatchErrors(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{"unknown key", "simulations:\n  - hot_fraction: 0.1\n    colour: red\n", ""},
		{"missing fraction", "simulations:\n  - grid_size: 51\n", "configs[0].hot_fraction"},
		{"out of range", "simulations:\n  - hot_fraction: 0.1\n  - hot_fraction: 0.2\n    grid_size: 7\n", "configs[1].grid_size"},
		{"empty", "", "configs"},
		{"too many", "simulations:\n" + strings.Repeat("  - hot_fraction: 0.1\n", 6), "configs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatch([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, apperrors.IsValidationError(err))
			if tt.wantField != "" {
				var ve apperrors.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
			}
		})
	}
}

func TestLoadBatchFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulations:\n  - hot_fraction: 0.4\n"), 0o600))

	cfg, err := ParseConfig("heatsolve", []string{"--batch", path, "--fractions", "0.1,0.2"}, io.Discard)
	require.NoError(t, err)

	sims := cfg.Simulations()
	require.Len(t, sims, 1)
	assert.Equal(t, 0.4, sims[0].HotFraction)
}

func TestEstimateSweepConcurrency(t *testing.T) {
	n := EstimateSweepConcurrency()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, heat.MaxBatchSize)
}
