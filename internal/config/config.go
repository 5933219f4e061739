// Package config parses command-line flags, environment variables and batch
// files into an AppConfig.
//
// Resolution order, highest priority first:
//  1. CLI flags
//  2. Environment variables (HEATSOLVE_*)
//  3. A YAML batch file for the simulation list (--batch)
//  4. Static defaults
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/heat"
)

// EnvPrefix prefixes every environment variable read by the application.
const EnvPrefix = "HEATSOLVE_"

// Execution modes.
const (
	ModeRun   = "run"
	ModeSweep = "sweep"
	ModeServe = "serve"
	ModeTUI   = "tui"
)

// Defaults.
const (
	DefaultGridSize      = 51
	DefaultTolerance     = 1e-3
	DefaultMaxIterations = 15000
	DefaultSampleEvery   = 100
	DefaultAddr          = ":8080"
	DefaultFlush         = 333 * time.Millisecond
	DefaultTimeout       = 10 * time.Minute
	DefaultSweepCount    = 10
	DefaultSweepMin      = 0.05
	DefaultSweepMax      = 0.8
	DefaultFormat        = "vti"
)

// DefaultFractions is the hot-fraction list used when none is given.
var DefaultFractions = []float64{0.1, 0.2, 0.33}

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Mode selects the front end: run, sweep, serve or tui.
	Mode string
	// Fractions lists one hot fraction per simulation in run and tui modes.
	Fractions []float64
	// GridSize, Tolerance, MaxIterations and SampleEvery apply to every
	// simulation built from Fractions.
	GridSize      int
	Tolerance     float64
	MaxIterations int
	SampleEvery   int
	// BatchFile, when set, replaces Fractions with a YAML batch.
	BatchFile string
	// Batch holds the simulations loaded from BatchFile.
	Batch []heat.SimulationConfig

	// SweepCount, SweepMin and SweepMax describe the sweep fractions.
	SweepCount int
	SweepMin   float64
	SweepMax   float64
	// SweepConcurrency bounds how many sweep simulations share a run.
	SweepConcurrency int

	// Addr is the listen address in serve mode.
	Addr string
	// FlushInterval is the minimum spacing between progress batches.
	FlushInterval time.Duration
	// OutputDir receives exported fields; empty disables export.
	OutputDir string
	// Format is the export format, vti or csv.
	Format string
	// Timeout bounds a run in run, sweep and tui modes.
	Timeout time.Duration

	Quiet   bool
	Verbose bool
	NoColor bool
}

// Simulations returns the batch to run: the YAML batch when one was loaded,
// otherwise one configuration per fraction with the shared parameters.
func (c AppConfig) Simulations() []heat.SimulationConfig {
	if len(c.Batch) > 0 {
		return slices.Clone(c.Batch)
	}
	out := make([]heat.SimulationConfig, len(c.Fractions))
	for i, f := range c.Fractions {
		out[i] = c.simulation(f)
	}
	return out
}

func (c AppConfig) simulation(fraction float64) heat.SimulationConfig {
	return heat.SimulationConfig{
		HotFraction:   fraction,
		GridSize:      c.GridSize,
		Tolerance:     c.Tolerance,
		MaxIterations: c.MaxIterations,
		SampleEvery:   c.SampleEvery,
	}
}

// SweepSimulation returns the configuration used for one sweep point.
func (c AppConfig) SweepSimulation(fraction float64) heat.SimulationConfig {
	return c.simulation(fraction)
}

// Validate checks the mode-independent constraints. Simulation ranges are
// enforced by heat.ValidateBatch when a run starts.
func (c AppConfig) Validate() error {
	switch c.Mode {
	case ModeRun, ModeSweep, ModeServe, ModeTUI:
	default:
		return apperrors.NewConfigError("unknown mode %q (want run, sweep, serve or tui)", c.Mode)
	}
	if c.Mode == ModeSweep {
		if c.SweepCount < 2 {
			return apperrors.NewConfigError("--sweep-count must be at least 2, got %d", c.SweepCount)
		}
		if !(c.SweepMin > 0 && c.SweepMin < c.SweepMax && c.SweepMax <= 1) {
			return apperrors.NewConfigError("sweep range must satisfy 0 < min < max <= 1, got [%v, %v]", c.SweepMin, c.SweepMax)
		}
	}
	if c.FlushInterval <= 0 {
		return apperrors.NewConfigError("--flush must be positive, got %s", c.FlushInterval)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("--timeout must be positive, got %s", c.Timeout)
	}
	if c.Format != "vti" && c.Format != "csv" {
		return apperrors.NewConfigError("--format must be vti or csv, got %q", c.Format)
	}
	if c.Quiet && c.Verbose {
		return apperrors.NewConfigError("--quiet and --verbose are mutually exclusive")
	}
	return nil
}

// fractionsValue implements flag.Value for a comma-separated list of floats.
type fractionsValue struct{ dst *[]float64 }

func (v fractionsValue) String() string {
	if v.dst == nil {
		return ""
	}
	parts := make([]string, len(*v.dst))
	for i, f := range *v.dst {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (v fractionsValue) Set(s string) error {
	fs, err := ParseFractions(s)
	if err != nil {
		return err
	}
	*v.dst = fs
	return nil
}

// ParseFractions parses "0.1,0.2,0.33" into a slice.
func ParseFractions(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid hot fraction %q", part)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New("no hot fractions given")
	}
	return out, nil
}

// ParseConfig parses the command-line arguments, applies environment
// overrides and loads the batch file if one is named.
//
// Parameters:
//   - programName: The name of the program, used in usage output.
//   - args: The arguments, without the program name.
//   - errorWriter: Receives usage and parse errors.
//
// Returns:
//   - AppConfig: The resolved configuration.
//   - error: flag.ErrHelp for -h, or a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{Fractions: slices.Clone(DefaultFractions)}
	fs.StringVar(&config.Mode, "mode", ModeRun, "Front end: run, sweep, serve or tui.")
	fs.Var(fractionsValue{&config.Fractions}, "fractions", "Comma-separated hot fractions, one simulation each.")
	fs.IntVar(&config.GridSize, "grid", DefaultGridSize, "Grid size N for an N×N plate.")
	fs.Float64Var(&config.Tolerance, "tol", DefaultTolerance, "Convergence tolerance on the step delta.")
	fs.IntVar(&config.MaxIterations, "max-iter", DefaultMaxIterations, "Iteration cap per simulation.")
	fs.IntVar(&config.SampleEvery, "sample-every", DefaultSampleEvery, "History sampling period in iterations.")
	fs.StringVar(&config.BatchFile, "batch", "", "YAML file describing the simulations to run.")
	fs.IntVar(&config.SweepCount, "sweep-count", DefaultSweepCount, "Number of fractions in sweep mode.")
	fs.Float64Var(&config.SweepMin, "sweep-min", DefaultSweepMin, "Smallest fraction in sweep mode.")
	fs.Float64Var(&config.SweepMax, "sweep-max", DefaultSweepMax, "Largest fraction in sweep mode.")
	fs.StringVar(&config.Addr, "addr", DefaultAddr, "Listen address in serve mode.")
	fs.DurationVar(&config.FlushInterval, "flush", DefaultFlush, "Minimum spacing between progress updates.")
	fs.StringVar(&config.OutputDir, "output", "", "Directory for exported fields (disabled if empty).")
	fs.StringVar(&config.OutputDir, "o", "", "Shorthand for --output.")
	fs.StringVar(&config.Format, "format", DefaultFormat, "Export format: vti or csv.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum duration of a run.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print results only.")
	fs.BoolVar(&config.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&config.Verbose, "verbose", false, "Print the convergence analysis and debug logs.")
	fs.BoolVar(&config.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	applyEnvOverrides(&config, fs)
	config.Mode = strings.ToLower(config.Mode)
	config.Format = strings.ToLower(config.Format)
	config.SweepConcurrency = EstimateSweepConcurrency()

	if err := config.Validate(); err != nil {
		return AppConfig{}, err
	}
	if config.BatchFile != "" {
		batch, err := LoadBatch(config.BatchFile)
		if err != nil {
			return AppConfig{}, err
		}
		config.Batch = batch
	}
	return config, nil
}
