// # Naming Conventions
//
// Functions in this package follow consistent naming patterns:
//
//   - Display* functions write formatted output to an [io.Writer].
//     Examples: [DisplayProgress], [DisplayQuietResults], [DisplayDecay].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatQuietResult].
//
//   - Write* functions write data to files on the filesystem.
//     Examples: [WriteOutputs].

package cli

import (
	"fmt"
	"io"

	"github.com/agbru/heatsolve/internal/export"
	"github.com/agbru/heatsolve/internal/format"
	"github.com/agbru/heatsolve/internal/orchestration"
	"github.com/agbru/heatsolve/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// Dir receives one file per successful simulation (empty for no file output).
	Dir string
	// Format selects the file format.
	Format export.Format
	// Quiet mode prints one line per simulation and nothing else.
	Quiet bool
}

// WriteOutputs writes the final field of every successful simulation into
// cfg.Dir. VTI output also gets a series.pvd collection that opens the whole
// batch in ParaView. It returns the written paths.
func WriteOutputs(outcomes []orchestration.SimulationOutcome, cfg OutputConfig) ([]string, error) {
	if cfg.Dir == "" {
		return nil, nil
	}

	var paths []string
	for _, o := range outcomes {
		if !o.Succeeded() {
			continue
		}
		path, err := export.WriteResult(cfg.Dir, o.Index, *o.Result, cfg.Format)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	if cfg.Format == export.FormatVTI && len(paths) > 1 {
		pvd, err := export.WriteCollection(cfg.Dir, paths)
		if err != nil {
			return paths, err
		}
		paths = append(paths, pvd)
	}
	return paths, nil
}

// FormatQuietResult formats an outcome as a single tab-separated line:
// index, hot fraction, iterations, final delta and status.
func FormatQuietResult(o orchestration.SimulationOutcome) string {
	if !o.Succeeded() {
		return fmt.Sprintf("%d\t%.3f\t-\t-\tfailed", o.Index, o.Config.HotFraction)
	}
	status := "converged"
	if !o.Result.Converged {
		status = "unconverged"
	}
	return fmt.Sprintf("%d\t%.3f\t%d\t%s\t%s",
		o.Index, o.Config.HotFraction, o.Result.FinalIteration, format.FormatDelta(o.Result.FinalDelta), status)
}

// DisplayQuietResults prints one FormatQuietResult line per outcome.
func DisplayQuietResults(outcomes []orchestration.SimulationOutcome, out io.Writer) {
	for _, o := range outcomes {
		fmt.Fprintln(out, FormatQuietResult(o))
	}
}

// DisplayWrittenFiles lists the files produced by WriteOutputs.
func DisplayWrittenFiles(paths []string, out io.Writer) {
	for _, p := range paths {
		fmt.Fprintf(out, "%s✓ Saved %s%s%s\n", ui.ColorGreen(), ui.ColorSecondary(), p, ui.ColorReset())
	}
}
