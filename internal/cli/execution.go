package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/heatsolve/internal/config"
	"github.com/agbru/heatsolve/internal/heat"
	"github.com/agbru/heatsolve/internal/ui"
)

// PrintExecutionConfig displays the run parameters and the environment.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Mode %s%s%s with a timeout of %s%s%s.\n",
		ui.ColorPrimary(), cfg.Mode, ui.ColorReset(), ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorSecondary(), runtime.NumCPU(), ui.ColorReset(), ui.ColorSecondary(), runtime.Version(), ui.ColorReset())
	if cfg.OutputDir != "" {
		fmt.Fprintf(out, "Final fields are written to %s%s%s as %s.\n",
			ui.ColorSecondary(), cfg.OutputDir, ui.ColorReset(), cfg.Format)
	}
}

// PrintExecutionMode lists the simulations about to run.
func PrintExecutionMode(configs []heat.SimulationConfig, out io.Writer) {
	if len(configs) == 1 {
		fmt.Fprintf(out, "Execution mode: single simulation.\n")
	} else {
		fmt.Fprintf(out, "Execution mode: %s%d%s concurrent simulations.\n", ui.ColorGreen(), len(configs), ui.ColorReset())
	}
	for i, c := range configs {
		fmt.Fprintf(out, "  #%d  f=%s%.3f%s  N=%d  tol=%g  max=%d  hot square %d×%d\n",
			i, ui.ColorPrimary(), c.HotFraction, ui.ColorReset(), c.GridSize, c.Tolerance, c.MaxIterations,
			c.HotSide(), c.HotSide())
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
