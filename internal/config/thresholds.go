package config

import (
	"runtime"

	"github.com/agbru/heatsolve/internal/heat"
)

// EstimateSweepConcurrency provides a heuristic for how many sweep points
// share one run. A run never holds more than heat.MaxBatchSize simulations,
// and on small machines fewer solvers avoid oversubscribing the cores.
func EstimateSweepConcurrency() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU <= 1:
		return 1
	case numCPU <= 2:
		return 2
	case numCPU < heat.MaxBatchSize:
		return numCPU
	default:
		return heat.MaxBatchSize
	}
}
