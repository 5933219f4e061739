// Package cli renders runs in a terminal: a spinner with progress bars while
// the simulations execute, then a comparison table, the convergence analysis
// and the exported files.
package cli
