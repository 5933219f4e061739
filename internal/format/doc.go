// Package format provides pure string formatting shared by the CLI, the
// dashboard and the server: durations, residuals, percentages and bars.
package format
