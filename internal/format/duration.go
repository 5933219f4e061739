package format

import (
	"fmt"
	"time"
)

// FormatExecutionDuration formats a solver wall time for display.
// Durations below a millisecond print in microseconds, durations below a
// second in milliseconds, and longer ones with time.Duration's own format.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// FormatRate formats an iteration throughput such as "12.3k it/s".
func FormatRate(iterations int, d time.Duration) string {
	if d <= 0 || iterations <= 0 {
		return "-"
	}
	rate := float64(iterations) / d.Seconds()
	if rate >= 1000 {
		return fmt.Sprintf("%.1fk it/s", rate/1000)
	}
	return fmt.Sprintf("%.0f it/s", rate)
}
