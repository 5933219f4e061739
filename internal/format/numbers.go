package format

import (
	"fmt"
	"math"
	"strings"
)

// FormatDelta prints a residual in scientific notation, which keeps values
// that span several orders of magnitude aligned in tables.
func FormatDelta(d float64) string {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return fmt.Sprint(d)
	}
	return fmt.Sprintf("%.3e", d)
}

// FormatPercent prints a progress percentage with one decimal.
func FormatPercent(p float64) string {
	switch {
	case math.IsNaN(p), p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	return fmt.Sprintf("%5.1f%%", p)
}

// FormatBytes converts a byte count to a human-readable string.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// ProgressBar renders a bar of the given width for a fraction in [0, 1].
// Out-of-range fractions are clamped.
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(clamp01(fraction) * float64(width))
	var b strings.Builder
	b.Grow(width * 3)
	b.WriteString(strings.Repeat("█", filled))
	b.WriteString(strings.Repeat("░", width-filled))
	return b.String()
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
