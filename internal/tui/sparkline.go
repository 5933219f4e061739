package tui

import "math"

// sparkBlocks maps levels 0..7 to Unicode block elements.
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Series is a fixed-capacity window over the most recent samples.
type Series struct {
	buf   []float64
	next  int
	count int
}

// NewSeries creates a series holding at most capacity samples (minimum 1).
func NewSeries(capacity int) *Series {
	return &Series{buf: make([]float64, max(capacity, 1))}
}

// Push appends v, dropping the oldest sample when full.
func (s *Series) Push(v float64) {
	s.buf[s.next] = v
	s.next = (s.next + 1) % len(s.buf)
	s.count = min(s.count+1, len(s.buf))
}

// Len returns the number of samples held.
func (s *Series) Len() int { return s.count }

// Cap returns the capacity.
func (s *Series) Cap() int { return len(s.buf) }

// Last returns the newest sample, or 0 when empty.
func (s *Series) Last() float64 {
	if s.count == 0 {
		return 0
	}
	return s.buf[(s.next-1+len(s.buf))%len(s.buf)]
}

// Values returns the samples oldest first, or nil when empty.
func (s *Series) Values() []float64 {
	if s.count == 0 {
		return nil
	}
	out := make([]float64, s.count)
	first := (s.next - s.count + len(s.buf)) % len(s.buf)
	for i := range out {
		out[i] = s.buf[(first+i)%len(s.buf)]
	}
	return out
}

// Resize changes the capacity and keeps the newest samples that fit.
func (s *Series) Resize(capacity int) {
	capacity = max(capacity, 1)
	if capacity == len(s.buf) {
		return
	}
	vals := s.Values()
	if len(vals) > capacity {
		vals = vals[len(vals)-capacity:]
	}
	*s = Series{buf: make([]float64, capacity)}
	for _, v := range vals {
		s.Push(v)
	}
}

// Reset drops all samples.
func (s *Series) Reset() {
	s.next, s.count = 0, 0
}

// level maps v in [lo, hi] to 0..steps-1, clamping out-of-range and NaN
// values to the bottom.
func level(v, lo, hi float64, steps int) int {
	if math.IsNaN(v) || hi <= lo || v <= lo {
		return 0
	}
	if v >= hi {
		return steps - 1
	}
	return min(int((v-lo)/(hi-lo)*float64(steps-1)), steps-1)
}

// RenderSparkline draws percentages (0..100) as a one-line sparkline.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	out := make([]rune, len(values))
	for i, v := range values {
		out[i] = sparkBlocks[level(v, 0, 100, len(sparkBlocks))]
	}
	return string(out)
}

// ResidualScale maps a residual history onto 0..100 on a log scale, where
// 100 is the first residual and 0 is the tolerance. Residuals at or below
// the tolerance map to 0.
func ResidualScale(deltas []float64, tolerance float64) []float64 {
	if len(deltas) == 0 || tolerance <= 0 || deltas[0] <= tolerance {
		return make([]float64, len(deltas))
	}
	top, bottom := math.Log10(deltas[0]), math.Log10(tolerance)
	out := make([]float64, len(deltas))
	for i, d := range deltas {
		if d <= tolerance {
			continue
		}
		out[i] = math.Min(100, (math.Log10(d)-bottom)/(top-bottom)*100)
	}
	return out
}

// brailleBits[col][row] is the dot bit of a 2×4 braille cell.
var brailleBits = [2][4]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// RenderBrailleChart plots percentages (0..100) as dots on a chart of
// width×rows characters, each character holding 2×4 dots. The newest values
// are on the right.
func RenderBrailleChart(values []float64, width, rows int) []string {
	if width <= 0 || rows <= 0 || len(values) == 0 {
		return nil
	}
	dotRows, dotCols := rows*4, width*2
	if len(values) > dotCols {
		values = values[len(values)-dotCols:]
	}
	offset := dotCols - len(values)

	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = make([]rune, 0, width)
		for range width {
			grid[r] = append(grid[r], 0x2800)
		}
	}
	for i, v := range values {
		x := offset + i
		y := dotRows - 1 - level(v, 0, 100, dotRows)
		grid[y/4][x/2] |= brailleBits[x%2][y%4]
	}

	out := make([]string, rows)
	for r := range grid {
		out[r] = string(grid[r])
	}
	return out
}
