package heat

import "math"

// Field is an N×N temperature grid stored row-major with two buffers. A Step
// reads only the current buffer and writes only the next one, then swaps
// them, so every free cell's update sees the values of the previous sweep.
//
// Pinned cells (the border and the hot square) hold the same value in both
// buffers from construction on and are never written again.
type Field struct {
	n      int
	cur    []float64
	next   []float64
	pinned []bool
	hot    Rect
}

// Rect is a half-open [Row0,Row1)×[Col0,Col1) cell range.
type Rect struct {
	Row0, Row1 int
	Col0, Col1 int
}

// Contains reports whether (i, j) is inside the rectangle.
func (r Rect) Contains(i, j int) bool {
	return i >= r.Row0 && i < r.Row1 && j >= r.Col0 && j < r.Col1
}

// HotSquare returns the centered hot square for an n×n grid.
func HotSquare(n int, fraction float64) Rect {
	side := HotSide(n, fraction)
	origin := (n - side) / 2
	return Rect{Row0: origin, Row1: origin + side, Col0: origin, Col1: origin + side}
}

// NewField builds the initial grid: border at ColdValue, hot square at
// HotValue, every other cell at ColdValue.
func NewField(n int, hotFraction float64) *Field {
	f := &Field{
		n:      n,
		cur:    make([]float64, n*n),
		next:   make([]float64, n*n),
		pinned: make([]bool, n*n),
		hot:    HotSquare(n, hotFraction),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			k := i*n + j
			switch {
			case i == 0 || j == 0 || i == n-1 || j == n-1:
				f.pinned[k] = true
				f.cur[k], f.next[k] = ColdValue, ColdValue
			case f.hot.Contains(i, j):
				f.pinned[k] = true
				f.cur[k], f.next[k] = HotValue, HotValue
			}
		}
	}
	return f
}

// Size returns N.
func (f *Field) Size() int { return f.n }

// HotRegion returns the pinned hot square.
func (f *Field) HotRegion() Rect { return f.hot }

// At returns the current temperature at row i, column j.
func (f *Field) At(i, j int) float64 { return f.cur[i*f.n+j] }

// IsPinned reports whether the cell at (i, j) is fixed.
func (f *Field) IsPinned(i, j int) bool { return f.pinned[i*f.n+j] }

// Step performs one synchronous Jacobi sweep and returns the largest absolute
// change over free cells. It returns 0 when the grid has no free cells.
func (f *Field) Step() float64 {
	n := f.n
	cur, next := f.cur, f.next
	var delta float64
	for i := 1; i < n-1; i++ {
		row := i * n
		for j := 1; j < n-1; j++ {
			k := row + j
			if f.pinned[k] {
				continue
			}
			v := 0.25 * (cur[k-n] + cur[k+n] + cur[k-1] + cur[k+1])
			if d := math.Abs(v - cur[k]); d > delta || math.IsNaN(d) {
				delta = d
			}
			next[k] = v
		}
	}
	f.cur, f.next = next, cur
	return delta
}

// Snapshot returns an independent copy of the current grid.
func (f *Field) Snapshot() Grid {
	cells := make([]float64, len(f.cur))
	copy(cells, f.cur)
	return Grid{N: f.n, Cells: cells}
}

// Grid is an immutable N×N temperature snapshot in row-major order.
type Grid struct {
	N     int       `json:"n"`
	Cells []float64 `json:"cells"`
}

// At returns the temperature at row i, column j.
func (g Grid) At(i, j int) float64 { return g.Cells[i*g.N+j] }

// Row returns a copy of row i.
func (g Grid) Row(i int) []float64 {
	row := make([]float64, g.N)
	copy(row, g.Cells[i*g.N:(i+1)*g.N])
	return row
}

// Rows returns the grid as a slice of rows, the layout used by JSON payloads.
func (g Grid) Rows() [][]float64 {
	rows := make([][]float64, g.N)
	for i := range rows {
		rows[i] = g.Row(i)
	}
	return rows
}
