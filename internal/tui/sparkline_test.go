package tui

import (
	"math"
	"slices"
	"testing"
)

func TestSeries(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		push     []float64
		resize   int // 0 keeps the capacity
		wantCap  int
		want     []float64
	}{
		{"partial", 5, []float64{1, 2}, 0, 5, []float64{1, 2}},
		{"full", 3, []float64{1, 2, 3}, 0, 3, []float64{1, 2, 3}},
		{"overflow keeps newest", 3, []float64{1, 2, 3, 4}, 0, 3, []float64{2, 3, 4}},
		{"zero capacity holds one", 0, []float64{7, 42}, 0, 1, []float64{42}},
		{"grow", 3, []float64{1, 2, 3}, 5, 5, []float64{1, 2, 3}},
		{"shrink keeps newest", 5, []float64{1, 2, 3, 4, 5}, 3, 3, []float64{3, 4, 5}},
		{"same capacity", 3, []float64{1, 2}, 3, 3, []float64{1, 2}},
		{"grow after wrap", 2, []float64{1, 2, 3}, 4, 4, []float64{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeries(tt.capacity)
			for _, v := range tt.push {
				s.Push(v)
			}
			if tt.resize != 0 {
				s.Resize(tt.resize)
			}
			if s.Cap() != tt.wantCap {
				t.Errorf("Cap() = %d, want %d", s.Cap(), tt.wantCap)
			}
			if got := s.Values(); !slices.Equal(got, tt.want) {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
			if s.Len() != len(tt.want) || s.Last() != tt.want[len(tt.want)-1] {
				t.Errorf("Len() = %d, Last() = %v", s.Len(), s.Last())
			}
		})
	}
}

func TestSeries_EmptyAndReset(t *testing.T) {
	s := NewSeries(4)
	if s.Last() != 0 || s.Values() != nil {
		t.Error("an empty series should have no values and a zero Last")
	}
	s.Push(1)
	s.Push(2)
	s.Reset()
	if s.Len() != 0 || s.Values() != nil {
		t.Errorf("after Reset: Len() = %d, Values() = %v", s.Len(), s.Values())
	}
	s.Push(9)
	if got := s.Values(); !slices.Equal(got, []float64{9}) {
		t.Errorf("Values() after reuse = %v", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"empty", nil, ""},
		{"zero", []float64{0, 0}, "▁▁"},
		{"full", []float64{100, 100}, "██"},
		{"clamped", []float64{-10, 150, math.NaN()}, "▁█▁"},
		{"midpoint", []float64{50}, "▄"},
		{"gradient", []float64{0, 15, 29, 43, 58, 72, 86, 100}, "▁▂▃▄▅▆▇█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderSparkline(tt.values); got != tt.want {
				t.Errorf("RenderSparkline(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestResidualScale(t *testing.T) {
	got := ResidualScale([]float64{1, 0.1, 0.01, 0.001, 0.0001}, 0.001)
	want := []float64{100, 66.67, 33.33, 0, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 0.01 {
			t.Errorf("index %d: got %.2f, want %.2f", i, got[i], want[i])
		}
	}
	if z := ResidualScale([]float64{0.0005, 0.0001}, 0.001); z[0] != 0 || z[1] != 0 {
		t.Errorf("history starting below tolerance should map to zero, got %v", z)
	}
	if n := len(ResidualScale(nil, 0.001)); n != 0 {
		t.Errorf("len = %d, want 0", n)
	}
}

func TestRenderBrailleChart(t *testing.T) {
	if RenderBrailleChart(nil, 10, 2) != nil {
		t.Error("expected nil for empty values")
	}

	lines := RenderBrailleChart([]float64{0, 100}, 4, 2)
	if len(lines) != 2 {
		t.Fatalf("rows = %d, want 2", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 4 {
			t.Fatalf("width = %d, want 4", n)
		}
	}
	// Values are right-aligned: the last cell holds both dots.
	top, bottom := []rune(lines[0]), []rune(lines[1])
	if top[3] == 0x2800 {
		t.Error("100% should light a dot in the top row")
	}
	if bottom[3] == 0x2800 {
		t.Error("0% should light a dot in the bottom row")
	}
	if top[0] != 0x2800 || bottom[0] != 0x2800 {
		t.Error("leading cells should be empty")
	}
}

func TestRenderBrailleChart_Overflow(t *testing.T) {
	values := make([]float64, 50)
	lines := RenderBrailleChart(values, 5, 1)
	if len([]rune(lines[0])) != 5 {
		t.Fatalf("unexpected width %d", len([]rune(lines[0])))
	}
}
