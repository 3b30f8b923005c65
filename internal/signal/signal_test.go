package signal

import (
	"math"
	"testing"

	"github.com/chrissnell/eventtable/internal/types"
)

func TestGradient(t *testing.T) {
	tests := []struct {
		name     string
		f        []float64
		t        []float64
		expected []float64
	}{
		{
			name:     "single sample",
			f:        []float64{30.0},
			t:        []float64{2.5},
			expected: []float64{0},
		},
		{
			name:     "uniform quadratic",
			f:        []float64{0, 1, 4, 9},
			t:        []float64{0, 1, 2, 3},
			expected: []float64{1, 2, 4, 5},
		},
		{
			// second-order interior stencil is exact for quadratics
			name:     "non-uniform quadratic",
			f:        []float64{0, 0.25, 4},
			t:        []float64{0, 0.5, 2},
			expected: []float64{0.5, 1.0, 2.5},
		},
		{
			name:     "repeated junction timestamp",
			f:        []float64{0, 1, 2, 4},
			t:        []float64{0, 1, 1, 2},
			expected: []float64{1, 1, 2, 2},
		},
		{
			name:     "all timestamps equal",
			f:        []float64{1, 2, 3},
			t:        []float64{5, 5, 5},
			expected: []float64{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Gradient(tt.f, tt.t)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d results, got %d", len(tt.expected), len(result))
			}
			for i, val := range result {
				if math.Abs(val-tt.expected[i]) > 1e-9 {
					t.Errorf("point %d: expected %.6f, got %.6f", i, tt.expected[i], val)
				}
			}
		})
	}
}

func TestGaussianKernel(t *testing.T) {
	kernel := GaussianKernel(2, DefaultTruncate)

	if len(kernel) != 17 {
		t.Fatalf("expected radius 8 (17 taps), got %d taps", len(kernel))
	}

	sum := 0.0
	for i, w := range kernel {
		sum += w
		if math.Abs(w-kernel[len(kernel)-1-i]) > 1e-15 {
			t.Errorf("kernel not symmetric at %d", i)
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("kernel sums to %.15f, expected 1", sum)
	}

	for i := 1; i <= 8; i++ {
		if kernel[8+i] >= kernel[8+i-1] {
			t.Errorf("kernel should decrease away from the centre, tap %d", 8+i)
		}
	}
}

func TestGaussianFilter1D(t *testing.T) {
	t.Run("constant signal unchanged", func(t *testing.T) {
		data := []float64{3, 3, 3, 3, 3}
		for i, v := range GaussianFilter1D(data, 2) {
			if math.Abs(v-3) > 1e-12 {
				t.Errorf("point %d: expected 3, got %.12f", i, v)
			}
		}
	})

	t.Run("single sample", func(t *testing.T) {
		result := GaussianFilter1D([]float64{5}, 2)
		if len(result) != 1 || math.Abs(result[0]-5) > 1e-12 {
			t.Errorf("expected [5], got %v", result)
		}
	})

	t.Run("impulse away from edges reproduces kernel", func(t *testing.T) {
		data := make([]float64, 41)
		data[20] = 1
		result := GaussianFilter1D(data, 2)
		kernel := GaussianKernel(2, DefaultTruncate)
		for k, w := range kernel {
			if math.Abs(result[20-8+k]-w) > 1e-12 {
				t.Errorf("tap %d: expected %.12f, got %.12f", k, w, result[20-8+k])
			}
		}
		if result[0] != 0 || result[40] != 0 {
			t.Errorf("impulse leaked beyond kernel radius")
		}
	})

	t.Run("reflect mode preserves mass", func(t *testing.T) {
		data := []float64{10, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
		sum := 0.0
		for _, v := range GaussianFilter1D(data, 2) {
			sum += v
		}
		if math.Abs(sum-10) > 1e-9 {
			t.Errorf("expected mass 10, got %.12f", sum)
		}
	})

	t.Run("zero sigma copies", func(t *testing.T) {
		data := []float64{1, 5, 2}
		result := GaussianFilter1D(data, 0)
		result[0] = 99
		if data[0] != 1 {
			t.Errorf("filter must not alias its input")
		}
	})
}

func TestReflectIndex(t *testing.T) {
	expected := map[int]int{-4: 2, -3: 2, -2: 1, -1: 0, 0: 0, 2: 2, 3: 2, 4: 1, 5: 0, 6: 0, 7: 1}
	for i, want := range expected {
		if got := reflectIndex(i, 3); got != want {
			t.Errorf("reflectIndex(%d, 3) = %d, expected %d", i, got, want)
		}
	}
	if got := reflectIndex(-7, 1); got != 0 {
		t.Errorf("single-element reflection should always map to 0, got %d", got)
	}
}

func TestPreprocessorRate(t *testing.T) {
	p := NewPreprocessor(DefaultSmoothness)

	t.Run("empty series", func(t *testing.T) {
		_, err := p.Rate(types.TimeSeries{})
		if err == nil {
			t.Fatal("expected error for empty series")
		}
	})

	t.Run("single sample", func(t *testing.T) {
		rate, err := p.Rate(types.TimeSeries{Times: []float64{2.5}, Angles: []float64{30}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rate) != 1 || rate[0] != 0 {
			t.Errorf("expected [0], got %v", rate)
		}
	})

	t.Run("direction is discarded", func(t *testing.T) {
		times := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5}
		pos, _ := p.Rate(types.TimeSeries{Times: times, Angles: []float64{0, 5, 10, 15, 20, 25}})
		neg, _ := p.Rate(types.TimeSeries{Times: times, Angles: []float64{0, -5, -10, -15, -20, -25}})
		for i := range pos {
			if math.Abs(pos[i]-neg[i]) > 1e-12 {
				t.Errorf("point %d: %.6f != %.6f", i, pos[i], neg[i])
			}
			if math.Abs(pos[i]-50) > 1e-9 {
				t.Errorf("point %d: expected constant speed 50, got %.6f", i, pos[i])
			}
		}
	})
}
