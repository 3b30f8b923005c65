package timeline

import (
	"errors"
	"math"
	"testing"

	"github.com/chrissnell/eventtable/internal/types"
)

func assertSeries(t *testing.T, got []float64, expected []float64) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d values, got %d: %v", len(expected), len(got), got)
	}
	for i := range got {
		if math.Abs(got[i]-expected[i]) > 1e-9 {
			t.Errorf("value %d: expected %.6f, got %.6f", i, expected[i], got[i])
		}
	}
}

func TestStitch(t *testing.T) {
	trialA := types.TimeSeries{Times: []float64{10.0, 10.5, 11.0}, Angles: []float64{1, 2, 3}}
	trialB := types.TimeSeries{Times: []float64{5.0, 5.2, 5.4}, Angles: []float64{4, 5, 6}}

	tests := []struct {
		name           string
		trials         []types.TimeSeries
		startTime      float64
		expectedTimes  []float64
		expectedAngles []float64
		expectedStart  float64
	}{
		{
			name:           "two trials from zero",
			trials:         []types.TimeSeries{trialA, trialB},
			startTime:      0,
			expectedTimes:  []float64{0.0, 0.5, 1.0, 1.0, 1.2, 1.4},
			expectedAngles: []float64{1, 2, 3, 4, 5, 6},
			expectedStart:  1.4,
		},
		{
			name:           "caller supplied offset",
			trials:         []types.TimeSeries{trialB},
			startTime:      41.25,
			expectedTimes:  []float64{41.25, 41.45, 41.65},
			expectedAngles: []float64{4, 5, 6},
			expectedStart:  41.65,
		},
		{
			name:           "single-sample trial adds no span",
			trials:         []types.TimeSeries{{Times: []float64{7}, Angles: []float64{9}}, trialA},
			startTime:      3,
			expectedTimes:  []float64{3, 3, 3.5, 4},
			expectedAngles: []float64{9, 1, 2, 3},
			expectedStart:  4,
		},
		{
			name:          "no trials",
			startTime:     12,
			expectedStart: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composite, next, err := Stitch(tt.trials, tt.startTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertSeries(t, composite.Times, tt.expectedTimes)
			assertSeries(t, composite.Angles, tt.expectedAngles)
			if math.Abs(next-tt.expectedStart) > 1e-9 {
				t.Errorf("expected start time %.6f, got %.6f", tt.expectedStart, next)
			}
			for i := 1; i < composite.Len(); i++ {
				if composite.Times[i] < composite.Times[i-1] {
					t.Errorf("composite decreases at %d", i)
				}
			}
		})
	}
}

func TestStitchEmptyTrial(t *testing.T) {
	trials := []types.TimeSeries{
		{Times: []float64{0, 1}, Angles: []float64{0, 1}},
		{},
	}
	_, _, err := Stitch(trials, 0)

	var mse *types.MalformedSignalError
	if !errors.As(err, &mse) {
		t.Fatalf("expected MalformedSignalError, got %v", err)
	}
	if mse.Trial != 2 {
		t.Errorf("expected trial 2 in error context, got %d", mse.Trial)
	}
}

func TestStitcher(t *testing.T) {
	s := NewStitcher(0)
	if err := s.Add(types.TimeSeries{Times: []float64{10.0, 10.5, 11.0}, Angles: []float64{1, 2, 3}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Add(types.TimeSeries{Times: []float64{5.0, 5.2, 5.4}, Angles: []float64{4, 5, 6}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	composite, next := s.Result()
	assertSeries(t, composite.Times, []float64{0.0, 0.5, 1.0, 1.0, 1.2, 1.4})
	if math.Abs(next-1.4) > 1e-9 {
		t.Errorf("expected start time 1.4, got %.6f", next)
	}

	err := s.Add(types.TimeSeries{Times: []float64{1}})
	if !errors.Is(err, types.ErrMalformedSignal) {
		t.Errorf("expected ErrMalformedSignal, got %v", err)
	}
}
