package types

// TimeSeries is an ordered sequence of (time, angle) samples. Times are in
// seconds and non-decreasing; angles are signed degrees.
type TimeSeries struct {
	Times  []float64
	Angles []float64
}

// Len returns the number of samples
func (ts TimeSeries) Len() int {
	return len(ts.Times)
}

// Span returns the elapsed time between the first and last sample
func (ts TimeSeries) Span() float64 {
	if len(ts.Times) == 0 {
		return 0
	}
	return ts.Times[len(ts.Times)-1] - ts.Times[0]
}

// Validate checks that the series is non-empty and that times and angles line up
func (ts TimeSeries) Validate() error {
	if len(ts.Times) == 0 {
		return &MalformedSignalError{Reason: "time series is empty"}
	}
	if len(ts.Times) != len(ts.Angles) {
		return &MalformedSignalError{Reason: "time and angle lengths differ"}
	}
	return nil
}

// Offset returns a copy of the series with every timestamp shifted by delta
func (ts TimeSeries) Offset(delta float64) TimeSeries {
	times := make([]float64, len(ts.Times))
	for i, t := range ts.Times {
		times[i] = t + delta
	}
	angles := make([]float64, len(ts.Angles))
	copy(angles, ts.Angles)
	return TimeSeries{Times: times, Angles: angles}
}

// RateSeries holds one smoothed rate-of-change value per TimeSeries sample
type RateSeries []float64
