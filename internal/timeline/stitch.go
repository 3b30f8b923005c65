// Package timeline assembles independently recorded trials into one continuous
// timeline.
package timeline

import (
	"github.com/chrissnell/eventtable/internal/types"
)

// DefaultConditionGap is the time, in seconds, inserted between consecutive
// condition blocks of a run
const DefaultConditionGap = 20.0

// Stitch concatenates trials in playback order. Each trial is re-baselined so
// that it starts where the previous trial's own span ended, which removes the
// gaps between recordings. Junctions repeat a timestamp. The returned start
// time is the end of the composite timeline and becomes the baseline for the
// next stitching call.
func Stitch(trials []types.TimeSeries, startTime float64) (types.TimeSeries, float64, error) {
	var composite types.TimeSeries

	for i, trial := range trials {
		if err := trial.Validate(); err != nil {
			return types.TimeSeries{}, startTime, types.WithContext(err, types.Context{Trial: i + 1})
		}

		t0 := trial.Times[0]
		for _, t := range trial.Times {
			composite.Times = append(composite.Times, t-t0+startTime)
		}
		composite.Angles = append(composite.Angles, trial.Angles...)

		startTime += trial.Span()
	}

	return composite, startTime, nil
}

// Stitcher accumulates trials one at a time, for callers that load trials lazily
type Stitcher struct {
	composite types.TimeSeries
	startTime float64
	trials    int
}

// NewStitcher returns a Stitcher whose first trial begins at startTime
func NewStitcher(startTime float64) *Stitcher {
	return &Stitcher{startTime: startTime}
}

// Add appends one trial to the composite timeline
func (s *Stitcher) Add(trial types.TimeSeries) error {
	s.trials++
	if err := trial.Validate(); err != nil {
		return types.WithContext(err, types.Context{Trial: s.trials})
	}
	composite, next, err := Stitch([]types.TimeSeries{trial}, s.startTime)
	if err != nil {
		return err
	}
	s.composite.Times = append(s.composite.Times, composite.Times...)
	s.composite.Angles = append(s.composite.Angles, composite.Angles...)
	s.startTime = next
	return nil
}

// Result returns the composite series and the start time for the next block
func (s *Stitcher) Result() (types.TimeSeries, float64) {
	return s.composite, s.startTime
}
