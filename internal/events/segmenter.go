// Package events segments a joystick angle trace into discrete movement events.
package events

import (
	"math"

	"github.com/chrissnell/eventtable/internal/types"
)

const (
	// DefaultSpeedThreshold is the smoothed speed, in degrees per second, above
	// which the stick counts as moving
	DefaultSpeedThreshold = 10.0

	// DefaultMinDuration is the shortest event, in seconds, that a new
	// movement may close
	DefaultMinDuration = 0.5
)

// SegmentParams tunes the hysteresis segmenter
type SegmentParams struct {
	SpeedThreshold float64
	MinDuration    float64
	Decimals       int32
}

// DefaultSegmentParams returns the parameters used for the scanner data
func DefaultSegmentParams() SegmentParams {
	return SegmentParams{
		SpeedThreshold: DefaultSpeedThreshold,
		MinDuration:    DefaultMinDuration,
		Decimals:       DefaultDecimals,
	}
}

// state is the hysteresis machine for one segmentation run
type state struct {
	onset          float64
	previousAngle  float64
	belowThreshold bool
}

// Segment converts a time series and its rate signal into event records.
//
// An event is closed, and a new one opened, when the speed rises above the
// threshold after a quiescent sample and the open event has lasted longer
// than MinDuration. The last sample always closes the open event, so any
// non-empty series yields at least one record.
func Segment(ts types.TimeSeries, rate types.RateSeries, condition types.Condition, params SegmentParams) ([]types.EventRecord, error) {
	if err := ts.Validate(); err != nil {
		return nil, types.WithContext(err, types.Context{Condition: condition})
	}
	if len(rate) != ts.Len() {
		return nil, &types.MalformedSignalError{
			Context: types.Context{Condition: condition},
			Reason:  "rate and time lengths differ",
		}
	}

	s := state{
		onset:          ts.Times[0],
		previousAngle:  ts.Angles[0],
		belowThreshold: math.Abs(rate[0]) < params.SpeedThreshold,
	}

	last := ts.Len() - 1
	var records []types.EventRecord

	for i, t := range ts.Times {
		speed := math.Abs(rate[i])
		duration := t - s.onset

		rising := speed > params.SpeedThreshold && duration > params.MinDuration && s.belowThreshold
		if rising || i == last {
			records = append(records, types.EventRecord{
				Condition: condition,
				Onset:     Round(s.onset, params.Decimals),
				Duration:  Round(duration, params.Decimals),
				Angle:     s.previousAngle,
			})
			s.onset = t
		}

		s.belowThreshold = speed < params.SpeedThreshold
		s.previousAngle = ts.Angles[i]
	}

	return records, nil
}
