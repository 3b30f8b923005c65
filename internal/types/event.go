package types

import (
	"strconv"
	"strings"
)

// EventRecord is one segmented unit of joystick movement.
// Onset and Duration are already rounded when the record is created.
type EventRecord struct {
	Condition Condition `json:"condition" msgpack:"condition"`
	Onset     float64   `json:"onset" msgpack:"onset"`
	Duration  float64   `json:"duration" msgpack:"duration"`
	Angle     float64   `json:"angle" msgpack:"angle"`
}

// End returns the time at which the event closes
func (e EventRecord) End() float64 {
	return e.Onset + e.Duration
}

// TrialKey identifies one trial recording. Trial 0 refers to the
// concatenated recording of the whole condition.
type TrialKey struct {
	Subject   string
	Run       string
	Condition Condition
	Trial     int
}

// TrialToken is one entry of a passive-segment index: the source the trial was
// recorded in (a scanning run such as "mrt01" or a training session such as
// "training06"), the condition, and the trial number.
type TrialToken struct {
	Source    string
	Condition Condition
	Trial     int
}

// String renders the token in the index-file form, e.g. "training06_LONG_5"
func (t TrialToken) String() string {
	return t.Source + "_" + string(t.Condition) + "_" + strconv.Itoa(t.Trial)
}

// IsTraining reports whether the trial was recorded outside the scanner
func (t TrialToken) IsTraining() bool {
	return strings.HasPrefix(t.Source, "training")
}
