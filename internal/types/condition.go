package types

import (
	"fmt"
	"strings"
)

// Condition is one of the experimental phases within a scanning run
type Condition string

const (
	Long    Condition = "LONG"
	Short   Condition = "SHORT"
	Passive Condition = "PASSIVE"
)

// Conditions returns the conditions in their declared order
func Conditions() []Condition {
	return []Condition{Long, Short, Passive}
}

// Index returns the position of c in the declared order, or -1 if c is unknown
func (c Condition) Index() int {
	for i, known := range Conditions() {
		if c == known {
			return i
		}
	}
	return -1
}

// IsPassive reports whether the condition is assembled from several trial recordings
func (c Condition) IsPassive() bool {
	return c == Passive
}

// ParseCondition converts a label such as "long" or "SHORT" into a Condition
func ParseCondition(label string) (Condition, error) {
	c := Condition(strings.ToUpper(strings.TrimSpace(label)))
	if c.Index() < 0 {
		return "", fmt.Errorf("unknown condition %q", label)
	}
	return c, nil
}
