package events

import "github.com/shopspring/decimal"

// DefaultDecimals is the number of decimal places kept for onset and duration
const DefaultDecimals = 4

// Round rounds v to places decimal places, half away from zero, working on the
// shortest decimal representation of v so that 1.23455 rounds to 1.2346.
// Rounding an already rounded value returns it unchanged.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Format renders v with exactly places decimal places
func Format(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
