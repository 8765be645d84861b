package core

import "math"

// -----------------------------------------------------------------------------

// CalculateChangePercent returns the change from previous to current in
// percent. A zero or missing previous value yields 0.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 || math.IsNaN(previous) || math.IsNaN(current) {
		return 0.0
	}
	return (current - previous) / previous * 100
}

// -----------------------------------------------------------------------------

// SafeFloat maps NaN and Inf to 0 so records never carry values JSON cannot
// encode.
func SafeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// -----------------------------------------------------------------------------

// SafeVolume converts an upstream float volume to a non-negative counter.
func SafeVolume(v float64) int64 {
	v = SafeFloat(v)
	if v <= 0 {
		return 0
	}
	return int64(math.Round(v))
}
