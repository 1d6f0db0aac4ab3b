// Package num holds the small numeric helpers shared by the plant models.
package num

import "math"

// Slew moves current toward target by at most maxStep and saturates at target.
// A negative maxStep is treated as its magnitude.
func Slew(current, target, maxStep float64) float64 {
	maxStep = math.Abs(maxStep)
	d := target - current
	if math.Abs(d) <= maxStep {
		return target
	}
	return current + Sign(d)*maxStep
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Sign returns -1, 0 or +1. Zero maps to zero, unlike math.Copysign.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Bool returns 1 for true and 0 for false.
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
