package math

import "golang.org/x/exp/constraints"

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// IndexInRange reports whether i is a valid index into a sequence of the given length.
func IndexInRange[T constraints.Integer](i T, length int) bool {
	return i >= 0 && uint64(i) < uint64(length)
}
