// internal/xmath/clamp.go
package xmath

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sat16 saturates an unsigned counter into a 16-bit register value.
// Wire counters MUST NOT wrap.
func Sat16[T constraints.Unsigned](v T) uint16 {
	if uint64(v) > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
