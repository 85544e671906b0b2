// Package buf holds overflow-checked size arithmetic for request sizes.
package buf

import "math"

// AddOverflowSafe adds two non-negative sizes, returning ok = false when the
// result would overflow int or either operand is negative.
func AddOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// MulOverflowSafe multiplies two non-negative sizes, returning ok = false
// when the result would overflow int or either operand is negative. This is
// the count * elementSize check behind Calloc.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}
