// Package buf holds overflow-safe offset arithmetic for logical content ranges.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int64.
func AddOverflowSafe(a, b int64) (int64, bool) {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return 0, false
	case b < 0 && a < math.MinInt64-b:
		return 0, false
	default:
		return a + b, true
	}
}

// CheckRange validates that [pos, pos+n) starts inside [0, length] and that the
// end does not overflow. It returns the exclusive end, which may lie beyond
// length; callers decide whether to clamp it.
//
//	end, err := buf.CheckRange(b.Length(), pos, int64(len(p)))
//	if err != nil {
//	    return fmt.Errorf("overwrite: %w", err)
//	}
func CheckRange(length, pos, n int64) (int64, error) {
	if pos < 0 {
		return 0, fmt.Errorf("negative position: %d", pos)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative length: %d", n)
	}
	if pos > length {
		return 0, fmt.Errorf("position %d beyond length %d", pos, length)
	}
	end, ok := AddOverflowSafe(pos, n)
	if !ok {
		return 0, fmt.Errorf("overflow: position=%d + length=%d", pos, n)
	}
	return end, nil
}

// Clamp limits [pos, pos+n) to [0, length) and returns the clamped count.
// A pos outside the range yields 0.
func Clamp(length, pos, n int64) int64 {
	if pos < 0 || n <= 0 || pos >= length {
		return 0
	}
	if n > length-pos {
		return length - pos
	}
	return n
}
