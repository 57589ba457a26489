package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt64, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt64")
	}
	if _, ok := AddOverflowSafe(math.MinInt64, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt64")
	}
}

func TestCheckRange(t *testing.T) {
	if end, err := CheckRange(10, 2, 3); err != nil || end != 5 {
		t.Fatalf("CheckRange(10,2,3)=%d,%v want 5,nil", end, err)
	}
	if end, err := CheckRange(10, 10, 4); err != nil || end != 14 {
		t.Fatalf("CheckRange at length should allow appends, got %d,%v", end, err)
	}
	if _, err := CheckRange(10, 11, 0); err == nil {
		t.Fatalf("CheckRange should reject positions beyond length")
	}
	if _, err := CheckRange(10, -1, 1); err == nil {
		t.Fatalf("CheckRange should reject negative position")
	}
	if _, err := CheckRange(10, 1, -1); err == nil {
		t.Fatalf("CheckRange should reject negative length")
	}
	if _, err := CheckRange(math.MaxInt64, 5, math.MaxInt64); err == nil {
		t.Fatalf("CheckRange should reject overflowing ranges")
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		length, pos, n, want int64
	}{
		{10, 0, 4, 4},
		{10, 8, 4, 2},
		{10, 10, 4, 0},
		{10, -1, 4, 0},
		{10, 3, 0, 0},
	}
	for _, c := range cases {
		if got := Clamp(c.length, c.pos, c.n); got != c.want {
			t.Fatalf("Clamp(%d,%d,%d)=%d want %d", c.length, c.pos, c.n, got, c.want)
		}
	}
}
