package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
}

func TestInRange(t *testing.T) {
	if !InRange(8, 24, 0, 32) {
		t.Fatalf("[8,32) should fit in [0,32)")
	}
	if InRange(8, 25, 0, 32) {
		t.Fatalf("[8,33) should not fit in [0,32)")
	}
	if InRange(4, 4, 8, 32) {
		t.Fatalf("range below lo should be rejected")
	}
	if InRange(math.MaxInt-1, 8, 0, math.MaxInt) {
		t.Fatalf("overflowing range should be rejected")
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, an, b, bn int
		want         bool
	}{
		{0, 8, 8, 8, false},
		{0, 9, 8, 8, true},
		{16, 8, 0, 32, true},
		{0, 0, 0, 8, false},
		{40, 8, 0, 40, false},
	}
	for _, tt := range tests {
		if got := Overlaps(tt.a, tt.an, tt.b, tt.bn); got != tt.want {
			t.Fatalf("Overlaps(%d,%d,%d,%d) = %v", tt.a, tt.an, tt.b, tt.bn, got)
		}
	}
}
