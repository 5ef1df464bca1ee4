package bits

import (
	"math"
	"testing"
)

func TestClearSaveLeftRightBits(t *testing.T) {
	all := uint64(math.MaxUint64)

	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"clear-left-0", ClearLeftBits(all, 0), all},
		{"clear-left-64", ClearLeftBits(all, 64), 0},
		{"clear-left-over", ClearLeftBits(all, 100), 0},
		{"clear-left-8", ClearLeftBits(all, 8), 0x00ffffffffffffff},
		{"save-left-0", SaveLeftBits(all, 0), 0},
		{"save-left-64", SaveLeftBits(all, 64), all},
		{"save-left-8", SaveLeftBits(all, 8), 0xff00000000000000},
		{"clear-right-0", ClearRightBits(all, 0), all},
		{"clear-right-64", ClearRightBits(all, 64), 0},
		{"clear-right-over", ClearRightBits(all, 100), 0},
		{"clear-right-8", ClearRightBits(all, 8), 0xffffffffffffff00},
		{"save-right-0", SaveRightBits(all, 0), 0},
		{"save-right-64", SaveRightBits(all, 64), all},
		{"save-right-8", SaveRightBits(all, 8), 0x00000000000000ff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got 0x%016x want 0x%016x", tt.got, tt.want)
			}
		})
	}
}

func TestClearSaveMiddleBits(t *testing.T) {
	all := uint64(math.MaxUint64)

	if got, want := SaveMiddleBits(all, 8, 8), uint64(0x00ffffffffffff00); got != want {
		t.Fatalf("SaveMiddleBits got 0x%016x want 0x%016x", got, want)
	}
	if got, want := ClearMiddleBits(all, 8, 8), uint64(0xff000000000000ff); got != want {
		t.Fatalf("ClearMiddleBits got 0x%016x want 0x%016x", got, want)
	}
}

func TestReverseBits64Involution(t *testing.T) {
	samples := []uint64{0, math.MaxUint64, 1, 0x8000000000000000, 0x0123456789abcdef}

	for _, x := range samples {
		if got := ReverseBits64(ReverseBits64(x)); got != x {
			t.Fatalf("ReverseBits64(ReverseBits64(0x%x)) = 0x%x, want 0x%x", x, got, x)
		}
	}
}

func TestReverseBits32Involution(t *testing.T) {
	samples := []uint32{0, math.MaxUint32, 1, 0x80000000, 0x01234567}

	for _, x := range samples {
		if got := ReverseBits32(ReverseBits32(x)); got != x {
			t.Fatalf("ReverseBits32(ReverseBits32(0x%x)) = 0x%x, want 0x%x", x, got, x)
		}
	}
}

func TestSwapBytesInvolution(t *testing.T) {
	if got, want := SwapBytes64(SwapBytes64(0x0123456789abcdef)), uint64(0x0123456789abcdef); got != want {
		t.Fatalf("SwapBytes64 round trip got 0x%x want 0x%x", got, want)
	}
	if got, want := SwapBytes32(SwapBytes32(0x01234567)), uint32(0x01234567); got != want {
		t.Fatalf("SwapBytes32 round trip got 0x%x want 0x%x", got, want)
	}
	if got, want := SwapBytes16(SwapBytes16(0x0123)), uint16(0x0123); got != want {
		t.Fatalf("SwapBytes16 round trip got 0x%x want 0x%x", got, want)
	}
}

func TestCountSetBitsComplement(t *testing.T) {
	samples := []uint64{0, math.MaxUint64, 0x0f0f0f0f0f0f0f0f, 1, 0x8000000000000000}

	for _, x := range samples {
		if got := CountSetBits64(x) + CountSetBits64(^x); got != 64 {
			t.Fatalf("CountSetBits64(0x%x) + CountSetBits64(^x) = %d, want 64", x, got)
		}
	}
}

func TestCountBitsNeeded(t *testing.T) {
	tests := []struct {
		x    uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{0x7fffffffffffffff, 63},
		{0x8000000000000000, 64},
		{math.MaxUint64, 64},
	}

	for _, tt := range tests {
		if got := CountBitsNeeded64(tt.x); got != tt.want {
			t.Fatalf("CountBitsNeeded64(0x%x) = %d, want %d", tt.x, got, tt.want)
		}
	}

	if got, want := CountBitsNeeded32(0), uint32(0); got != want {
		t.Fatalf("CountBitsNeeded32(0) = %d, want %d", got, want)
	}
	if got, want := CountBitsNeeded32(math.MaxUint32), uint32(32); got != want {
		t.Fatalf("CountBitsNeeded32(max) = %d, want %d", got, want)
	}
}
