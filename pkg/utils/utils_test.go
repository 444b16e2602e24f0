package utils

import "testing"

func TestAlignTo(t *testing.T) {
	cases := []struct {
		val, align, want uint64
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{5, 1, 5},
		{5, 0, 5},
	}
	for _, c := range cases {
		if got := AlignTo(c.val, c.align); got != c.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", c.val, c.align, got, c.want)
		}
	}
}

func TestAlignWithSkewIdempotent(t *testing.T) {
	cases := []struct{ val, align, skew uint64 }{
		{0, 4096, 0},
		{100, 4096, 4064},
		{5000, 4096, 123},
		{1 << 20, 4096, 4095},
	}
	for _, c := range cases {
		once := AlignWithSkew(c.val, c.align, c.skew)
		twice := AlignWithSkew(once, c.align, c.skew)
		if once != twice {
			t.Errorf("AlignWithSkew not idempotent: once=%d twice=%d", once, twice)
		}
		if once < c.val {
			t.Errorf("AlignWithSkew(%d, %d, %d) = %d is less than val", c.val, c.align, c.skew, once)
		}
		if once%c.align != c.skew%c.align {
			t.Errorf("AlignWithSkew(%d, %d, %d) = %d does not satisfy congruence", c.val, c.align, c.skew, once)
		}
	}
}

func TestBitCeil(t *testing.T) {
	cases := []struct{ val, want uint64 }{
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{16, 16},
		{17, 32},
	}
	for _, c := range cases {
		if got := BitCeil(c.val); got != c.want {
			t.Errorf("BitCeil(%d) = %d, want %d", c.val, got, c.want)
		}
	}
}

func TestRemoveIf(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6}
	out := RemoveIf(in, func(v int) bool { return v%2 == 0 })
	want := []int{1, 3, 5}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}
