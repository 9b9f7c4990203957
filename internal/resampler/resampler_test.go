package resampler

import "testing"

func TestClampFloat(t *testing.T) {
	cases := []struct {
		in, want float32
	}{
		{0, 0},
		{1.5, 1},
		{-1.5, -1},
		{0.5, 0.5},
	}
	for _, c := range cases {
		if got := clampFloat(c.in); got != c.want {
			t.Errorf("clampFloat(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
