package history

import "testing"

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		value, max, want int
	}{
		{0, 50, 50},
		{-3, 50, 50},
		{10, 50, 10},
		{80, 50, 50},
		{80, 0, 80},
	}
	for _, tc := range cases {
		if got := normalizeLimit(tc.value, tc.max); got != tc.want {
			t.Fatalf("normalizeLimit(%d, %d) = %d, want %d", tc.value, tc.max, got, tc.want)
		}
	}
}
