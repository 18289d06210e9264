package call

import "testing"

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		12:   "00:12",
		60:   "01:00",
		125:  "02:05",
		6000: "100:00",
		-3:   "00:00",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
