package util

import (
    "math"
    "testing"
)

func TestFormatCompact(t *testing.T) {
    cases := map[float64]string{
        1.5e12: "1.5T",
        2.3e9:  "2.3B",
        8.1e6:  "8.1M",
        4500:   "4.5K",
        999:    "999",
        0:      "0",
    }
    for in, want := range cases {
        if got := FormatCompact(in); got != want {
            t.Fatalf("FormatCompact(%v) = %q, want %q", in, got, want)
        }
    }
}

func TestFormatCompactNaN(t *testing.T) {
    if got := FormatCompact(math.NaN()); got != "N/A" {
        t.Fatalf("expected N/A, got %q", got)
    }
    if got := FormatCompact(math.Inf(1)); got != "N/A" {
        t.Fatalf("expected N/A, got %q", got)
    }
}
