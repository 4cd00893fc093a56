package util

import (
    "fmt"
    "math"
)

// FormatCompact renders large magnitudes the way chart labels want them:
// 1.2T, 3.4B, 5.6M, 7.8K, or a plain integer below a thousand. NaN and Inf
// render as "N/A".
func FormatCompact(n float64) string {
    if math.IsNaN(n) || math.IsInf(n, 0) {
        return "N/A"
    }
    abs := math.Abs(n)
    switch {
    case abs >= 1e12:
        return fmt.Sprintf("%.1fT", n/1e12)
    case abs >= 1e9:
        return fmt.Sprintf("%.1fB", n/1e9)
    case abs >= 1e6:
        return fmt.Sprintf("%.1fM", n/1e6)
    case abs >= 1e3:
        return fmt.Sprintf("%.1fK", n/1e3)
    default:
        return fmt.Sprintf("%d", int64(n))
    }
}
