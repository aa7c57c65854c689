// Package format provides shared formatting utilities for human-readable output.
package format

import (
	"fmt"
	"time"
)

// Duration formats a duration for human-readable output.
// Handles microseconds, milliseconds, seconds, and minutes.
func Duration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.0fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Milliseconds()))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	return fmt.Sprintf("%.1fm", d.Minutes())
}

// Ratio formats passed/total counts, e.g. "3/4".
func Ratio(passed, total int) string {
	return fmt.Sprintf("%d/%d", passed, total)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}

	return string(r[:n-3]) + "..."
}

// Percent returns part as a percentage of total, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}

	return float64(part) / float64(total) * 100.0
}
