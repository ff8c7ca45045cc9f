package exporter

import (
	"fmt"
	"time"
)

// formatMHz renders a frequency or statistic cell with three decimal
// places so values like 8.5 appear as 8.500.
func formatMHz(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// formatMean renders a generic mean cell with two decimal places.
func formatMean(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatClock renders a time-of-day cell, empty for the zero time so
// days without solar data stay blank.
func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04:05")
}

func formatDayNight(daylight bool) string {
	if daylight {
		return "day"
	}
	return "night"
}
