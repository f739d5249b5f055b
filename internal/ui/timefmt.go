package ui

import (
	"fmt"
	"time"
)

// formatCountdownWithNow formats how long until t, e.g. "in 23h 30m".
func formatCountdownWithNow(t, now time.Time) string {
	diff := t.Sub(now)
	if diff < 0 {
		return "overdue"
	}
	if diff < time.Minute {
		return "in <1m"
	}

	mins := int(diff.Round(time.Minute).Minutes())
	h, m := mins/60, mins%60
	switch {
	case h == 0:
		return fmt.Sprintf("in %dm", m)
	case m == 0:
		return fmt.Sprintf("in %dh", h)
	default:
		return fmt.Sprintf("in %dh %dm", h, m)
	}
}

// formatAlarmDay says whether t falls today or tomorrow relative to now.
func formatAlarmDay(t, now time.Time) string {
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return "today"
	}
	tomorrow := now.AddDate(0, 0, 1)
	if t.Year() == tomorrow.Year() && t.YearDay() == tomorrow.YearDay() {
		return "tomorrow"
	}
	return t.Format("Mon Jan 2")
}

// nextHour returns the top of the hour after now as "HH:MM".
func nextHour(now time.Time) string {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location()).Format("15:04")
}

// FormatCountdown exposes the countdown formatter for other packages.
func FormatCountdown(t, now time.Time) string {
	return formatCountdownWithNow(t, now)
}
