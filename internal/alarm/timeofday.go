// Package alarm schedules and fires the local wake-up alarm.
package alarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24-hour clock, hour may be one digit).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// String formats t as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Add shifts t by the given minutes, wrapping around midnight in either direction.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	total := (t.Minutes() + minutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// Next returns the first instant after now whose wall clock in now's location
// reads t: today if that is still ahead, otherwise tomorrow. A wall-clock time
// skipped by a DST change resolves forward the way time.Date normalizes it,
// so the result is never more than a day away.
func Next(now time.Time, t TimeOfDay) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, t.Hour, t.Minute, 0, 0, now.Location())
	if at.After(now) {
		return at
	}
	return time.Date(y, m, d+1, t.Hour, t.Minute, 0, 0, now.Location())
}
