package models

import (
	"fmt"
	"strings"
	"time"
)

// NumWeekdays is the size of the weekday domain (Monday..Sunday).
const NumWeekdays = 7

// TrackedWeekdays is the number of weekdays the schedule editor covers
// (Monday..Saturday). The model itself supports all seven.
const TrackedWeekdays = 6

// WeekdayNames maps Monday-first weekday indices to display names.
var WeekdayNames = [NumWeekdays]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayIndex converts a calendar date to the Monday-first weekday
// convention used across the whole schedule model: 0=Monday .. 6=Sunday.
// time.Weekday is Sunday-first, so the shift below is the only place the
// two conventions ever meet.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % NumWeekdays
}

// ValidWeekday reports whether idx is inside the weekday domain.
func ValidWeekday(idx int) bool {
	return idx >= 0 && idx < NumWeekdays
}

const dateKeyLayout = "2006-01-02"

// DateKey renders a calendar date as its canonical YYYY-MM-DD key.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key. Values arriving with a trailing
// time-of-day component (e.g. RFC 3339 timestamps from the store) are
// truncated to the date part first.
func ParseDateKey(raw string) (time.Time, error) {
	key := raw
	if i := strings.IndexByte(key, 'T'); i >= 0 {
		key = key[:i]
	}
	t, err := time.Parse(dateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", raw, err)
	}
	return t, nil
}

// NormalizeDateKey truncates any time-of-day suffix and validates the key.
func NormalizeDateKey(raw string) (string, error) {
	t, err := ParseDateKey(raw)
	if err != nil {
		return "", err
	}
	return DateKey(t), nil
}
