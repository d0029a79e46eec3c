package models

import (
	"fmt"
	"regexp"
)

// hhmmPattern matches zero-padded 24-hour HH:MM strings. Zero padding is
// load-bearing: the whole time ordering below is lexical string
// comparison, which is only a total order when every value is padded.
var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidHHMM reports whether raw is a zero-padded 24-hour HH:MM value.
func ValidHHMM(raw string) bool {
	return hhmmPattern.MatchString(raw)
}

// TimeRange is a (start, end) pair of HH:MM times identifying a lecture
// time slot.
type TimeRange struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

// Less orders ranges by start time.
func (r TimeRange) Less(other TimeRange) bool {
	return r.Start < other.Start
}

// Equal is structural equality of both endpoints.
func (r TimeRange) Equal(other TimeRange) bool {
	return r.Start == other.Start && r.End == other.End
}

// Validate checks format and that end strictly follows start.
func (r TimeRange) Validate() error {
	if !ValidHHMM(r.Start) || !ValidHHMM(r.End) {
		return fmt.Errorf("time range %s-%s: times must be zero-padded HH:MM", r.Start, r.End)
	}
	if r.Start >= r.End {
		return fmt.Errorf("time range %s-%s: end must be after start", r.Start, r.End)
	}
	return nil
}

func (r TimeRange) String() string {
	return r.Start + " - " + r.End
}

// ScheduleSlot assigns a subject to a time range on some weekday.
type ScheduleSlot struct {
	StartTime string `db:"start_time" json:"start_time" validate:"required,hhmm"`
	EndTime   string `db:"end_time" json:"end_time" validate:"required,hhmm"`
	SubjectID string `db:"subject_id" json:"subject_id" validate:"required"`
}

// Range returns the slot's time range.
func (s ScheduleSlot) Range() TimeRange {
	return TimeRange{Start: s.StartTime, End: s.EndTime}
}

// WeekdaySchedule is the sparse per-weekday slot list. The stored slot
// order is canonical: it is what slot indices are derived from, so it
// must survive save/reload unchanged.
type WeekdaySchedule struct {
	Weekday int            `json:"weekday" validate:"min=0,max=6"`
	Slots   []ScheduleSlot `json:"slots"`
}

// CommonTimeRanges is the quick-add list offered by the schedule editor.
var CommonTimeRanges = []TimeRange{
	{Start: "08:00", End: "09:00"},
	{Start: "09:00", End: "10:00"},
	{Start: "10:00", End: "11:00"},
	{Start: "11:00", End: "12:00"},
	{Start: "12:00", End: "13:00"},
	{Start: "13:00", End: "14:00"},
	{Start: "14:00", End: "15:00"},
	{Start: "15:00", End: "16:00"},
	{Start: "16:00", End: "17:00"},
	{Start: "17:00", End: "18:00"},
}
