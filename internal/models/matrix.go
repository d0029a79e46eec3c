package models

import (
	"errors"
	"fmt"
	"sort"
)

// NoLecture is the sentinel cell value meaning no lecture is assigned.
const NoLecture = "no_lecture"

// ErrDuplicateTimeRange is returned when a row for the same (start, end)
// pair already exists in a matrix.
var ErrDuplicateTimeRange = errors.New("time slot already exists")

// ScheduleMatrix is the dense time×weekday editing grid derived from the
// sparse per-weekday schedules. Rows are positional: row i of Cells
// always belongs to TimeSlots[i]. It is a view model only; the sparse
// form remains the source of truth.
type ScheduleMatrix struct {
	TimeSlots []TimeRange `json:"time_slots"`
	Cells     [][]string  `json:"cells"`
}

// BuildScheduleMatrix converts sparse weekday schedules into a dense
// matrix. Rows are the distinct (start, end) pairs across every weekday,
// sorted ascending by start time; every cell starts out as NoLecture.
// When one weekday maps the same time range twice the later slot wins
// (last-write-wins, a tolerated upstream configuration error).
func BuildScheduleMatrix(schedules []WeekdaySchedule) *ScheduleMatrix {
	seen := make(map[TimeRange]struct{})
	var ranges []TimeRange
	for _, day := range schedules {
		for _, slot := range day.Slots {
			r := slot.Range()
			if _, ok := seen[r]; !ok {
				seen[r] = struct{}{}
				ranges = append(ranges, r)
			}
		}
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start != ranges[j].Start {
			return ranges[i].Start < ranges[j].Start
		}
		return ranges[i].End < ranges[j].End
	})

	m := &ScheduleMatrix{TimeSlots: ranges, Cells: make([][]string, len(ranges))}
	for i := range m.Cells {
		m.Cells[i] = emptyRow()
	}

	for _, day := range schedules {
		if !ValidWeekday(day.Weekday) {
			continue
		}
		for _, slot := range day.Slots {
			if row := m.RowOf(slot.Range()); row >= 0 {
				m.Cells[row][day.Weekday] = slot.SubjectID
			}
		}
	}
	return m
}

// ValidateShape checks that the cell grid matches the time-slot rows:
// one row of cells per time slot, each NumWeekdays wide. The splice
// edits below assume this shape, so matrices arriving over the wire
// must pass here before any edit.
func (m *ScheduleMatrix) ValidateShape() error {
	if len(m.Cells) != len(m.TimeSlots) {
		return fmt.Errorf("matrix has %d cell rows for %d time slots", len(m.Cells), len(m.TimeSlots))
	}
	for i, row := range m.Cells {
		if len(row) != NumWeekdays {
			return fmt.Errorf("matrix row %d has %d cells, want %d", i, len(row), NumWeekdays)
		}
	}
	return nil
}

// RowOf returns the row index for a time range, or -1 when absent.
func (m *ScheduleMatrix) RowOf(r TimeRange) int {
	for i, ts := range m.TimeSlots {
		if ts.Equal(r) {
			return i
		}
	}
	return -1
}

// InsertRow adds an all-sentinel row for a new time range at its sorted
// position and returns that position. Rows are positional, so the new
// row is spliced in rather than appended and resorted; every existing
// cell keeps its row/column association. A duplicate range is rejected.
func (m *ScheduleMatrix) InsertRow(r TimeRange) (int, error) {
	if err := r.Validate(); err != nil {
		return -1, err
	}
	if m.RowOf(r) >= 0 {
		return -1, ErrDuplicateTimeRange
	}

	pos := sort.Search(len(m.TimeSlots), func(i int) bool {
		if m.TimeSlots[i].Start != r.Start {
			return m.TimeSlots[i].Start > r.Start
		}
		return m.TimeSlots[i].End > r.End
	})

	m.TimeSlots = append(m.TimeSlots, TimeRange{})
	copy(m.TimeSlots[pos+1:], m.TimeSlots[pos:])
	m.TimeSlots[pos] = r

	m.Cells = append(m.Cells, nil)
	copy(m.Cells[pos+1:], m.Cells[pos:])
	m.Cells[pos] = emptyRow()

	return pos, nil
}

// DeleteRow removes row index together with its time range. Subject
// assignments in the row are discarded; callers confirm this with the
// user before invoking it.
func (m *ScheduleMatrix) DeleteRow(index int) error {
	if index < 0 || index >= len(m.TimeSlots) {
		return fmt.Errorf("row %d out of range", index)
	}
	m.TimeSlots = append(m.TimeSlots[:index], m.TimeSlots[index+1:]...)
	m.Cells = append(m.Cells[:index], m.Cells[index+1:]...)
	return nil
}

// Reduce converts the matrix back to sparse weekday schedules. For each
// weekday column it emits a slot per non-sentinel cell in row (time)
// order. That order is what later determines slot indices for
// attendance, so Reduce is the source of occurrence identity for every
// future mark against the saved schedule.
func (m *ScheduleMatrix) Reduce() []WeekdaySchedule {
	var schedules []WeekdaySchedule
	for day := 0; day < NumWeekdays; day++ {
		var slots []ScheduleSlot
		for row, ts := range m.TimeSlots {
			if row >= len(m.Cells) || day >= len(m.Cells[row]) {
				continue
			}
			subjectID := m.Cells[row][day]
			if subjectID == "" || subjectID == NoLecture {
				continue
			}
			slots = append(slots, ScheduleSlot{
				StartTime: ts.Start,
				EndTime:   ts.End,
				SubjectID: subjectID,
			})
		}
		if len(slots) > 0 {
			schedules = append(schedules, WeekdaySchedule{Weekday: day, Slots: slots})
		}
	}
	return schedules
}

func emptyRow() []string {
	row := make([]string, NumWeekdays)
	for i := range row {
		row[i] = NoLecture
	}
	return row
}
