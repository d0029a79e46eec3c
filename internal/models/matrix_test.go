package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchedules() []WeekdaySchedule {
	return []WeekdaySchedule{
		{Weekday: 0, Slots: []ScheduleSlot{
			{StartTime: "09:00", EndTime: "10:00", SubjectID: "sub-cs"},
			{StartTime: "14:00", EndTime: "15:00", SubjectID: "sub-cs"},
		}},
		{Weekday: 2, Slots: []ScheduleSlot{
			{StartTime: "09:00", EndTime: "10:00", SubjectID: "sub-math"},
		}},
	}
}

func TestBuildScheduleMatrixSortsRowsByStart(t *testing.T) {
	m := BuildScheduleMatrix(sampleSchedules())

	require.Len(t, m.TimeSlots, 2)
	assert.Equal(t, "09:00", m.TimeSlots[0].Start)
	assert.Equal(t, "14:00", m.TimeSlots[1].Start)

	require.Len(t, m.Cells, 2)
	assert.Equal(t, "sub-cs", m.Cells[0][0])
	assert.Equal(t, "sub-math", m.Cells[0][2])
	assert.Equal(t, "sub-cs", m.Cells[1][0])
	assert.Equal(t, NoLecture, m.Cells[1][2])
	assert.Equal(t, NoLecture, m.Cells[0][5])
}

func TestBuildScheduleMatrixLastWriteWins(t *testing.T) {
	m := BuildScheduleMatrix([]WeekdaySchedule{
		{Weekday: 1, Slots: []ScheduleSlot{
			{StartTime: "09:00", EndTime: "10:00", SubjectID: "sub-first"},
			{StartTime: "09:00", EndTime: "10:00", SubjectID: "sub-second"},
		}},
	})

	require.Len(t, m.TimeSlots, 1)
	assert.Equal(t, "sub-second", m.Cells[0][1])
}

func TestInsertRowKeepsExistingAssignments(t *testing.T) {
	m := BuildScheduleMatrix(sampleSchedules())

	pos, err := m.InsertRow(TimeRange{Start: "11:00", End: "12:00"})
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	require.Len(t, m.TimeSlots, 3)
	assert.Equal(t, "11:00", m.TimeSlots[1].Start)
	for day := 0; day < NumWeekdays; day++ {
		assert.Equal(t, NoLecture, m.Cells[1][day])
	}

	// Rows around the insertion keep their cells.
	assert.Equal(t, "sub-cs", m.Cells[0][0])
	assert.Equal(t, "sub-math", m.Cells[0][2])
	assert.Equal(t, "sub-cs", m.Cells[2][0])
}

func TestInsertRowRejectsDuplicates(t *testing.T) {
	m := BuildScheduleMatrix(sampleSchedules())

	_, err := m.InsertRow(TimeRange{Start: "09:00", End: "10:00"})
	assert.ErrorIs(t, err, ErrDuplicateTimeRange)
	assert.Len(t, m.TimeSlots, 2)
}

func TestInsertRowRejectsInvalidRange(t *testing.T) {
	m := BuildScheduleMatrix(nil)

	_, err := m.InsertRow(TimeRange{Start: "10:00", End: "09:00"})
	assert.Error(t, err)

	_, err = m.InsertRow(TimeRange{Start: "9:00", End: "10:00"})
	assert.Error(t, err)
}

func TestDeleteRowLeavesOtherRowsUntouched(t *testing.T) {
	m := BuildScheduleMatrix(sampleSchedules())

	require.NoError(t, m.DeleteRow(0))
	require.Len(t, m.TimeSlots, 1)
	assert.Equal(t, "14:00", m.TimeSlots[0].Start)
	assert.Equal(t, "sub-cs", m.Cells[0][0])

	assert.Error(t, m.DeleteRow(5))
	assert.Error(t, m.DeleteRow(-1))
}

func TestMatrixRoundTrip(t *testing.T) {
	original := sampleSchedules()

	m := BuildScheduleMatrix(original)
	reduced := m.Reduce()
	assert.Equal(t, original, reduced)

	rebuilt := BuildScheduleMatrix(reduced)
	assert.Equal(t, m, rebuilt)
}

func TestReduceOrdersSlotsByTime(t *testing.T) {
	m := BuildScheduleMatrix(nil)
	_, err := m.InsertRow(TimeRange{Start: "14:00", End: "15:00"})
	require.NoError(t, err)
	_, err = m.InsertRow(TimeRange{Start: "09:00", End: "10:00"})
	require.NoError(t, err)

	m.Cells[0][3] = "sub-a"
	m.Cells[1][3] = "sub-b"

	schedules := m.Reduce()
	require.Len(t, schedules, 1)
	require.Len(t, schedules[0].Slots, 2)
	assert.Equal(t, 3, schedules[0].Weekday)
	assert.Equal(t, "09:00", schedules[0].Slots[0].StartTime)
	assert.Equal(t, "14:00", schedules[0].Slots[1].StartTime)
}

func TestReduceSkipsEmptyWeekdays(t *testing.T) {
	m := BuildScheduleMatrix(nil)
	assert.Empty(t, m.Reduce())

	_, err := m.InsertRow(TimeRange{Start: "09:00", End: "10:00"})
	require.NoError(t, err)
	assert.Empty(t, m.Reduce())
}

func TestSlotIndexStableAfterUnrelatedEdit(t *testing.T) {
	m := BuildScheduleMatrix(sampleSchedules())

	// Insert a row after Monday's slots and delete it again; Monday's
	// slot order, and therefore slot indices, must not change.
	pos, err := m.InsertRow(TimeRange{Start: "16:00", End: "17:00"})
	require.NoError(t, err)
	require.NoError(t, m.DeleteRow(pos))

	reduced := m.Reduce()
	require.Len(t, reduced, 2)
	monday := reduced[0]
	require.Equal(t, 0, monday.Weekday)
	require.Len(t, monday.Slots, 2)
	assert.Equal(t, "09:00", monday.Slots[0].StartTime)
	assert.Equal(t, "14:00", monday.Slots[1].StartTime)
}

func TestValidateShape(t *testing.T) {
	m := BuildScheduleMatrix(sampleSchedules())
	require.NoError(t, m.ValidateShape())

	short := &ScheduleMatrix{TimeSlots: m.TimeSlots}
	assert.Error(t, short.ValidateShape())

	narrow := &ScheduleMatrix{
		TimeSlots: []TimeRange{{Start: "09:00", End: "10:00"}},
		Cells:     [][]string{{NoLecture, NoLecture}},
	}
	assert.Error(t, narrow.ValidateShape())
}
