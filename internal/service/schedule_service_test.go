package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type fakeScheduleRepo struct {
	mu       sync.Mutex
	listFn   func(ctx context.Context, userID string) ([]models.WeekdaySchedule, error)
	replace  func(ctx context.Context, userID string, schedule models.WeekdaySchedule) error
	replaced []models.WeekdaySchedule
}

func (f *fakeScheduleRepo) ListByUser(ctx context.Context, userID string) ([]models.WeekdaySchedule, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeScheduleRepo) ReplaceWeekday(ctx context.Context, userID string, schedule models.WeekdaySchedule) error {
	f.mu.Lock()
	f.replaced = append(f.replaced, schedule)
	f.mu.Unlock()
	if f.replace != nil {
		return f.replace(ctx, userID, schedule)
	}
	return nil
}

func newScheduleService(repo *fakeScheduleRepo) *ScheduleService {
	return NewScheduleService(repo, nil, nil, nil, 0)
}

func sampleMatrixCells(rows int) [][]string {
	cells := make([][]string, rows)
	for i := range cells {
		row := make([]string, models.NumWeekdays)
		for j := range row {
			row[j] = models.NoLecture
		}
		cells[i] = row
	}
	return cells
}

func TestScheduleServiceWeekly(t *testing.T) {
	want := []models.WeekdaySchedule{
		{Weekday: 0, Slots: []models.ScheduleSlot{{StartTime: "09:00", EndTime: "10:00", SubjectID: "sub-1"}}},
	}
	repo := &fakeScheduleRepo{listFn: func(ctx context.Context, userID string) ([]models.WeekdaySchedule, error) {
		assert.Equal(t, "user-1", userID)
		return want, nil
	}}

	svc := newScheduleService(repo)
	got, cached, err := svc.Weekly(context.Background(), "user-1")

	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, want, got)
}

func TestScheduleServiceReplaceWeekdayValidation(t *testing.T) {
	svc := newScheduleService(&fakeScheduleRepo{})

	cases := []struct {
		name string
		req  ReplaceWeekdayRequest
	}{
		{"weekday out of range", ReplaceWeekdayRequest{Weekday: 7}},
		{"malformed time", ReplaceWeekdayRequest{Weekday: 0, Slots: []models.ScheduleSlot{{StartTime: "9:00", EndTime: "10:00", SubjectID: "s"}}}},
		{"start not before end", ReplaceWeekdayRequest{Weekday: 0, Slots: []models.ScheduleSlot{{StartTime: "10:00", EndTime: "10:00", SubjectID: "s"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReplaceWeekday(context.Background(), "user-1", tc.req)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestScheduleServiceReplaceWeekdayPersists(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := newScheduleService(repo)

	req := ReplaceWeekdayRequest{Weekday: 2, Slots: []models.ScheduleSlot{
		{StartTime: "09:00", EndTime: "10:00", SubjectID: "sub-1"},
		{StartTime: "11:00", EndTime: "12:00", SubjectID: "sub-2"},
	}}
	saved, err := svc.ReplaceWeekday(context.Background(), "user-1", req)

	require.NoError(t, err)
	require.Len(t, repo.replaced, 1)
	assert.Equal(t, 2, saved.Weekday)
	assert.Equal(t, req.Slots, repo.replaced[0].Slots)
}

func TestScheduleServiceSaveMatrixFanOut(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := newScheduleService(repo)

	cells := sampleMatrixCells(1)
	cells[0][0] = "sub-mon"
	cells[0][2] = "sub-wed"
	req := SaveMatrixRequest{TimeSlots: []models.TimeRange{{Start: "09:00", End: "10:00"}}, Cells: cells}

	require.NoError(t, svc.SaveMatrix(context.Background(), "user-1", req))

	// One replace per tracked weekday, empty days included so removed
	// slots are cleared remotely.
	require.Len(t, repo.replaced, models.TrackedWeekdays)
	byDay := map[int]models.WeekdaySchedule{}
	for _, s := range repo.replaced {
		byDay[s.Weekday] = s
	}
	require.Len(t, byDay[0].Slots, 1)
	assert.Equal(t, "sub-mon", byDay[0].Slots[0].SubjectID)
	require.Len(t, byDay[2].Slots, 1)
	assert.Equal(t, "sub-wed", byDay[2].Slots[0].SubjectID)
	assert.Empty(t, byDay[1].Slots)
	assert.Empty(t, byDay[5].Slots)
}

func TestScheduleServiceSaveMatrixPartialFailure(t *testing.T) {
	repo := &fakeScheduleRepo{replace: func(ctx context.Context, userID string, schedule models.WeekdaySchedule) error {
		if schedule.Weekday == 3 {
			return errors.New("connection reset")
		}
		return nil
	}}
	svc := newScheduleService(repo)

	req := SaveMatrixRequest{TimeSlots: []models.TimeRange{{Start: "09:00", End: "10:00"}}, Cells: sampleMatrixCells(1)}
	err := svc.SaveMatrix(context.Background(), "user-1", req)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPartialSave.Code, appErr.Code)
	// Every weekday was still attempted; the ones that succeeded stay
	// saved.
	assert.Len(t, repo.replaced, models.TrackedWeekdays)
}

func TestScheduleServiceSaveMatrixRejectsInvalidTimeSlot(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := newScheduleService(repo)

	req := SaveMatrixRequest{TimeSlots: []models.TimeRange{{Start: "10:00", End: "09:00"}}, Cells: sampleMatrixCells(1)}
	err := svc.SaveMatrix(context.Background(), "user-1", req)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.replaced)
}

func TestScheduleServiceInsertMatrixRow(t *testing.T) {
	svc := newScheduleService(&fakeScheduleRepo{})

	cells := sampleMatrixCells(1)
	cells[0][0] = "sub-1"
	req := MatrixRowRequest{
		TimeSlots: []models.TimeRange{{Start: "10:00", End: "11:00"}},
		Cells:     cells,
		NewSlot:   &models.TimeRange{Start: "08:00", End: "09:00"},
	}

	matrix, err := svc.InsertMatrixRow(req)

	require.NoError(t, err)
	require.Len(t, matrix.TimeSlots, 2)
	assert.Equal(t, "08:00", matrix.TimeSlots[0].Start)
	// The pre-existing row kept its cells at its new position.
	assert.Equal(t, "sub-1", matrix.Cells[1][0])
}

func TestScheduleServiceMatrixRowRejectsMismatchedShape(t *testing.T) {
	svc := newScheduleService(&fakeScheduleRepo{})

	// Fewer cell rows than time slots must fail validation up front,
	// not blow up inside the splice.
	twoSlots := []models.TimeRange{{Start: "09:00", End: "10:00"}, {Start: "10:00", End: "11:00"}}

	_, err := svc.InsertMatrixRow(MatrixRowRequest{
		TimeSlots: twoSlots,
		Cells:     nil,
		NewSlot:   &models.TimeRange{Start: "11:00", End: "12:00"},
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	idx := 0
	_, err = svc.DeleteMatrixRow(MatrixRowRequest{
		TimeSlots: twoSlots,
		Cells:     sampleMatrixCells(1),
		RowIndex:  &idx,
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	narrow := [][]string{{models.NoLecture, models.NoLecture}}
	_, err = svc.InsertMatrixRow(MatrixRowRequest{
		TimeSlots: []models.TimeRange{{Start: "09:00", End: "10:00"}},
		Cells:     narrow,
		NewSlot:   &models.TimeRange{Start: "11:00", End: "12:00"},
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestScheduleServiceSaveMatrixRejectsMismatchedShape(t *testing.T) {
	repo := &fakeScheduleRepo{}
	svc := newScheduleService(repo)

	err := svc.SaveMatrix(context.Background(), "user-1", SaveMatrixRequest{
		TimeSlots: []models.TimeRange{{Start: "09:00", End: "10:00"}, {Start: "10:00", End: "11:00"}},
		Cells:     sampleMatrixCells(1),
	})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.replaced)
}

func TestScheduleServiceInsertMatrixRowConflict(t *testing.T) {
	svc := newScheduleService(&fakeScheduleRepo{})

	req := MatrixRowRequest{
		TimeSlots: []models.TimeRange{{Start: "10:00", End: "11:00"}},
		Cells:     sampleMatrixCells(1),
		NewSlot:   &models.TimeRange{Start: "10:00", End: "11:00"},
	}

	_, err := svc.InsertMatrixRow(req)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrSlotConflict.Code, appErr.Code)
}

func TestScheduleServiceDeleteMatrixRow(t *testing.T) {
	svc := newScheduleService(&fakeScheduleRepo{})

	idx := 0
	matrix, err := svc.DeleteMatrixRow(MatrixRowRequest{
		TimeSlots: []models.TimeRange{{Start: "10:00", End: "11:00"}},
		Cells:     sampleMatrixCells(1),
		RowIndex:  &idx,
	})

	require.NoError(t, err)
	assert.Empty(t, matrix.TimeSlots)

	bad := 5
	_, err = svc.DeleteMatrixRow(MatrixRowRequest{RowIndex: &bad})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
