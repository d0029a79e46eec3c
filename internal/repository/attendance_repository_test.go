package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
)

func TestAttendanceRepositoryListByUserGroupsByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	slot0 := 0
	rows := sqlmock.NewRows([]string{"id", "user_id", "date", "subject_id", "slot_index", "status", "created_at"}).
		AddRow("att-1", "user-1", time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC), "sub-cs", slot0, "P", now).
		AddRow("att-2", "user-1", time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC), "sub-cs", 1, "A", now).
		AddRow("att-3", "user-1", time.Date(2024, 11, 5, 12, 30, 0, 0, time.UTC), "sub-math", nil, "P", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, date, subject_id, slot_index, status, created_at FROM attendance_entries WHERE user_id = $1 ORDER BY date ASC, created_at ASC, id ASC")).
		WithArgs("user-1").
		WillReturnRows(rows)

	records, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2024-11-04", records[0].Date)
	require.Len(t, records[0].Entries, 2)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Entries[0].Status)

	// A stored timestamp is truncated to the date-only key.
	assert.Equal(t, "2024-11-05", records[1].Date)
	require.Len(t, records[1].Entries, 1)
	assert.Nil(t, records[1].Entries[0].SlotIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryReplaceDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_entries WHERE user_id = $1 AND date = $2")).
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_entries")).
		WithArgs(sqlmock.AnyArg(), "user-1", sqlmock.AnyArg(), "sub-cs", 0, "P", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	idx := 0
	err := repo.ReplaceDate(context.Background(), "user-1", models.AttendanceRecord{
		Date: "2024-11-04",
		Entries: []models.AttendanceEntry{
			{SubjectID: "sub-cs", Status: models.AttendanceStatusPresent, SlotIndex: &idx},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryReplaceDateRejectsBadKey(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	err := repo.ReplaceDate(context.Background(), "user-1", models.AttendanceRecord{Date: "04-11-2024"})
	assert.Error(t, err)
}

func TestAttendanceRepositoryClearAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_entries WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := repo.ClearAll(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
