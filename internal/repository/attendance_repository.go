package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// attendanceEntryRow is the persisted shape of one attendance entry.
// All rows sharing a date form that date's record.
type attendanceEntryRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Date      time.Time `db:"date"`
	SubjectID string    `db:"subject_id"`
	SlotIndex *int      `db:"slot_index"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// AttendanceRepository provides persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByUser returns every attendance record for the user, one per
// date, oldest date first. Entries within a date are a set keyed by
// occurrence identity; their order carries no meaning. Dates are
// normalised to YYYY-MM-DD keys.
func (r *AttendanceRepository) ListByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, user_id, date, subject_id, slot_index, status, created_at FROM attendance_entries WHERE user_id = $1 ORDER BY date ASC, created_at ASC, id ASC`
	var rows []attendanceEntryRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list attendance entries: %w", err)
	}

	var records []models.AttendanceRecord
	for _, row := range rows {
		key := models.DateKey(row.Date)
		if len(records) == 0 || records[len(records)-1].Date != key {
			records = append(records, models.AttendanceRecord{Date: key})
		}
		last := &records[len(records)-1]
		last.Entries = append(last.Entries, models.AttendanceEntry{
			SubjectID: row.SubjectID,
			Status:    models.AttendanceStatus(row.Status),
			SlotIndex: row.SlotIndex,
		})
	}
	return records, nil
}

// ReplaceDate replaces one date's full entry set in a single transaction
// (full replace semantics per date, matching the engine's upsert
// contract).
func (r *AttendanceRepository) ReplaceDate(ctx context.Context, userID string, record models.AttendanceRecord) error {
	date, err := models.ParseDateKey(record.Date)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace attendance: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_entries WHERE user_id = $1 AND date = $2`, userID, date); err != nil {
		return fmt.Errorf("clear attendance for %s: %w", record.Date, err)
	}

	const insert = `INSERT INTO attendance_entries (id, user_id, date, subject_id, slot_index, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := time.Now().UTC()
	for _, entry := range record.Entries {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), userID, date, entry.SubjectID, entry.SlotIndex, string(entry.Status), now); err != nil {
			return fmt.Errorf("insert attendance entry for %s: %w", record.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace attendance: %w", err)
	}
	return nil
}

// ClearAll removes every attendance record for the user and reports how
// many entries were deleted. Irreversible.
func (r *AttendanceRepository) ClearAll(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attendance_entries WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear attendance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear attendance rows affected: %w", err)
	}
	return affected, nil
}
