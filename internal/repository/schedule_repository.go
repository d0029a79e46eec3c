package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// scheduleSlotRow is the persisted shape of one schedule slot. The
// position column preserves the stored slot order per weekday, which is
// what slot indices are derived from across sessions.
type scheduleSlotRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Weekday   int       `db:"weekday"`
	Position  int       `db:"position"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	SubjectID string    `db:"subject_id"`
	CreatedAt time.Time `db:"created_at"`
}

// ScheduleRepository provides persistence for weekly schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByUser returns the sparse weekly schedule: one WeekdaySchedule per
// weekday that has at least one slot, slots in stored position order.
func (r *ScheduleRepository) ListByUser(ctx context.Context, userID string) ([]models.WeekdaySchedule, error) {
	const query = `SELECT id, user_id, weekday, position, start_time, end_time, subject_id, created_at FROM schedule_slots WHERE user_id = $1 ORDER BY weekday ASC, position ASC`
	var rows []scheduleSlotRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}

	var schedules []models.WeekdaySchedule
	for _, row := range rows {
		if len(schedules) == 0 || schedules[len(schedules)-1].Weekday != row.Weekday {
			schedules = append(schedules, models.WeekdaySchedule{Weekday: row.Weekday})
		}
		last := &schedules[len(schedules)-1]
		last.Slots = append(last.Slots, models.ScheduleSlot{
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			SubjectID: row.SubjectID,
		})
	}
	return schedules, nil
}

// ReplaceWeekday replaces one weekday's slot list in a single
// transaction (full replace, not merge; idempotent). Slot positions are
// written from the incoming order.
func (r *ScheduleRepository) ReplaceWeekday(ctx context.Context, userID string, schedule models.WeekdaySchedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace weekday: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE user_id = $1 AND weekday = $2`, userID, schedule.Weekday); err != nil {
		return fmt.Errorf("clear weekday %d: %w", schedule.Weekday, err)
	}

	const insert = `INSERT INTO schedule_slots (id, user_id, weekday, position, start_time, end_time, subject_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	now := time.Now().UTC()
	for pos, slot := range schedule.Slots {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), userID, schedule.Weekday, pos, slot.StartTime, slot.EndTime, slot.SubjectID, now); err != nil {
			return fmt.Errorf("insert slot %d for weekday %d: %w", pos, schedule.Weekday, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace weekday: %w", err)
	}
	return nil
}
