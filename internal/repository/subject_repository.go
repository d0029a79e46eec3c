package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classtrack/classtrack-api/internal/models"
)

// SubjectRepository provides persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByUser returns every subject owned by the user.
func (r *SubjectRepository) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	const query = `SELECT id, user_id, name, code, created_at FROM subjects WHERE user_id = $1 ORDER BY created_at ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, userID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// CountByCode reports how many subjects with the code the user owns.
func (r *SubjectRepository) CountByCode(ctx context.Context, userID, code string) (int, error) {
	const query = `SELECT COUNT(*) FROM subjects WHERE user_id = $1 AND code = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, code); err != nil {
		return 0, fmt.Errorf("count subjects by code: %w", err)
	}
	return count, nil
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subjects (id, user_id, name, code, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, subject.ID, subject.UserID, subject.Name, subject.Code, subject.CreatedAt); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Delete removes a subject by id. Schedule slots and attendance entries
// referencing it are left in place; readers drop the dangling references.
func (r *SubjectRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	const query = `DELETE FROM subjects WHERE user_id = $1 AND id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete subject: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete subject rows affected: %w", err)
	}
	return affected > 0, nil
}
