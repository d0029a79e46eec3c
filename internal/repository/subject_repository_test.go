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

func TestSubjectRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "code", "created_at"}).
		AddRow("sub-1", "user-1", "Computer Science", "CS101", time.Now()).
		AddRow("sub-2", "user-1", "Mathematics", "MA102", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, code, created_at FROM subjects WHERE user_id = $1 ORDER BY created_at ASC")).
		WithArgs("user-1").
		WillReturnRows(rows)

	subjects, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "CS101", subjects[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects")).
		WithArgs(sqlmock.AnyArg(), "user-1", "Computer Science", "CS101", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{UserID: "user-1", Name: "Computer Science", Code: "CS101"}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "sub-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), "user-1", "sub-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), "user-1", "sub-missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
