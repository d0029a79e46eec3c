package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type fakeSubjectRepo struct {
	subjects  []models.Subject
	codeCount int
	deleted   bool
	created   []*models.Subject
}

func (f *fakeSubjectRepo) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	return f.subjects, nil
}

func (f *fakeSubjectRepo) CountByCode(ctx context.Context, userID, code string) (int, error) {
	return f.codeCount, nil
}

func (f *fakeSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "sub-1"
	f.created = append(f.created, subject)
	return nil
}

func (f *fakeSubjectRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	return f.deleted, nil
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := &fakeSubjectRepo{}
	svc := NewSubjectService(repo, nil, nil)

	subject, err := svc.Create(context.Background(), "user-1", CreateSubjectRequest{Name: "Computer Science", Code: "CS101"})

	require.NoError(t, err)
	assert.Equal(t, "sub-1", subject.ID)
	assert.Equal(t, "user-1", subject.UserID)
	require.Len(t, repo.created, 1)
}

func TestSubjectServiceCreateDuplicateCode(t *testing.T) {
	svc := NewSubjectService(&fakeSubjectRepo{codeCount: 1}, nil, nil)

	_, err := svc.Create(context.Background(), "user-1", CreateSubjectRequest{Name: "Computer Science", Code: "CS101"})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSubjectServiceCreateValidation(t *testing.T) {
	svc := NewSubjectService(&fakeSubjectRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), "user-1", CreateSubjectRequest{Name: "", Code: ""})

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubjectServiceDelete(t *testing.T) {
	svc := NewSubjectService(&fakeSubjectRepo{deleted: true}, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "user-1", "sub-1"))

	svc = NewSubjectService(&fakeSubjectRepo{deleted: false}, nil, nil)
	err := svc.Delete(context.Background(), "user-1", "sub-missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
