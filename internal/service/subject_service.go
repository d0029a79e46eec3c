package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type subjectRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
	CountByCode(ctx context.Context, userID, code string) (int, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// CreateSubjectRequest describes payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,min=1"`
	Code string `json:"code" validate:"required,min=1"`
}

// SubjectService coordinates the subject catalog.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService instantiates SubjectService.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns the user's subjects.
func (s *SubjectService) List(ctx context.Context, userID string) ([]models.Subject, error) {
	subjects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Create inserts a new subject after rejecting duplicate codes.
func (s *SubjectService) Create(ctx context.Context, userID string, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	count, err := s.repo.CountByCode(ctx, userID, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}

	subject := &models.Subject{UserID: userID, Name: req.Name, Code: req.Code}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Delete removes a subject. Schedule slots and attendance entries that
// reference it stay behind; due-occurrence resolution drops them.
func (s *SubjectService) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	s.logger.Info("subject deleted", zap.String("subject_id", id))
	return nil
}
