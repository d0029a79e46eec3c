package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
)

type scheduleRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.WeekdaySchedule, error)
	ReplaceWeekday(ctx context.Context, userID string, schedule models.WeekdaySchedule) error
}

// ReplaceWeekdayRequest replaces one weekday's slot list.
type ReplaceWeekdayRequest struct {
	Weekday int                   `json:"weekday" validate:"min=0,max=6"`
	Slots   []models.ScheduleSlot `json:"slots" validate:"dive"`
}

// SaveMatrixRequest persists a full matrix edit.
type SaveMatrixRequest struct {
	TimeSlots []models.TimeRange `json:"time_slots" validate:"dive"`
	Cells     [][]string         `json:"cells"`
}

// MatrixRowRequest applies a single row edit to a submitted matrix.
type MatrixRowRequest struct {
	TimeSlots []models.TimeRange `json:"time_slots" validate:"dive"`
	Cells     [][]string         `json:"cells"`
	NewSlot   *models.TimeRange  `json:"new_slot,omitempty"`
	RowIndex  *int               `json:"row_index,omitempty"`
}

// ScheduleService coordinates the weekly timetable: the sparse weekday
// form that gets persisted and the dense matrix form used for editing.
type ScheduleService struct {
	repo      scheduleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerHHMMValidation(validate)
	return &ScheduleService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

func registerHHMMValidation(validate *validator.Validate) {
	_ = validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return models.ValidHHMM(fl.Field().String())
	})
}

func scheduleCacheKey(userID string) string {
	return "schedule:weekly:" + userID
}

// Weekly returns the sparse weekly schedule, served from cache when warm.
func (s *ScheduleService) Weekly(ctx context.Context, userID string) ([]models.WeekdaySchedule, bool, error) {
	key := scheduleCacheKey(userID)
	var cached []models.WeekdaySchedule
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, true, nil
	}

	schedules, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.cache.Set(ctx, key, schedules, s.cacheTTL); err != nil {
		s.logger.Warn("schedule cache warm failed", zap.Error(err))
	}
	return schedules, false, nil
}

// ReplaceWeekday validates and persists one weekday's slot list, then
// invalidates the cached schedule.
func (s *ScheduleService) ReplaceWeekday(ctx context.Context, userID string, req ReplaceWeekdayRequest) (*models.WeekdaySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	for _, slot := range req.Slots {
		if err := slot.Range().Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}

	schedule := models.WeekdaySchedule{Weekday: req.Weekday, Slots: req.Slots}
	if err := s.repo.ReplaceWeekday(ctx, userID, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save weekday schedule")
	}

	s.cache.Invalidate(ctx, scheduleCacheKey(userID))
	return &schedule, nil
}

// Matrix builds the dense editing matrix from the stored schedule.
func (s *ScheduleService) Matrix(ctx context.Context, userID string) (*models.ScheduleMatrix, error) {
	schedules, _, err := s.Weekly(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.BuildScheduleMatrix(schedules), nil
}

// InsertMatrixRow validates and splices a new all-sentinel row into the
// submitted matrix. A duplicate time pair is a conflict, not a merge.
func (s *ScheduleService) InsertMatrixRow(req MatrixRowRequest) (*models.ScheduleMatrix, error) {
	if req.NewSlot == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new_slot is required")
	}
	matrix := &models.ScheduleMatrix{TimeSlots: req.TimeSlots, Cells: req.Cells}
	if err := matrix.ValidateShape(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if _, err := matrix.InsertRow(*req.NewSlot); err != nil {
		if err == models.ErrDuplicateTimeRange {
			return nil, appErrors.Clone(appErrors.ErrSlotConflict, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return matrix, nil
}

// DeleteMatrixRow removes one row from the submitted matrix, discarding
// that row's subject assignments. Callers confirm this with the user.
func (s *ScheduleService) DeleteMatrixRow(req MatrixRowRequest) (*models.ScheduleMatrix, error) {
	if req.RowIndex == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "row_index is required")
	}
	matrix := &models.ScheduleMatrix{TimeSlots: req.TimeSlots, Cells: req.Cells}
	if err := matrix.ValidateShape(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := matrix.DeleteRow(*req.RowIndex); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return matrix, nil
}

// SaveMatrix reduces the matrix to sparse weekday schedules and persists
// every tracked weekday with one concurrent replace call each. The save
// succeeds only if every call succeeds; weekdays that were already
// replaced before another one failed stay replaced (no compensating
// rollback), which is reported as an aggregate failure rather than
// hidden.
func (s *ScheduleService) SaveMatrix(ctx context.Context, userID string, req SaveMatrixRequest) error {
	matrix := &models.ScheduleMatrix{TimeSlots: req.TimeSlots, Cells: req.Cells}
	if err := matrix.ValidateShape(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	for _, ts := range matrix.TimeSlots {
		if err := ts.Validate(); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}

	reduced := matrix.Reduce()
	byWeekday := make(map[int]models.WeekdaySchedule, len(reduced))
	for _, schedule := range reduced {
		byWeekday[schedule.Weekday] = schedule
	}

	// Every tracked weekday is written, including empty ones, so slots
	// removed in the editor are cleared remotely too.
	var toSave []models.WeekdaySchedule
	for day := 0; day < models.TrackedWeekdays; day++ {
		schedule, ok := byWeekday[day]
		if !ok {
			schedule = models.WeekdaySchedule{Weekday: day}
		}
		toSave = append(toSave, schedule)
	}
	for _, schedule := range reduced {
		if schedule.Weekday >= models.TrackedWeekdays {
			toSave = append(toSave, schedule)
		}
	}

	type saveResult struct {
		weekday int
		err     error
	}

	results := make(chan saveResult, len(toSave))
	var wg sync.WaitGroup
	for _, schedule := range toSave {
		wg.Add(1)
		go func(schedule models.WeekdaySchedule) {
			defer wg.Done()
			results <- saveResult{weekday: schedule.Weekday, err: s.repo.ReplaceWeekday(ctx, userID, schedule)}
		}(schedule)
	}
	wg.Wait()
	close(results)

	var failed []int
	for result := range results {
		if result.err != nil {
			s.logger.Error("weekday save failed", zap.Int("weekday", result.weekday), zap.Error(result.err))
			failed = append(failed, result.weekday)
		}
	}

	s.cache.Invalidate(ctx, scheduleCacheKey(userID))

	if len(failed) > 0 {
		sort.Ints(failed)
		return appErrors.Clone(appErrors.ErrPartialSave, fmt.Sprintf("schedule save failed for %d of %d weekdays", len(failed), len(toSave)))
	}
	return nil
}

// CommonTimeRanges returns the quick-add slot list for the editor.
func (s *ScheduleService) CommonTimeRanges() []models.TimeRange {
	return models.CommonTimeRanges
}
