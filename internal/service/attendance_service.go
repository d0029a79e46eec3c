package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classtrack/classtrack-api/internal/models"
	appErrors "github.com/classtrack/classtrack-api/pkg/errors"
	"github.com/classtrack/classtrack-api/pkg/export"
)

type attendanceRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error)
	ReplaceDate(ctx context.Context, userID string, record models.AttendanceRecord) error
	ClearAll(ctx context.Context, userID string) (int64, error)
}

type attendanceSubjectReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
}

type attendanceScheduleReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.WeekdaySchedule, error)
}

// MarkRequest records one attendance decision for a dated occurrence.
type MarkRequest struct {
	Date      string                  `json:"date" validate:"required,datekey"`
	SubjectID string                  `json:"subject_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required,attendance_status"`
	SlotIndex *int                    `json:"slot_index,omitempty" validate:"omitempty,min=0"`
}

// DueItem is one scheduled occurrence for a date joined with whatever
// mark already exists for it.
type DueItem struct {
	models.DueOccurrence
	Status *models.AttendanceStatus `json:"status,omitempty"`
}

// DueResponse lists everything markable on one date.
type DueResponse struct {
	Date        string    `json:"date"`
	Weekday     int       `json:"weekday"`
	WeekdayName string    `json:"weekday_name"`
	Occurrences []DueItem `json:"occurrences"`
}

// userAttendanceState is the in-memory working copy of one user's
// records. Marks mutate it optimistically before the store confirms;
// its mutex serialises those mutations so concurrent marks settle in
// arrival order with the last intent winning.
type userAttendanceState struct {
	mu      sync.Mutex
	loaded  bool
	records map[string]models.AttendanceRecord
}

// AttendanceService reconciles the weekly schedule against per-date
// attendance records: what is due, what has been marked, and the
// aggregate picture. Writes are optimistic with exact rollback, so the
// in-memory state never drifts from what the store accepted.
type AttendanceService struct {
	repo      attendanceRepository
	subjects  attendanceSubjectReader
	schedules attendanceScheduleReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	mu     sync.Mutex
	states map[string]*userAttendanceState
}

// NewAttendanceService instantiates AttendanceService and registers the
// payload validations it relies on.
func NewAttendanceService(repo attendanceRepository, subjects attendanceSubjectReader, schedules attendanceScheduleReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDateKey(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	return &AttendanceService{
		repo:      repo,
		subjects:  subjects,
		schedules: schedules,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		states:    make(map[string]*userAttendanceState),
	}
}

func (s *AttendanceService) state(userID string) *userAttendanceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	if !ok {
		st = &userAttendanceState{records: make(map[string]models.AttendanceRecord)}
		s.states[userID] = st
	}
	return st
}

// ensureLoaded seeds the state from the store on first access. Callers
// hold st.mu.
func (s *AttendanceService) ensureLoaded(ctx context.Context, userID string, st *userAttendanceState) error {
	if st.loaded {
		return nil
	}
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	for _, record := range records {
		st.records[record.Date] = record
	}
	st.loaded = true
	return nil
}

// snapshotRecords copies the state into a date-sorted slice. Callers
// hold st.mu.
func snapshotRecords(st *userAttendanceState) []models.AttendanceRecord {
	records := make([]models.AttendanceRecord, 0, len(st.records))
	for _, record := range st.records {
		records = append(records, record.Clone())
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	return records
}

// History returns every attendance record, oldest date first.
func (s *AttendanceService) History(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.ensureLoaded(ctx, userID, st); err != nil {
		return nil, err
	}
	return snapshotRecords(st), nil
}

// Due resolves which lectures are due on a date and how far along the
// student is in marking them. Schedule slots pointing at deleted
// subjects are omitted without disturbing the positional indices of the
// rest.
func (s *AttendanceService) Due(ctx context.Context, userID, date string) (*DueResponse, error) {
	key, err := models.NormalizeDateKey(date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	day, _ := models.ParseDateKey(key)
	weekday := models.WeekdayIndex(day)

	schedules, err := s.schedules.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	subjects, err := s.subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	due := models.ResolveDueOccurrences(weekday, schedules, models.NewSubjectCatalog(subjects))

	st := s.state(userID)
	st.mu.Lock()
	if err := s.ensureLoaded(ctx, userID, st); err != nil {
		st.mu.Unlock()
		return nil, err
	}
	record := st.records[key].Clone()
	st.mu.Unlock()

	resp := &DueResponse{Date: key, Weekday: weekday, WeekdayName: models.WeekdayNames[weekday], Occurrences: make([]DueItem, 0, len(due))}
	for _, occ := range due {
		item := DueItem{DueOccurrence: occ}
		if status, ok := findMark(record, occ); ok {
			item.Status = &status
		}
		resp.Occurrences = append(resp.Occurrences, item)
	}
	return resp, nil
}

// findMark locates the record entry whose occurrence identity matches
// the due occurrence exactly. An unindexed entry never answers for an
// indexed occurrence; with repeated lectures of one subject it could
// claim every row at once.
func findMark(record models.AttendanceRecord, occ models.DueOccurrence) (models.AttendanceStatus, bool) {
	idx := occ.SlotIndex
	key := models.NewOccurrenceKey(occ.Subject.ID, &idx)
	for _, entry := range record.Entries {
		if entry.Occurrence() == key {
			return entry.Status, true
		}
	}
	return "", false
}

// Mark records one attendance decision. The in-memory record is updated
// first and the store is asked to confirm; if persistence fails the
// snapshot taken before the change is restored exactly, so a failed
// mark leaves no trace. Marks for one user are serialised, which gives
// concurrent re-marks of the same occurrence a defined outcome: the
// last one to arrive wins.
func (s *AttendanceService) Mark(ctx context.Context, userID string, req MarkRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	key, err := models.NormalizeDateKey(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := s.ensureLoaded(ctx, userID, st); err != nil {
		return nil, err
	}

	record, ok := st.records[key]
	if !ok {
		record = models.AttendanceRecord{Date: key}
	}
	snapshot := record.Clone()

	record.Put(models.AttendanceEntry{SubjectID: req.SubjectID, Status: req.Status, SlotIndex: req.SlotIndex})
	st.records[key] = record

	if err := s.repo.ReplaceDate(ctx, userID, record); err != nil {
		if len(snapshot.Entries) == 0 && !ok {
			delete(st.records, key)
		} else {
			st.records[key] = snapshot
		}
		s.recordMark("rollback")
		s.logger.Error("attendance mark rolled back", zap.String("date", key), zap.String("subject_id", req.SubjectID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save attendance, change reverted")
	}

	s.recordMark("saved")
	saved := record.Clone()
	return &saved, nil
}

// ClearAll wipes every attendance record for the user and reports how
// many entries went away. There is no undo.
func (s *AttendanceService) ClearAll(ctx context.Context, userID string) (int64, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	removed, err := s.repo.ClearAll(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to clear attendance")
	}
	st.records = make(map[string]models.AttendanceRecord)
	st.loaded = true
	return removed, nil
}

// OverallStats folds all records into a single summary. Recomputed on
// every call; there is deliberately no cached counter to drift.
func (s *AttendanceService) OverallStats(ctx context.Context, userID string) (models.AttendanceStats, error) {
	records, err := s.History(ctx, userID)
	if err != nil {
		return models.AttendanceStats{}, err
	}
	return models.ComputeOverallStats(records), nil
}

// SubjectStats folds records per subject, one row per catalog subject.
func (s *AttendanceService) SubjectStats(ctx context.Context, userID string) ([]models.SubjectStats, error) {
	records, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	return models.ComputeSubjectStats(records, subjects), nil
}

// ReportDataset flattens per-subject stats into a tabular dataset for
// the CSV and PDF exporters.
func (s *AttendanceService) ReportDataset(ctx context.Context, userID string) (export.Dataset, error) {
	stats, err := s.SubjectStats(ctx, userID)
	if err != nil {
		return export.Dataset{}, err
	}
	overall, err := s.OverallStats(ctx, userID)
	if err != nil {
		return export.Dataset{}, err
	}

	data := export.Dataset{
		Headers: []string{"Subject", "Code", "Total", "Attended", "Missed", "Percentage", "Bunk Rate"},
	}
	for _, row := range stats {
		data.Rows = append(data.Rows, []string{
			row.SubjectName,
			row.SubjectCode,
			fmt.Sprintf("%d", row.TotalClasses),
			fmt.Sprintf("%d", row.AttendedClasses),
			fmt.Sprintf("%d", row.TotalClasses-row.AttendedClasses),
			fmt.Sprintf("%.2f", row.CurrentPercentage),
			fmt.Sprintf("%.2f", row.BunkRate),
		})
	}
	data.Rows = append(data.Rows, []string{
		"Overall",
		"",
		fmt.Sprintf("%d", overall.TotalLectures),
		fmt.Sprintf("%d", overall.LecturesAttended),
		fmt.Sprintf("%d", overall.LecturesMissed),
		fmt.Sprintf("%.2f", overall.OverallPercentage),
		"",
	})
	return data, nil
}

func (s *AttendanceService) recordMark(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordMark(outcome)
	}
}
