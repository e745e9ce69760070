package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type assignmentConfigReader interface {
	Get(ctx context.Context, tenantID string) (models.AssignmentConfig, error)
}

// LeaveService accepts absence submissions and covers each affected period.
type LeaveService struct {
	tx        txProvider
	stores    SubstitutionStores
	assigner  *substituteAssigner
	configs   assignmentConfigReader
	notifier  notifier
	audit     auditLogger
	metrics   *MetricsService
	window    SubmissionWindow
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// LeaveServiceOption configures the service.
type LeaveServiceOption func(*LeaveService)

// WithLeaveNotifier sets the notifier told about each assignment.
func WithLeaveNotifier(n notifier) LeaveServiceOption {
	return func(s *LeaveService) { s.notifier = n }
}

// WithLeaveAudit sets the audit sink.
func WithLeaveAudit(audit auditLogger) LeaveServiceOption {
	return func(s *LeaveService) { s.audit = audit }
}

// WithLeaveMetrics sets the metrics collector.
func WithLeaveMetrics(metrics *MetricsService) LeaveServiceOption {
	return func(s *LeaveService) { s.metrics = metrics }
}

// WithLeaveClock overrides the wall clock.
func WithLeaveClock(clock Clock) LeaveServiceOption {
	return func(s *LeaveService) { s.clock = clock }
}

// WithLeaveValidator overrides the payload validator.
func WithLeaveValidator(v *validator.Validate) LeaveServiceOption {
	return func(s *LeaveService) {
		if v != nil {
			s.validator = v
		}
	}
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(tx txProvider, stores SubstitutionStores, configs assignmentConfigReader, window SubmissionWindow, logger *zap.Logger, opts ...LeaveServiceOption) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LeaveService{
		tx:        tx,
		stores:    stores,
		configs:   configs,
		window:    window,
		validator: validator.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.assigner = newSubstituteAssigner(stores, svc.metrics, logger)
	return svc
}

// SubmitLeave records an absence and attempts to cover every timetabled period it leaves open.
// Each period commits on its own; a failure part-way keeps the absence and earlier periods.
func (s *LeaveService) SubmitLeave(ctx context.Context, req dto.SubmitLeaveRequest, actor *models.JWTClaims) (*dto.SubmitLeaveResponse, error) {
	if actor == nil || actor.TenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing tenant context")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	leaveType, ok := models.ParseLeaveType(req.LeaveType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown leave type")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && !actor.ActsAsTeacher(req.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teachers may only file leave for themselves")
	}

	now := s.clock.now()
	if !actor.IsManager() {
		if !date.Equal(s.window.Today(now)) {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrSubmissionWindowClosed, "self-service leave can only be filed for today"),
				map[string]interface{}{"window": s.window.describe()})
		}
		if !s.window.Open(now) {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrSubmissionWindowClosed, "leave submission window is closed"),
				map[string]interface{}{"window": s.window.describe()})
		}
	}

	tenantID := actor.TenantID
	if _, err := retryRead(ctx, s.logger, "teacher", func() (*models.Teacher, error) {
		return s.stores.Teachers.FindByID(ctx, tenantID, req.TeacherID)
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Persistence(err, "failed to load teacher")
	}

	slots, err := s.uncoveredSlots(ctx, tenantID, req.TeacherID, date, leaveType)
	if err != nil {
		return nil, err
	}
	periods := make([]int, len(slots))
	for i, slot := range slots {
		periods[i] = slot.PeriodNumber
	}

	existing, err := retryRead(ctx, s.logger, "active_substitutions", func() ([]models.SubstitutionRecord, error) {
		return s.stores.Records.ListActiveForAbsentTeacher(ctx, nil, tenantID, req.TeacherID, date, periods)
	})
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to check existing substitutions")
	}
	if len(existing) > 0 {
		taken := make([]int, len(existing))
		for i, record := range existing {
			taken[i] = record.PeriodNumber
		}
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrConflict, "periods already have active substitutions"),
			map[string]interface{}{"periods": taken})
	}

	cfg, err := s.configs.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	covered := models.PeriodsFor(leaveType)
	absence := &models.AbsenceRequest{
		TenantID:    tenantID,
		TeacherID:   req.TeacherID,
		Date:        date,
		LeaveType:   leaveType,
		Reason:      req.Reason,
		RequestedBy: actor.UserID,
		Periods:     make([]int64, len(covered)),
	}
	for i, p := range covered {
		absence.Periods[i] = int64(p)
	}
	if err := s.stores.Absences.Create(ctx, nil, absence); err != nil {
		return nil, appErrors.Persistence(err, "failed to record absence")
	}

	resp := &dto.SubmitLeaveResponse{
		AbsenceID:        absence.ID,
		PeriodsRequested: len(slots),
		Records:          make([]models.SubstitutionRecord, 0, len(slots)),
	}
	for _, slot := range slots {
		record, assigned, err := s.coverPeriod(ctx, cfg, absence, slot, actor.UserID)
		if err != nil {
			s.metrics.RecordAssignment(OutcomeFailed)
			s.logger.Error("leave processing stopped",
				zap.String("absence_id", absence.ID),
				zap.Int("period", slot.PeriodNumber),
				zap.Int("committed", len(resp.Records)),
				zap.Error(err))
			return nil, appErrors.WithDetails(appErrors.FromError(err), map[string]interface{}{
				"absence_id":        absence.ID,
				"failed_period":     slot.PeriodNumber,
				"committed_periods": committedPeriods(resp.Records),
			})
		}
		resp.Records = append(resp.Records, *record)
		if assigned {
			resp.PeriodsAssigned++
			s.metrics.RecordAssignment(OutcomeAssigned)
			s.metrics.RecordTransition("assign")
			if s.notifier != nil {
				s.notifier.Notify(ctx, tenantID, record.Substitute(), models.NotificationSubstitutionAssigned, substitutionPayload(record))
			}
		} else {
			s.metrics.RecordAssignment(OutcomeUnassigned)
		}
	}
	resp.Message = fmt.Sprintf("processed, %d of %d periods covered", resp.PeriodsAssigned, resp.PeriodsRequested)

	s.logger.Info("leave processed",
		zap.String("tenant_id", tenantID),
		zap.String("absence_id", absence.ID),
		zap.String("teacher_id", req.TeacherID),
		zap.String("leave_type", string(leaveType)),
		zap.Int("periods_requested", resp.PeriodsRequested),
		zap.Int("periods_assigned", resp.PeriodsAssigned))

	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		TenantID:   tenantID,
		UserID:     optionalString(actor.UserID),
		Action:     models.AuditActionLeaveSubmit,
		Resource:   "absence_request",
		ResourceID: strPtr(absence.ID),
		NewValues: auditPayload(map[string]interface{}{
			"teacher_id":        req.TeacherID,
			"date":              req.Date,
			"leave_type":        leaveType,
			"periods_requested": resp.PeriodsRequested,
			"periods_assigned":  resp.PeriodsAssigned,
		}),
	})
	return resp, nil
}

// uncoveredSlots lists the teacher's timetable slots on the date that the leave type covers, by period.
func (s *LeaveService) uncoveredSlots(ctx context.Context, tenantID, teacherID string, date time.Time, leaveType models.LeaveType) ([]models.TimetableSlot, error) {
	slots, err := retryRead(ctx, s.logger, "timetable", func() ([]models.TimetableSlot, error) {
		return s.stores.Timetable.ListByTeacherDay(ctx, tenantID, teacherID, models.ISOWeekday(date))
	})
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to load timetable")
	}

	seen := make(map[int]struct{}, len(slots))
	out := make([]models.TimetableSlot, 0, len(slots))
	for _, slot := range slots {
		if !leaveType.Covers(slot.PeriodNumber) {
			continue
		}
		if _, dup := seen[slot.PeriodNumber]; dup {
			continue
		}
		seen[slot.PeriodNumber] = struct{}{}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodNumber < out[j].PeriodNumber })
	return out, nil
}

func (s *LeaveService) coverPeriod(ctx context.Context, cfg models.AssignmentConfig, absence *models.AbsenceRequest, slot models.TimetableSlot, requestedBy string) (*models.SubstitutionRecord, bool, error) {
	record := &models.SubstitutionRecord{
		TenantID:        absence.TenantID,
		AbsenceID:       strPtr(absence.ID),
		AbsentTeacherID: absence.TeacherID,
		ClassID:         slot.ClassID,
		SubjectID:       slot.SubjectID,
		Room:            slot.Room,
		Date:            absence.Date,
		PeriodNumber:    slot.PeriodNumber,
		Reason:          absence.Reason,
		Status:          models.SubstitutionStatusUnassigned,
		RequestedBy:     requestedBy,
	}
	target := targetFor(record)

	var assigned bool
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		pick, ok, err := s.assigner.choose(ctx, tx, cfg, target, nil)
		if err != nil {
			return err
		}
		if ok {
			at := s.clock.now().UTC()
			record.Status = models.SubstitutionStatusPending
			record.SubstituteTeacherID = strPtr(pick.TeacherID)
			record.Score = intPtr(pick.Score)
			record.AssignedAt = &at
		}
		if err := s.stores.Records.Create(ctx, tx, record); err != nil {
			return err
		}
		assigned = ok
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return record, assigned, nil
}

func committedPeriods(records []models.SubstitutionRecord) []int {
	periods := make([]int, len(records))
	for i, record := range records {
		periods[i] = record.PeriodNumber
	}
	return periods
}
