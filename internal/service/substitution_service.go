package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

// SubstitutionService drives substitution records through their lifecycle.
type SubstitutionService struct {
	tx        txProvider
	stores    SubstitutionStores
	assigner  *substituteAssigner
	configs   assignmentConfigReader
	notifier  notifier
	audit     auditLogger
	metrics   *MetricsService
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// SubstitutionServiceOption configures the service.
type SubstitutionServiceOption func(*SubstitutionService)

// WithSubstitutionNotifier sets the notifier told about lifecycle changes.
func WithSubstitutionNotifier(n notifier) SubstitutionServiceOption {
	return func(s *SubstitutionService) { s.notifier = n }
}

// WithSubstitutionAudit sets the audit sink.
func WithSubstitutionAudit(audit auditLogger) SubstitutionServiceOption {
	return func(s *SubstitutionService) { s.audit = audit }
}

// WithSubstitutionMetrics sets the metrics collector.
func WithSubstitutionMetrics(metrics *MetricsService) SubstitutionServiceOption {
	return func(s *SubstitutionService) { s.metrics = metrics }
}

// WithSubstitutionClock overrides the wall clock.
func WithSubstitutionClock(clock Clock) SubstitutionServiceOption {
	return func(s *SubstitutionService) { s.clock = clock }
}

// WithSubstitutionValidator overrides the payload validator.
func WithSubstitutionValidator(v *validator.Validate) SubstitutionServiceOption {
	return func(s *SubstitutionService) {
		if v != nil {
			s.validator = v
		}
	}
}

// NewSubstitutionService constructs a SubstitutionService.
func NewSubstitutionService(tx txProvider, stores SubstitutionStores, configs assignmentConfigReader, logger *zap.Logger, opts ...SubstitutionServiceOption) *SubstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SubstitutionService{
		tx:        tx,
		stores:    stores,
		configs:   configs,
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

// Get returns a record with its lineage. Teachers only see records they are part of.
func (s *SubstitutionService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.SubstitutionDetail, error) {
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && !involves(actor, record) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "substitution does not involve you")
	}
	return &dto.SubstitutionDetail{SubstitutionRecord: *record, Lineage: record.Lineage()}, nil
}

// List returns records matching the query; teachers are scoped to their own records.
func (s *SubstitutionService) List(ctx context.Context, query dto.SubstitutionQuery, actor *models.JWTClaims) ([]dto.SubstitutionDetail, *models.Pagination, error) {
	if actor == nil || actor.TenantID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing tenant context")
	}
	filter := models.SubstitutionFilter{
		TenantID:        actor.TenantID,
		AbsentTeacherID: query.AbsentTeacherID,
		SubstituteID:    query.SubstituteID,
		Status:          query.Status,
		Limit:           query.Limit,
		Offset:          query.Offset,
	}
	if query.Date != "" {
		date, err := parseDate(query.Date)
		if err != nil {
			return nil, nil, err
		}
		filter.Date = &date
	}
	if !actor.IsManager() {
		if actor.TeacherID == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a teacher")
		}
		filter.InvolvesTeacher = actor.TeacherID
	}

	type page struct {
		records []models.SubstitutionRecord
		total   int
	}
	result, err := retryRead(ctx, s.logger, "substitution_list", func() (page, error) {
		records, total, err := s.stores.Records.List(ctx, filter)
		return page{records: records, total: total}, err
	})
	if err != nil {
		return nil, nil, appErrors.Persistence(err, "failed to list substitutions")
	}

	details := make([]dto.SubstitutionDetail, len(result.records))
	for i := range result.records {
		details[i] = dto.SubstitutionDetail{SubstitutionRecord: result.records[i], Lineage: result.records[i].Lineage()}
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	pagination := &models.Pagination{Page: filter.Offset/limit + 1, PageSize: limit, TotalCount: result.total}
	return details, pagination, nil
}

// Confirm accepts a pending assignment on behalf of the substitute.
func (s *SubstitutionService) Confirm(ctx context.Context, id string, actor *models.JWTClaims) (*models.SubstitutionRecord, error) {
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && !actor.ActsAsTeacher(record.Substitute()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned substitute may confirm")
	}
	if err := guardTransition(record, models.SubstitutionStatusConfirmed); err != nil {
		return nil, err
	}

	err = withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		return s.transition(ctx, tx, repository.StatusUpdate{
			TenantID:    record.TenantID,
			ID:          record.ID,
			From:        []models.SubstitutionStatus{record.Status},
			To:          models.SubstitutionStatusConfirmed,
			At:          s.clock.now().UTC(),
			ConfirmedBy: optionalString(actor.UserID),
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("confirm")
	s.notify(ctx, updated.AbsentTeacherID, models.NotificationSubstitutionConfirmed, updated)
	s.recordAudit(ctx, actor, models.AuditActionSubstitutionConfirm, record, updated)
	return updated, nil
}

// Cancel closes a pending or confirmed record, releasing its substitute. With Rematch set a
// successor is created for the same period, excluding the cancelled substitute.
func (s *SubstitutionService) Cancel(ctx context.Context, id string, req dto.CancelSubstitutionRequest, actor *models.JWTClaims) (*dto.CancelSubstitutionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers may cancel substitutions")
	}
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(record, models.SubstitutionStatusCancelled); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, record.TenantID)
	if err != nil {
		return nil, err
	}

	var next *models.SubstitutionRecord
	var assigned bool
	err = withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		now := s.clock.now().UTC()
		if err := s.transition(ctx, tx, repository.StatusUpdate{
			TenantID:     record.TenantID,
			ID:           record.ID,
			From:         []models.SubstitutionStatus{record.Status},
			To:           models.SubstitutionStatusCancelled,
			At:           now,
			CancelReason: strPtr(req.Reason),
		}); err != nil {
			return err
		}
		if record.Status.HoldsWorkload() {
			if err := s.assigner.release(ctx, tx, record.TenantID, record.Substitute(), record.Date, true); err != nil {
				return err
			}
		}
		if !req.Rematch {
			return nil
		}
		next, assigned, err = s.createSuccessor(ctx, tx, cfg, record, actor.UserID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	cancelled, err := s.reload(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("cancel")
	s.notify(ctx, record.Substitute(), models.NotificationSubstitutionCancelled, cancelled)
	if next != nil {
		s.afterSuccessor(ctx, next, assigned)
	}
	s.recordAudit(ctx, actor, models.AuditActionSubstitutionCancel, record, cancelled)
	return &dto.CancelSubstitutionResponse{Cancelled: cancelled, Replacement: next}, nil
}

// RequestReplacement retires the current substitute and re-runs selection without them.
// The successor is always created; it stays UNASSIGNED when nobody else qualifies.
func (s *SubstitutionService) RequestReplacement(ctx context.Context, id string, req dto.RequestReplacementRequest, actor *models.JWTClaims) (*dto.ReplacementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid replacement payload")
	}
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && !actor.ActsAsTeacher(record.Substitute()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned substitute may request a replacement")
	}
	if err := guardTransition(record, models.SubstitutionStatusSubstituted); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, record.TenantID)
	if err != nil {
		return nil, err
	}

	var next *models.SubstitutionRecord
	var assigned bool
	err = withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		now := s.clock.now().UTC()
		if err := s.transition(ctx, tx, repository.StatusUpdate{
			TenantID:     record.TenantID,
			ID:           record.ID,
			From:         []models.SubstitutionStatus{record.Status},
			To:           models.SubstitutionStatusSubstituted,
			At:           now,
			CancelReason: strPtr(req.Reason),
		}); err != nil {
			return err
		}
		if record.Status.HoldsWorkload() {
			if err := s.assigner.release(ctx, tx, record.TenantID, record.Substitute(), record.Date, true); err != nil {
				return err
			}
		}
		next, assigned, err = s.createSuccessor(ctx, tx, cfg, record, actor.UserID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	original, err := s.reload(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("replace")
	s.notify(ctx, record.Substitute(), models.NotificationSubstitutionReplaced, original)
	s.afterSuccessor(ctx, next, assigned)
	s.recordAudit(ctx, actor, models.AuditActionSubstitutionReplace, record, next)
	return &dto.ReplacementResponse{Original: original, Replacement: next, Assigned: assigned}, nil
}

// AssignManually covers an UNASSIGNED record with a manager-chosen teacher. The teacher must
// still pass every hard filter.
func (s *SubstitutionService) AssignManually(ctx context.Context, id string, req dto.ManualAssignRequest, actor *models.JWTClaims) (*models.SubstitutionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers may assign substitutes")
	}
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(record, models.SubstitutionStatusPending); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, record.TenantID)
	if err != nil {
		return nil, err
	}

	err = withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		pick, reason, err := s.assigner.reserve(ctx, tx, cfg, targetFor(record), req.SubstituteTeacherID)
		if err != nil {
			return err
		}
		if reason != RejectionNone {
			return appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrNoEligibleCandidate, "teacher cannot cover this period"),
				map[string]interface{}{"teacher_id": req.SubstituteTeacherID, "reason": string(reason)})
		}
		return s.transition(ctx, tx, repository.StatusUpdate{
			TenantID:            record.TenantID,
			ID:                  record.ID,
			From:                []models.SubstitutionStatus{models.SubstitutionStatusUnassigned},
			To:                  models.SubstitutionStatusPending,
			At:                  s.clock.now().UTC(),
			SubstituteTeacherID: strPtr(pick.TeacherID),
			Score:               intPtr(pick.Score),
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("assign")
	s.notify(ctx, updated.Substitute(), models.NotificationSubstitutionAssigned, updated)
	s.recordAudit(ctx, actor, models.AuditActionSubstitutionAssign, record, updated)
	return updated, nil
}

// RetryAssignment re-runs automatic selection for an UNASSIGNED record.
func (s *SubstitutionService) RetryAssignment(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReplacementResponse, error) {
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers may retry assignments")
	}
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(record, models.SubstitutionStatusPending); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, record.TenantID)
	if err != nil {
		return nil, err
	}

	var assigned bool
	err = withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		pick, ok, err := s.assigner.choose(ctx, tx, cfg, targetFor(record), nil)
		if err != nil || !ok {
			return err
		}
		assigned = true
		return s.transition(ctx, tx, repository.StatusUpdate{
			TenantID:            record.TenantID,
			ID:                  record.ID,
			From:                []models.SubstitutionStatus{models.SubstitutionStatusUnassigned},
			To:                  models.SubstitutionStatusPending,
			At:                  s.clock.now().UTC(),
			SubstituteTeacherID: strPtr(pick.TeacherID),
			Score:               intPtr(pick.Score),
		})
	})
	if err != nil {
		return nil, err
	}
	if !assigned {
		s.metrics.RecordAssignment(OutcomeUnassigned)
		return &dto.ReplacementResponse{Original: record, Assigned: false}, nil
	}

	updated, err := s.reload(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAssignment(OutcomeAssigned)
	s.metrics.RecordTransition("assign")
	s.notify(ctx, updated.Substitute(), models.NotificationSubstitutionAssigned, updated)
	s.recordAudit(ctx, actor, models.AuditActionSubstitutionAssign, record, updated)
	return &dto.ReplacementResponse{Original: updated, Assigned: true}, nil
}

// Complete closes a confirmed record after the period was taught.
func (s *SubstitutionService) Complete(ctx context.Context, id string, req dto.CompleteSubstitutionRequest, actor *models.JWTClaims) (*models.SubstitutionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	record, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsManager() && !actor.ActsAsTeacher(record.Substitute()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned substitute may complete")
	}
	if err := guardTransition(record, models.SubstitutionStatusCompleted); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, record.TenantID)
	if err != nil {
		return nil, err
	}

	err = withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.transition(ctx, tx, repository.StatusUpdate{
			TenantID:         record.TenantID,
			ID:               record.ID,
			From:             []models.SubstitutionStatus{models.SubstitutionStatusConfirmed},
			To:               models.SubstitutionStatusCompleted,
			At:               s.clock.now().UTC(),
			AttendanceTaken:  boolPtr(req.AttendanceTaken),
			LessonsCompleted: boolPtr(req.LessonsCompleted),
			CompletionNotes:  optionalString(req.Notes),
		}); err != nil {
			return err
		}
		if !cfg.ReleaseOnComplete {
			return nil
		}
		return s.assigner.release(ctx, tx, record.TenantID, record.Substitute(), record.Date, false)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("complete")
	s.recordAudit(ctx, actor, models.AuditActionSubstitutionComplete, record, updated)
	return updated, nil
}

// Candidates explains how every active teacher fares for a period without assigning anyone.
func (s *SubstitutionService) Candidates(ctx context.Context, query dto.CandidateQuery, actor *models.JWTClaims) ([]dto.CandidateEvaluation, error) {
	if !actor.IsManager() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers may inspect candidates")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate query")
	}
	date, err := parseDate(query.Date)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}

	target := periodTarget{
		TenantID:        actor.TenantID,
		AbsentTeacherID: query.AbsentTeacherID,
		SubjectID:       query.SubjectID,
		ClassID:         query.ClassID,
		Date:            date,
		Period:          query.PeriodNumber,
	}
	type evaluation struct {
		candidates []CandidateSnapshot
		req        EvaluationRequest
	}
	result, err := retryRead(ctx, s.logger, "candidates", func() (evaluation, error) {
		workloads, err := s.stores.Workload.ListForDate(ctx, nil, target.TenantID, date, false)
		if err != nil {
			return evaluation{}, err
		}
		scheduled, err := s.stores.Timetable.CountByDay(ctx, nil, target.TenantID, models.ISOWeekday(date))
		if err != nil {
			return evaluation{}, err
		}
		workloads = withScheduledPeriods(workloads, scheduled, target.TenantID, date)
		candidates, req, err := s.assigner.snapshots(ctx, nil, target, workloads)
		return evaluation{candidates: candidates, req: req}, err
	})
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to evaluate candidates")
	}

	best, found := SelectBestCandidate(cfg, result.req, result.candidates)
	out := make([]dto.CandidateEvaluation, 0, len(result.candidates))
	for _, c := range RankCandidates(cfg, result.req, result.candidates) {
		out = append(out, dto.CandidateEvaluation{
			TeacherID:            c.TeacherID,
			SubjectID:            c.SubjectID,
			Eligible:             true,
			Score:                c.Score,
			CurrentSubstitutions: c.CurrentSubstitutions,
			PeriodsToday:         c.PeriodsToday,
			IsClassTeacher:       c.IsClassTeacher,
			Selected:             found && c.TeacherID == best.TeacherID,
		})
	}
	for _, c := range result.candidates {
		reason := CheckEligibility(cfg, result.req, c)
		if reason == RejectionNone {
			continue
		}
		out = append(out, dto.CandidateEvaluation{
			TeacherID:            c.TeacherID,
			SubjectID:            c.SubjectID,
			Rejection:            string(reason),
			CurrentSubstitutions: c.CurrentSubstitutions,
			PeriodsToday:         c.PeriodsToday,
			IsClassTeacher:       c.IsClassTeacher,
		})
	}
	return out, nil
}

// withScheduledPeriods adds the rows EnsureForDate would create for teachers not yet tracked on the date.
func withScheduledPeriods(workloads []models.TeacherWorkload, scheduled map[string]int, tenantID string, date time.Time) []models.TeacherWorkload {
	tracked := make(map[string]struct{}, len(workloads))
	for _, w := range workloads {
		tracked[w.TeacherID] = struct{}{}
	}
	for teacherID, periods := range scheduled {
		if _, ok := tracked[teacherID]; ok {
			continue
		}
		workloads = append(workloads, models.TeacherWorkload{TenantID: tenantID, TeacherID: teacherID, Date: date, PeriodsToday: periods})
	}
	return workloads
}

func (s *SubstitutionService) load(ctx context.Context, actor *models.JWTClaims, id string) (*models.SubstitutionRecord, error) {
	if actor == nil || actor.TenantID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing tenant context")
	}
	record, err := retryRead(ctx, s.logger, "substitution", func() (*models.SubstitutionRecord, error) {
		return s.stores.Records.GetByID(ctx, nil, actor.TenantID, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitution not found")
		}
		return nil, appErrors.Persistence(err, "failed to load substitution")
	}
	return record, nil
}

func (s *SubstitutionService) reload(ctx context.Context, record *models.SubstitutionRecord) (*models.SubstitutionRecord, error) {
	updated, err := retryRead(ctx, s.logger, "substitution", func() (*models.SubstitutionRecord, error) {
		return s.stores.Records.GetByID(ctx, nil, record.TenantID, record.ID)
	})
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to reload substitution")
	}
	return updated, nil
}

// transition applies a guarded status update; losing a race surfaces as InvalidState.
func (s *SubstitutionService) transition(ctx context.Context, tx sqlx.ExtContext, update repository.StatusUpdate) error {
	err := s.stores.Records.UpdateStatus(ctx, tx, update)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidState, "substitution changed concurrently; reload and retry")
	}
	return err
}

func (s *SubstitutionService) createSuccessor(ctx context.Context, tx sqlx.ExtContext, cfg models.AssignmentConfig, original *models.SubstitutionRecord, requestedBy string, now time.Time) (*models.SubstitutionRecord, bool, error) {
	pick, ok, err := s.assigner.choose(ctx, tx, cfg, targetFor(original), []string{original.Substitute()})
	if err != nil {
		return nil, false, err
	}
	next := successor(original, requestedBy, pick, ok, now)
	if err := s.stores.Records.Create(ctx, tx, next); err != nil {
		return nil, false, err
	}
	if err := s.stores.Records.SetSupersededBy(ctx, tx, original.TenantID, original.ID, next.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrInvalidState, "substitution already superseded")
		}
		return nil, false, err
	}
	return next, ok, nil
}

func (s *SubstitutionService) afterSuccessor(ctx context.Context, next *models.SubstitutionRecord, assigned bool) {
	if !assigned {
		s.metrics.RecordAssignment(OutcomeUnassigned)
		return
	}
	s.metrics.RecordAssignment(OutcomeAssigned)
	s.notify(ctx, next.Substitute(), models.NotificationSubstitutionAssigned, next)
}

func (s *SubstitutionService) notify(ctx context.Context, recipient string, event models.NotificationEvent, record *models.SubstitutionRecord) {
	if s.notifier == nil || record == nil {
		return
	}
	s.notifier.Notify(ctx, record.TenantID, recipient, event, substitutionPayload(record))
}

func (s *SubstitutionService) recordAudit(ctx context.Context, actor *models.JWTClaims, action string, before, after *models.SubstitutionRecord) {
	emitAudit(ctx, s.audit, s.logger, &models.AuditLog{
		TenantID:   before.TenantID,
		UserID:     optionalString(actor.UserID),
		Action:     action,
		Resource:   "substitution",
		ResourceID: strPtr(before.ID),
		OldValues:  auditPayload(before),
		NewValues:  auditPayload(after),
	})
}

func guardTransition(record *models.SubstitutionRecord, to models.SubstitutionStatus) error {
	if models.CanTransition(record.Status, to) {
		return nil
	}
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrInvalidState, "substitution cannot move to "+string(to)),
		map[string]interface{}{"status": record.Status, "target": to, "allowed_from": models.SourcesFor(to)})
}

func involves(actor *models.JWTClaims, record *models.SubstitutionRecord) bool {
	return actor.ActsAsTeacher(record.AbsentTeacherID) || actor.ActsAsTeacher(record.Substitute())
}
