package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
)

type rosterReader interface {
	ListActive(ctx context.Context, exec sqlx.ExtContext, tenantID string) ([]models.Teacher, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Teacher, error)
}

type timetableReader interface {
	ListByTeacherDay(ctx context.Context, tenantID, teacherID string, dayOfWeek int) ([]models.TimetableSlot, error)
	ListBusyTeachers(ctx context.Context, exec sqlx.ExtContext, tenantID string, dayOfWeek, period int) ([]string, error)
	CountByDay(ctx context.Context, exec sqlx.ExtContext, tenantID string, dayOfWeek int) (map[string]int, error)
}

type absenceStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, absence *models.AbsenceRequest) error
	ListAbsentTeachers(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, period int) ([]string, error)
}

type classTeacherReader interface {
	GetClassTeacher(ctx context.Context, exec sqlx.ExtContext, tenantID, classID string) (string, error)
}

type substitutionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.SubstitutionRecord) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, tenantID, id string) (*models.SubstitutionRecord, error)
	List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRecord, int, error)
	ListActiveForAbsentTeacher(ctx context.Context, exec sqlx.ExtContext, tenantID, teacherID string, date time.Time, periods []int) ([]models.SubstitutionRecord, error)
	ListBusySubstitutes(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, period int) ([]string, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, update repository.StatusUpdate) error
	SetSupersededBy(ctx context.Context, exec sqlx.ExtContext, tenantID, id, successorID string) error
}

type workloadStore interface {
	EnsureForDate(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time) error
	ListForDate(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, lock bool) ([]models.TeacherWorkload, error)
	Adjust(ctx context.Context, exec sqlx.ExtContext, tenantID, teacherID string, date time.Time, substitutions, periods int) error
}

// RejectionNotOnRoster marks a manually chosen teacher who is not an active teacher of the tenant.
const RejectionNotOnRoster RejectionReason = "NOT_ON_ROSTER"

// periodTarget identifies one uncovered period.
type periodTarget struct {
	TenantID        string
	AbsentTeacherID string
	SubjectID       string
	ClassID         string
	Date            time.Time
	Period          int
}

func targetFor(record *models.SubstitutionRecord) periodTarget {
	return periodTarget{
		TenantID:        record.TenantID,
		AbsentTeacherID: record.AbsentTeacherID,
		SubjectID:       record.SubjectID,
		ClassID:         record.ClassID,
		Date:            record.Date,
		Period:          record.PeriodNumber,
	}
}

// SubstitutionStores bundles the repositories the substitution workflow reads and writes.
type SubstitutionStores struct {
	Teachers  rosterReader
	Timetable timetableReader
	Absences  absenceStore
	Classes   classTeacherReader
	Records   substitutionStore
	Workload  workloadStore
}

func newSubstituteAssigner(stores SubstitutionStores, metrics *MetricsService, logger *zap.Logger) *substituteAssigner {
	return &substituteAssigner{
		teachers:  stores.Teachers,
		timetable: stores.Timetable,
		absences:  stores.Absences,
		classes:   stores.Classes,
		records:   stores.Records,
		workload:  stores.Workload,
		metrics:   metrics,
		logger:    logger,
	}
}

// substituteAssigner gathers candidate snapshots from storage and keeps workload counters
// in step with assignments. All writes happen on the caller's transaction.
type substituteAssigner struct {
	teachers  rosterReader
	timetable timetableReader
	absences  absenceStore
	classes   classTeacherReader
	records   substitutionStore
	workload  workloadStore
	metrics   *MetricsService
	logger    *zap.Logger
}

// lockDay creates missing counters for the date and locks every row of the tenant's day in
// teacher order, so concurrent assignments serialise instead of double-booking.
func (a *substituteAssigner) lockDay(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time) ([]models.TeacherWorkload, error) {
	if err := a.workload.EnsureForDate(ctx, exec, tenantID, date); err != nil {
		return nil, err
	}
	return a.workload.ListForDate(ctx, exec, tenantID, date, true)
}

func (a *substituteAssigner) snapshots(ctx context.Context, exec sqlx.ExtContext, target periodTarget, workloads []models.TeacherWorkload) ([]CandidateSnapshot, EvaluationRequest, error) {
	req := EvaluationRequest{SubjectID: target.SubjectID, AbsentTeacherID: target.AbsentTeacherID}

	teachers, err := a.teachers.ListActive(ctx, exec, target.TenantID)
	if err != nil {
		return nil, req, err
	}
	scheduled, err := a.timetable.ListBusyTeachers(ctx, exec, target.TenantID, models.ISOWeekday(target.Date), target.Period)
	if err != nil {
		return nil, req, err
	}
	covering, err := a.records.ListBusySubstitutes(ctx, exec, target.TenantID, target.Date, target.Period)
	if err != nil {
		return nil, req, err
	}
	absent, err := a.absences.ListAbsentTeachers(ctx, exec, target.TenantID, target.Date, target.Period)
	if err != nil {
		return nil, req, err
	}
	if target.ClassID != "" {
		if req.ClassTeacherID, err = a.classes.GetClassTeacher(ctx, exec, target.TenantID, target.ClassID); err != nil {
			return nil, req, err
		}
	}

	busy := toSet(scheduled, covering, absent)
	return BuildCandidateSnapshots(teachers, workloads, busy, req.ClassTeacherID), req, nil
}

// choose ranks the period's candidates and reserves the winner's workload.
func (a *substituteAssigner) choose(ctx context.Context, exec sqlx.ExtContext, cfg models.AssignmentConfig, target periodTarget, exclude []string) (ScoredCandidate, bool, error) {
	start := time.Now()
	workloads, err := a.lockDay(ctx, exec, target.TenantID, target.Date)
	if err != nil {
		return ScoredCandidate{}, false, err
	}
	candidates, req, err := a.snapshots(ctx, exec, target, workloads)
	if err != nil {
		return ScoredCandidate{}, false, err
	}
	req.Exclude = exclude
	best, ok := SelectBestCandidate(cfg, req, candidates)
	a.metrics.ObserveEvaluation(time.Since(start))
	if !ok {
		a.logger.Info("no eligible substitute",
			zap.String("tenant_id", target.TenantID),
			zap.String("absent_teacher_id", target.AbsentTeacherID),
			zap.Time("date", target.Date),
			zap.Int("period", target.Period),
			zap.Int("candidates", len(candidates)))
		return ScoredCandidate{}, false, nil
	}
	if err := a.workload.Adjust(ctx, exec, target.TenantID, best.TeacherID, target.Date, 1, 1); err != nil {
		return ScoredCandidate{}, false, fmt.Errorf("reserve substitute %s: %w", best.TeacherID, err)
	}
	return best, true, nil
}

// reserve runs the hard filters against one chosen teacher and reserves their workload when they pass.
func (a *substituteAssigner) reserve(ctx context.Context, exec sqlx.ExtContext, cfg models.AssignmentConfig, target periodTarget, teacherID string) (ScoredCandidate, RejectionReason, error) {
	workloads, err := a.lockDay(ctx, exec, target.TenantID, target.Date)
	if err != nil {
		return ScoredCandidate{}, RejectionNone, err
	}
	candidates, req, err := a.snapshots(ctx, exec, target, workloads)
	if err != nil {
		return ScoredCandidate{}, RejectionNone, err
	}
	for _, c := range candidates {
		if c.TeacherID != teacherID {
			continue
		}
		if reason := CheckEligibility(cfg, req, c); reason != RejectionNone {
			return ScoredCandidate{}, reason, nil
		}
		if err := a.workload.Adjust(ctx, exec, target.TenantID, teacherID, target.Date, 1, 1); err != nil {
			return ScoredCandidate{}, RejectionNone, fmt.Errorf("reserve substitute %s: %w", teacherID, err)
		}
		return ScoredCandidate{CandidateSnapshot: c, Score: ScoreCandidate(cfg, req, c)}, RejectionNone, nil
	}
	return ScoredCandidate{}, RejectionNotOnRoster, nil
}

// release returns the substitution taken by an assignment. freePeriod also gives back the
// teaching period, which only applies when the substitute never covers the class.
func (a *substituteAssigner) release(ctx context.Context, exec sqlx.ExtContext, tenantID, teacherID string, date time.Time, freePeriod bool) error {
	if teacherID == "" {
		return nil
	}
	if _, err := a.lockDay(ctx, exec, tenantID, date); err != nil {
		return err
	}
	periods := 0
	if freePeriod {
		periods = -1
	}
	if err := a.workload.Adjust(ctx, exec, tenantID, teacherID, date, -1, periods); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			a.logger.Warn("no workload row to release", zap.String("teacher_id", teacherID), zap.Time("date", date))
			return nil
		}
		return err
	}
	return nil
}

// successor builds the record that takes over a period from a closed one.
func successor(original *models.SubstitutionRecord, requestedBy string, pick ScoredCandidate, assigned bool, at time.Time) *models.SubstitutionRecord {
	next := &models.SubstitutionRecord{
		TenantID:        original.TenantID,
		AbsenceID:       original.AbsenceID,
		AbsentTeacherID: original.AbsentTeacherID,
		ClassID:         original.ClassID,
		SubjectID:       original.SubjectID,
		Room:            original.Room,
		Date:            original.Date,
		PeriodNumber:    original.PeriodNumber,
		Reason:          original.Reason,
		Status:          models.SubstitutionStatusUnassigned,
		RequestedBy:     requestedBy,
		ReplacesID:      strPtr(original.ID),
	}
	if assigned {
		next.Status = models.SubstitutionStatusPending
		next.SubstituteTeacherID = strPtr(pick.TeacherID)
		next.Score = intPtr(pick.Score)
		next.AssignedAt = &at
	}
	return next
}
