package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// SubstitutionRepository persists substitution records and their transitions.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs the repository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

const substitutionColumns = `id, tenant_id, absence_id, absent_teacher_id, substitute_teacher_id, class_id, subject_id, room,
       absence_date, period_number, reason, status, score, requested_by, replaces_id, superseded_by_id,
       assigned_at, confirmed_by, confirmed_at, cancel_reason, cancelled_at, substituted_at, completed_at,
       attendance_taken, lessons_completed, completion_notes, created_at, updated_at`

var inactiveStatuses = pq.Array([]string{
	string(models.SubstitutionStatusCancelled),
	string(models.SubstitutionStatusSubstituted),
})

// Create inserts a record. A collision with another active record yields ErrDuplicateActive.
func (r *SubstitutionRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.SubstitutionRecord) error {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt
	const query = `INSERT INTO substitution_records
	(id, tenant_id, absence_id, absent_teacher_id, substitute_teacher_id, class_id, subject_id, room, absence_date,
	 period_number, reason, status, score, requested_by, replaces_id, assigned_at, created_at, updated_at)
	VALUES (:id, :tenant_id, :absence_id, :absent_teacher_id, :substitute_teacher_id, :class_id, :subject_id, :room, :absence_date,
	 :period_number, :reason, :status, :score, :requested_by, :replaces_id, :assigned_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(r.db, exec), query, record); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("create substitution record: %w", err)
	}
	return nil
}

// GetByID fetches a record scoped to the tenant.
func (r *SubstitutionRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, tenantID, id string) (*models.SubstitutionRecord, error) {
	query := `SELECT ` + substitutionColumns + ` FROM substitution_records WHERE tenant_id = $1 AND id = $2`
	var record models.SubstitutionRecord
	if err := sqlx.GetContext(ctx, executor(r.db, exec), &record, query, tenantID, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns records matching the filter ordered by date and period, plus the total count.
func (r *SubstitutionRepository) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRecord, int, error) {
	args := []interface{}{filter.TenantID}
	conditions := []string{"tenant_id = $1"}

	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("absence_date = $%d", len(args)))
	}
	if filter.AbsentTeacherID != "" {
		args = append(args, filter.AbsentTeacherID)
		conditions = append(conditions, fmt.Sprintf("absent_teacher_id = $%d", len(args)))
	}
	if filter.SubstituteID != "" {
		args = append(args, filter.SubstituteID)
		conditions = append(conditions, fmt.Sprintf("substitute_teacher_id = $%d", len(args)))
	}
	if filter.InvolvesTeacher != "" {
		args = append(args, filter.InvolvesTeacher)
		conditions = append(conditions, fmt.Sprintf("(absent_teacher_id = $%d OR substitute_teacher_id = $%d)", len(args), len(args)))
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM substitution_records"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count substitution records: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM substitution_records%s ORDER BY absence_date DESC, period_number ASC, created_at ASC LIMIT %d OFFSET %d`,
		substitutionColumns, where, limit, offset)

	var records []models.SubstitutionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list substitution records: %w", err)
	}
	return records, total, nil
}

// ListByDate returns every record of the tenant for the date, history included.
func (r *SubstitutionRepository) ListByDate(ctx context.Context, tenantID string, date time.Time) ([]models.SubstitutionRecord, error) {
	query := `SELECT ` + substitutionColumns + ` FROM substitution_records
WHERE tenant_id = $1 AND absence_date = $2 ORDER BY period_number ASC, absent_teacher_id ASC, created_at ASC`
	var records []models.SubstitutionRecord
	if err := r.db.SelectContext(ctx, &records, query, tenantID, date); err != nil {
		return nil, fmt.Errorf("list substitution records by date: %w", err)
	}
	return records, nil
}

// ListActiveForAbsentTeacher returns the active records already covering any of the periods.
func (r *SubstitutionRepository) ListActiveForAbsentTeacher(ctx context.Context, exec sqlx.ExtContext, tenantID, teacherID string, date time.Time, periods []int) ([]models.SubstitutionRecord, error) {
	if len(periods) == 0 {
		return nil, nil
	}
	wanted := make([]int64, len(periods))
	for i, p := range periods {
		wanted[i] = int64(p)
	}
	query := `SELECT ` + substitutionColumns + ` FROM substitution_records
WHERE tenant_id = $1 AND absent_teacher_id = $2 AND absence_date = $3 AND period_number = ANY($4)
  AND status <> ALL($5) ORDER BY period_number ASC`
	var records []models.SubstitutionRecord
	if err := sqlx.SelectContext(ctx, executor(r.db, exec), &records, query, tenantID, teacherID, date, pq.Array(wanted), inactiveStatuses); err != nil {
		return nil, fmt.Errorf("list active substitutions: %w", err)
	}
	return records, nil
}

// ListBusySubstitutes returns teachers already covering another class at the date and period.
func (r *SubstitutionRepository) ListBusySubstitutes(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, period int) ([]string, error) {
	const query = `SELECT DISTINCT substitute_teacher_id FROM substitution_records
WHERE tenant_id = $1 AND absence_date = $2 AND period_number = $3
  AND substitute_teacher_id IS NOT NULL AND status <> ALL($4)`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(r.db, exec), &ids, query, tenantID, date, period, inactiveStatuses); err != nil {
		return nil, fmt.Errorf("list busy substitutes: %w", err)
	}
	return ids, nil
}

// StatusUpdate describes a guarded transition. Nil fields are left untouched.
type StatusUpdate struct {
	TenantID            string
	ID                  string
	From                []models.SubstitutionStatus
	To                  models.SubstitutionStatus
	At                  time.Time
	SubstituteTeacherID *string
	Score               *int
	ConfirmedBy         *string
	CancelReason        *string
	AttendanceTaken     *bool
	LessonsCompleted    *bool
	CompletionNotes     *string
}

// UpdateStatus applies the transition only while the record is still in one of the From statuses.
// sql.ErrNoRows means the record moved on or does not exist.
func (r *SubstitutionRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, update StatusUpdate) error {
	setParts := []string{"status = :status", "updated_at = :at"}
	switch update.To {
	case models.SubstitutionStatusPending:
		setParts = append(setParts, "assigned_at = :at")
	case models.SubstitutionStatusConfirmed:
		setParts = append(setParts, "confirmed_at = :at", "confirmed_by = :confirmed_by")
	case models.SubstitutionStatusCancelled:
		setParts = append(setParts, "cancelled_at = :at", "cancel_reason = :cancel_reason")
	case models.SubstitutionStatusSubstituted:
		setParts = append(setParts, "substituted_at = :at", "cancel_reason = :cancel_reason")
	case models.SubstitutionStatusCompleted:
		setParts = append(setParts, "completed_at = :at")
	}
	if update.SubstituteTeacherID != nil {
		setParts = append(setParts, "substitute_teacher_id = :substitute_teacher_id")
	}
	if update.Score != nil {
		setParts = append(setParts, "score = :score")
	}
	if update.AttendanceTaken != nil {
		setParts = append(setParts, "attendance_taken = :attendance_taken")
	}
	if update.LessonsCompleted != nil {
		setParts = append(setParts, "lessons_completed = :lessons_completed")
	}
	if update.CompletionNotes != nil {
		setParts = append(setParts, "completion_notes = :completion_notes")
	}

	from := make([]string, len(update.From))
	for i, status := range update.From {
		from[i] = string(status)
	}
	query := fmt.Sprintf("UPDATE substitution_records SET %s WHERE tenant_id = :tenant_id AND id = :id AND status = ANY(:from)",
		strings.Join(setParts, ", "))
	result, err := sqlx.NamedExecContext(ctx, executor(r.db, exec), query, map[string]interface{}{
		"tenant_id":             update.TenantID,
		"id":                    update.ID,
		"from":                  pq.Array(from),
		"status":                update.To,
		"at":                    update.At,
		"substitute_teacher_id": update.SubstituteTeacherID,
		"score":                 update.Score,
		"confirmed_by":          update.ConfirmedBy,
		"cancel_reason":         update.CancelReason,
		"attendance_taken":      update.AttendanceTaken,
		"lessons_completed":     update.LessonsCompleted,
		"completion_notes":      update.CompletionNotes,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateActive
		}
		return fmt.Errorf("update substitution status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check substitution update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetSupersededBy links a closed record to its successor.
func (r *SubstitutionRepository) SetSupersededBy(ctx context.Context, exec sqlx.ExtContext, tenantID, id, successorID string) error {
	const query = `UPDATE substitution_records SET superseded_by_id = $3, updated_at = $4
WHERE tenant_id = $1 AND id = $2 AND superseded_by_id IS NULL`
	result, err := executor(r.db, exec).ExecContext(ctx, query, tenantID, id, successorID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("link superseding substitution: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check superseded update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
