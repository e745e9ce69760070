package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// WorkloadRepository maintains per-day teacher workload counters.
type WorkloadRepository struct {
	db *sqlx.DB
}

// NewWorkloadRepository constructs the repository.
func NewWorkloadRepository(db *sqlx.DB) *WorkloadRepository {
	return &WorkloadRepository{db: db}
}

// EnsureForDate creates missing rows for every active teacher, seeding periods_today from the timetable.
func (r *WorkloadRepository) EnsureForDate(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time) error {
	const query = `INSERT INTO teacher_workload_state (tenant_id, teacher_id, work_date, current_substitutions, periods_today, updated_at)
SELECT t.tenant_id, t.id, $2, 0,
       (SELECT COUNT(*) FROM timetable_slots s WHERE s.tenant_id = t.tenant_id AND s.teacher_id = t.id AND s.day_of_week = $3),
       NOW()
FROM teachers t WHERE t.tenant_id = $1 AND t.active = TRUE
ON CONFLICT (tenant_id, teacher_id, work_date) DO NOTHING`
	if _, err := executor(r.db, exec).ExecContext(ctx, query, tenantID, date, models.ISOWeekday(date)); err != nil {
		return fmt.Errorf("ensure workload rows: %w", err)
	}
	return nil
}

// ListForDate returns the tenant's counters for the date. With lock set the rows stay
// locked until the surrounding transaction ends; rows are locked in teacher order.
func (r *WorkloadRepository) ListForDate(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, lock bool) ([]models.TeacherWorkload, error) {
	query := `SELECT tenant_id, teacher_id, work_date, current_substitutions, periods_today, updated_at
FROM teacher_workload_state WHERE tenant_id = $1 AND work_date = $2 ORDER BY teacher_id ASC`
	if lock {
		query += ` FOR UPDATE`
	}
	var rows []models.TeacherWorkload
	if err := sqlx.SelectContext(ctx, executor(r.db, exec), &rows, query, tenantID, date); err != nil {
		return nil, fmt.Errorf("list workload: %w", err)
	}
	return rows, nil
}

// Adjust shifts each counter by its own delta, never below zero. sql.ErrNoRows means no row exists.
func (r *WorkloadRepository) Adjust(ctx context.Context, exec sqlx.ExtContext, tenantID, teacherID string, date time.Time, substitutions, periods int) error {
	const query = `UPDATE teacher_workload_state
SET current_substitutions = GREATEST(current_substitutions + $4, 0),
    periods_today = GREATEST(periods_today + $5, 0),
    updated_at = NOW()
WHERE tenant_id = $1 AND teacher_id = $2 AND work_date = $3`
	result, err := executor(r.db, exec).ExecContext(ctx, query, tenantID, teacherID, date, substitutions, periods)
	if err != nil {
		return fmt.Errorf("adjust workload: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check workload rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
