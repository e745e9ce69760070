package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// AbsenceRepository persists absence requests.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs the repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// Create inserts the absence with its frozen period list.
func (r *AbsenceRepository) Create(ctx context.Context, exec sqlx.ExtContext, absence *models.AbsenceRequest) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO absence_requests
	(id, tenant_id, teacher_id, absence_date, leave_type, reason, requested_by, periods, created_at)
	VALUES (:id, :tenant_id, :teacher_id, :absence_date, :leave_type, :reason, :requested_by, :periods, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, executor(r.db, exec), query, absence); err != nil {
		return fmt.Errorf("create absence request: %w", err)
	}
	return nil
}

// ListAbsentTeachers returns teachers with an absence covering the date and period.
func (r *AbsenceRepository) ListAbsentTeachers(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, period int) ([]string, error) {
	const query = `SELECT DISTINCT teacher_id FROM absence_requests
WHERE tenant_id = $1 AND absence_date = $2 AND $3 = ANY(periods)`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(r.db, exec), &ids, query, tenantID, date, period); err != nil {
		return nil, fmt.Errorf("list absent teachers: %w", err)
	}
	return ids, nil
}
