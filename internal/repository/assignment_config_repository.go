package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// AssignmentConfigRepository persists per-tenant ranking configuration.
type AssignmentConfigRepository struct {
	db *sqlx.DB
}

// NewAssignmentConfigRepository constructs the repository.
func NewAssignmentConfigRepository(db *sqlx.DB) *AssignmentConfigRepository {
	return &AssignmentConfigRepository{db: db}
}

// Get returns the tenant's configuration or sql.ErrNoRows when none is stored.
func (r *AssignmentConfigRepository) Get(ctx context.Context, tenantID string) (*models.AssignmentConfig, error) {
	const query = `SELECT tenant_id, subject_match_weight, class_teacher_weight, fairness_base, fairness_step,
       substitution_penalty, min_substitutions, max_substitutions, max_daily_periods, excluded_teacher_ids,
       release_on_complete, updated_by, updated_at
FROM assignment_configs WHERE tenant_id = $1`
	var cfg models.AssignmentConfig
	if err := r.db.GetContext(ctx, &cfg, query, tenantID); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert stores the configuration, replacing any previous row for the tenant.
func (r *AssignmentConfigRepository) Upsert(ctx context.Context, cfg *models.AssignmentConfig) error {
	const query = `INSERT INTO assignment_configs
	(tenant_id, subject_match_weight, class_teacher_weight, fairness_base, fairness_step, substitution_penalty,
	 min_substitutions, max_substitutions, max_daily_periods, excluded_teacher_ids, release_on_complete, updated_by, updated_at)
VALUES (:tenant_id, :subject_match_weight, :class_teacher_weight, :fairness_base, :fairness_step, :substitution_penalty,
	 :min_substitutions, :max_substitutions, :max_daily_periods, :excluded_teacher_ids, :release_on_complete, :updated_by, :updated_at)
ON CONFLICT (tenant_id) DO UPDATE SET
	subject_match_weight = EXCLUDED.subject_match_weight, class_teacher_weight = EXCLUDED.class_teacher_weight,
	fairness_base = EXCLUDED.fairness_base, fairness_step = EXCLUDED.fairness_step,
	substitution_penalty = EXCLUDED.substitution_penalty, min_substitutions = EXCLUDED.min_substitutions,
	max_substitutions = EXCLUDED.max_substitutions, max_daily_periods = EXCLUDED.max_daily_periods,
	excluded_teacher_ids = EXCLUDED.excluded_teacher_ids, release_on_complete = EXCLUDED.release_on_complete,
	updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	cfg.UpdatedAt = time.Now().UTC()
	if cfg.ExcludedTeacherIDs == nil {
		cfg.ExcludedTeacherIDs = []string{}
	}
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("upsert assignment config: %w", err)
	}
	return nil
}
