package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// TeacherRepository reads the tenant's teacher roster.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = `id, tenant_id, full_name, email, subject_id, active, created_at, updated_at`

// ListActive returns every active teacher of the tenant ordered by id.
func (r *TeacherRepository) ListActive(ctx context.Context, exec sqlx.ExtContext, tenantID string) ([]models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE tenant_id = $1 AND active = TRUE ORDER BY id ASC`
	var teachers []models.Teacher
	if err := sqlx.SelectContext(ctx, executor(r.db, exec), &teachers, query, tenantID); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher scoped to the tenant.
func (r *TeacherRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE tenant_id = $1 AND id = $2`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, tenantID, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// NamesByIDs maps teacher ids to display names.
func (r *TeacherRepository) NamesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	const query = `SELECT id, full_name FROM teachers WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := r.db.QueryxContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list teacher names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan teacher name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
