package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ClassRepository reads class metadata needed for substitute ranking.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// GetClassTeacher returns the designated class teacher id, or "" when the class has none.
func (r *ClassRepository) GetClassTeacher(ctx context.Context, exec sqlx.ExtContext, tenantID, classID string) (string, error) {
	const query = `SELECT class_teacher_id FROM classes WHERE tenant_id = $1 AND id = $2`
	var teacherID sql.NullString
	if err := sqlx.GetContext(ctx, executor(r.db, exec), &teacherID, query, tenantID, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get class teacher: %w", err)
	}
	return teacherID.String, nil
}

// NamesByIDs maps class ids to display names.
func (r *ClassRepository) NamesByIDs(ctx context.Context, tenantID string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	query, args, err := sqlx.In(`SELECT id, name FROM classes WHERE tenant_id = ? AND id IN (?)`, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("build class names query: %w", err)
	}
	var rows []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list class names: %w", err)
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
