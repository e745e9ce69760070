package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

// TimetableRepository reads weekly timetable slots. The substitution engine never writes them.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ListByTeacherDay returns a teacher's slots for the weekday ordered by period.
func (r *TimetableRepository) ListByTeacherDay(ctx context.Context, tenantID, teacherID string, dayOfWeek int) ([]models.TimetableSlot, error) {
	const query = `SELECT id, tenant_id, teacher_id, day_of_week, period_number, class_id, subject_id, room
FROM timetable_slots WHERE tenant_id = $1 AND teacher_id = $2 AND day_of_week = $3
ORDER BY period_number ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, tenantID, teacherID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// ListBusyTeachers returns teachers holding a slot at the weekday and period.
func (r *TimetableRepository) ListBusyTeachers(ctx context.Context, exec sqlx.ExtContext, tenantID string, dayOfWeek, period int) ([]string, error) {
	const query = `SELECT DISTINCT teacher_id FROM timetable_slots
WHERE tenant_id = $1 AND day_of_week = $2 AND period_number = $3`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(r.db, exec), &ids, query, tenantID, dayOfWeek, period); err != nil {
		return nil, fmt.Errorf("list busy teachers: %w", err)
	}
	return ids, nil
}

// CountByDay returns how many slots each teacher holds on the weekday. Teachers without slots are absent from the map.
func (r *TimetableRepository) CountByDay(ctx context.Context, exec sqlx.ExtContext, tenantID string, dayOfWeek int) (map[string]int, error) {
	const query = `SELECT teacher_id, COUNT(*) AS periods FROM timetable_slots
WHERE tenant_id = $1 AND day_of_week = $2 GROUP BY teacher_id`
	var rows []struct {
		TeacherID string `db:"teacher_id"`
		Periods   int    `db:"periods"`
	}
	if err := sqlx.SelectContext(ctx, executor(r.db, exec), &rows, query, tenantID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("count timetable slots: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.TeacherID] = row.Periods
	}
	return counts, nil
}
