package models

import "time"

// TeacherWorkload holds the per-day counters used by candidate filtering and scoring.
type TeacherWorkload struct {
	TenantID             string    `db:"tenant_id" json:"tenant_id"`
	TeacherID            string    `db:"teacher_id" json:"teacher_id"`
	Date                 time.Time `db:"work_date" json:"date"`
	CurrentSubstitutions int       `db:"current_substitutions" json:"current_substitutions"`
	PeriodsToday         int       `db:"periods_today" json:"periods_today"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
