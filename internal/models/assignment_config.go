package models

import (
	"time"

	"github.com/lib/pq"
)

// AssignmentConfig holds the tenant's tunable substitute ranking weights and caps.
type AssignmentConfig struct {
	TenantID            string         `db:"tenant_id" json:"tenant_id"`
	SubjectMatchWeight  int            `db:"subject_match_weight" json:"subject_match_weight"`
	ClassTeacherWeight  int            `db:"class_teacher_weight" json:"class_teacher_weight"`
	FairnessBase        int            `db:"fairness_base" json:"fairness_base"`
	FairnessStep        int            `db:"fairness_step" json:"fairness_step"`
	SubstitutionPenalty int            `db:"substitution_penalty" json:"substitution_penalty"`
	MinSubstitutions    int            `db:"min_substitutions" json:"min_substitutions"`
	MaxSubstitutions    int            `db:"max_substitutions" json:"max_substitutions"`
	MaxDailyPeriods     int            `db:"max_daily_periods" json:"max_daily_periods"`
	ExcludedTeacherIDs  pq.StringArray `db:"excluded_teacher_ids" json:"excluded_teacher_ids"`
	ReleaseOnComplete   bool           `db:"release_on_complete" json:"release_on_complete"`
	UpdatedBy           *string        `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// IsExcluded reports whether the teacher is on the permanent exclusion list.
func (c AssignmentConfig) IsExcluded(teacherID string) bool {
	for _, id := range c.ExcludedTeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}
