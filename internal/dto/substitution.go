package dto

import "github.com/noah-isme/sma-substitution-api/internal/models"

// CancelSubstitutionRequest cancels a pending or confirmed substitution.
type CancelSubstitutionRequest struct {
	Reason  string `json:"reason" validate:"required,max=500"`
	Rematch bool   `json:"rematch"`
}

// CancelSubstitutionResponse returns the cancelled record and any re-matched successor.
type CancelSubstitutionResponse struct {
	Cancelled   *models.SubstitutionRecord `json:"cancelled"`
	Replacement *models.SubstitutionRecord `json:"replacement,omitempty"`
}

// RequestReplacementRequest is filed when the assigned substitute cannot serve.
type RequestReplacementRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ReplacementResponse carries the superseded original and its successor.
// Assigned is false when the successor is left UNASSIGNED for manual work.
type ReplacementResponse struct {
	Original    *models.SubstitutionRecord `json:"original"`
	Replacement *models.SubstitutionRecord `json:"replacement,omitempty"`
	Assigned    bool                       `json:"assigned"`
}

// CompleteSubstitutionRequest closes out a confirmed substitution.
type CompleteSubstitutionRequest struct {
	AttendanceTaken  bool   `json:"attendanceTaken"`
	LessonsCompleted bool   `json:"lessonsCompleted"`
	Notes            string `json:"notes" validate:"max=1000"`
}

// ManualAssignRequest lets a manager cover an unassigned period directly.
type ManualAssignRequest struct {
	SubstituteTeacherID string `json:"substituteTeacherId" validate:"required"`
}

// SubstitutionQuery mirrors supported listing filters.
type SubstitutionQuery struct {
	Date            string
	AbsentTeacherID string
	SubstituteID    string
	Status          []models.SubstitutionStatus
	Limit           int
	Offset          int
}

// SubstitutionDetail decorates a record with its lineage.
type SubstitutionDetail struct {
	models.SubstitutionRecord
	Lineage models.Lineage `json:"lineage"`
}

// CandidateQuery drives the candidate diagnostics endpoint.
type CandidateQuery struct {
	Date            string `form:"date" validate:"required,datetime=2006-01-02"`
	PeriodNumber    int    `form:"period" validate:"required,min=1,max=9"`
	SubjectID       string `form:"subjectId" validate:"required"`
	ClassID         string `form:"classId"`
	AbsentTeacherID string `form:"absentTeacherId" validate:"required"`
}

// CandidateEvaluation explains one teacher's eligibility and score.
type CandidateEvaluation struct {
	TeacherID            string `json:"teacherId"`
	SubjectID            string `json:"subjectId"`
	Eligible             bool   `json:"eligible"`
	Rejection            string `json:"rejection,omitempty"`
	Score                int    `json:"score"`
	CurrentSubstitutions int    `json:"currentSubstitutions"`
	PeriodsToday         int    `json:"periodsToday"`
	IsClassTeacher       bool   `json:"isClassTeacher"`
	Selected             bool   `json:"selected"`
}

// ExportQuery selects the day and format of the substitution sheet.
type ExportQuery struct {
	Date   string `form:"date" validate:"required,datetime=2006-01-02"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
