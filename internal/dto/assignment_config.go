package dto

// UpdateAssignmentConfigRequest replaces the tenant's assignment configuration.
type UpdateAssignmentConfigRequest struct {
	SubjectMatchWeight  int      `json:"subjectMatchWeight" validate:"min=0,max=1000"`
	ClassTeacherWeight  int      `json:"classTeacherWeight" validate:"min=0,max=1000"`
	FairnessBase        int      `json:"fairnessBase" validate:"min=0,max=20"`
	FairnessStep        int      `json:"fairnessStep" validate:"min=0,max=100"`
	SubstitutionPenalty int      `json:"substitutionPenalty" validate:"min=0,max=1000"`
	MinSubstitutions    int      `json:"minSubstitutions" validate:"min=0"`
	MaxSubstitutions    int      `json:"maxSubstitutions" validate:"required,min=1,gtfield=MinSubstitutions"`
	MaxDailyPeriods     int      `json:"maxDailyPeriods" validate:"required,min=1,max=9"`
	ExcludedTeacherIDs  []string `json:"excludedTeacherIds" validate:"omitempty,dive,required"`
	ReleaseOnComplete   bool     `json:"releaseOnComplete"`
}
