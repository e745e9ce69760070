package dto

import "github.com/noah-isme/sma-substitution-api/internal/models"

// SubmitLeaveRequest is the absence intake payload.
type SubmitLeaveRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	LeaveType string `json:"leaveType" validate:"required,max=32"`
	Reason    string `json:"reason" validate:"max=500"`
}

// SubmitLeaveResponse summarises how many uncovered periods received a substitute.
type SubmitLeaveResponse struct {
	AbsenceID        string                      `json:"absenceId"`
	PeriodsRequested int                         `json:"periodsRequested"`
	PeriodsAssigned  int                         `json:"periodsAssigned"`
	Message          string                      `json:"message"`
	Records          []models.SubstitutionRecord `json:"records"`
}
