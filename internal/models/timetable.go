package models

import "time"

// TimetableSlot is a single weekly teaching commitment. Read-only for the substitution engine.
type TimetableSlot struct {
	ID           string `db:"id" json:"id"`
	TenantID     string `db:"tenant_id" json:"tenant_id"`
	TeacherID    string `db:"teacher_id" json:"teacher_id"`
	DayOfWeek    int    `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int    `db:"period_number" json:"period_number"`
	ClassID      string `db:"class_id" json:"class_id"`
	SubjectID    string `db:"subject_id" json:"subject_id"`
	Room         string `db:"room" json:"room"`
}

// ISOWeekday maps a date onto 1 (Monday) .. 7 (Sunday).
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
