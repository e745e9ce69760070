package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// LeaveType enumerates the absence categories a teacher may file.
type LeaveType string

const (
	LeaveTypeFullDay           LeaveType = "FULL_DAY"
	LeaveTypeOnDuty            LeaveType = "ON_DUTY"
	LeaveTypeHalfDayMorning    LeaveType = "HALF_DAY_MORNING"
	LeaveTypeHalfDayAfternoon  LeaveType = "HALF_DAY_AFTERNOON"
	LeaveTypePermissionMorning LeaveType = "PERMISSION_MORNING"
	LeaveTypePermissionEvening LeaveType = "PERMISSION_EVENING"
)

// PeriodsPerDay is the number of teaching periods in a school day.
const PeriodsPerDay = 9

var leavePeriods = map[LeaveType][]int{
	LeaveTypeFullDay:           periodRange(1, PeriodsPerDay),
	LeaveTypeOnDuty:            periodRange(1, PeriodsPerDay),
	LeaveTypeHalfDayMorning:    periodRange(1, 4),
	LeaveTypeHalfDayAfternoon:  periodRange(5, PeriodsPerDay),
	LeaveTypePermissionMorning: periodRange(1, 2),
	LeaveTypePermissionEvening: periodRange(PeriodsPerDay-1, PeriodsPerDay),
}

func periodRange(first, last int) []int {
	out := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		out = append(out, p)
	}
	return out
}

// ParseLeaveType normalises user input into a known LeaveType.
func ParseLeaveType(raw string) (LeaveType, bool) {
	lt := LeaveType(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := leavePeriods[lt]
	return lt, ok
}

// PeriodsFor returns the ascending period numbers a leave type leaves uncovered.
// Unknown leave types cover nothing.
func PeriodsFor(lt LeaveType) []int {
	periods := leavePeriods[lt]
	out := make([]int, len(periods))
	copy(out, periods)
	return out
}

// Covers reports whether the leave type includes the period.
func (lt LeaveType) Covers(period int) bool {
	for _, p := range leavePeriods[lt] {
		if p == period {
			return true
		}
	}
	return false
}

// AbsenceRequest records a teacher absence. Periods is frozen at intake.
type AbsenceRequest struct {
	ID          string        `db:"id" json:"id"`
	TenantID    string        `db:"tenant_id" json:"tenant_id"`
	TeacherID   string        `db:"teacher_id" json:"teacher_id"`
	Date        time.Time     `db:"absence_date" json:"date"`
	LeaveType   LeaveType     `db:"leave_type" json:"leave_type"`
	Reason      string        `db:"reason" json:"reason"`
	RequestedBy string        `db:"requested_by" json:"requested_by"`
	Periods     pq.Int64Array `db:"periods" json:"periods"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
