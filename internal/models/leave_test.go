package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodsFor(t *testing.T) {
	cases := map[LeaveType][]int{
		LeaveTypeFullDay:           {1, 2, 3, 4, 5, 6, 7, 8, 9},
		LeaveTypeOnDuty:            {1, 2, 3, 4, 5, 6, 7, 8, 9},
		LeaveTypeHalfDayMorning:    {1, 2, 3, 4},
		LeaveTypeHalfDayAfternoon:  {5, 6, 7, 8, 9},
		LeaveTypePermissionMorning: {1, 2},
		LeaveTypePermissionEvening: {8, 9},
	}
	for lt, want := range cases {
		assert.Equal(t, want, PeriodsFor(lt), string(lt))
	}
	assert.Empty(t, PeriodsFor(LeaveType("SABBATICAL")))
}

func TestPeriodsForReturnsCopy(t *testing.T) {
	periods := PeriodsFor(LeaveTypePermissionEvening)
	periods[0] = 1
	assert.Equal(t, []int{8, 9}, PeriodsFor(LeaveTypePermissionEvening))
}

func TestParseLeaveTypeAndCovers(t *testing.T) {
	lt, ok := ParseLeaveType(" half_day_morning ")
	assert.True(t, ok)
	assert.Equal(t, LeaveTypeHalfDayMorning, lt)
	assert.True(t, lt.Covers(4))
	assert.False(t, lt.Covers(5))

	_, ok = ParseLeaveType("vacation")
	assert.False(t, ok)
}
