package leave

import (
	"time"
)

// LeaveDurationEnum maps to leave_duration_enum in DB
type LeaveDurationEnum string

const (
	LeaveDurationFullDay          LeaveDurationEnum = "full_day"
	LeaveDurationHalfDayMorning   LeaveDurationEnum = "half_day_morning"
	LeaveDurationHalfDayAfternoon LeaveDurationEnum = "half_day_afternoon"
)

func (d LeaveDurationEnum) IsHalfDay() bool {
	return d == LeaveDurationHalfDayMorning || d == LeaveDurationHalfDayAfternoon
}

// ApprovedLeave is an approved leave request covering StartDate..EndDate
// inclusive. Dates are calendar days.
type ApprovedLeave struct {
	ID            string
	UserID        string
	StartDate     time.Time
	EndDate       time.Time
	DurationType  LeaveDurationEnum
	LeaveTypeName string
}

// Covers reports whether the leave includes date.
func (l ApprovedLeave) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}
