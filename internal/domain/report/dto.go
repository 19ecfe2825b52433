package report

import (
	"fmt"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/validator"
)

// ========================================
// MONTHLY ATTENDANCE REPORT
// ========================================

type MonthlyReportRequest struct {
	UserID *string `json:"user_id,omitempty"`
	Month  int     `json:"month"`
	Year   int     `json:"year"`
}

func (r *MonthlyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.UserID != nil && !validator.IsValidUUID(*r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id must be a valid UUID",
		})
	}

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if r.Year < 2000 || r.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2000 and %d", currentYear+1),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MonthlyReportResponse struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	GeneratedAt string `json:"generated_at"`

	Summary SummaryResponse `json:"summary"`
	Days    []DayResponse   `json:"days"`
}

type SummaryResponse struct {
	PresentDays        int `json:"present_days"`
	AbsentDays         int `json:"absent_days"`
	LeaveDays          int `json:"leave_days"`
	HalfDays           int `json:"half_days"`
	OffDays            int `json:"off_days"`
	LateDays           int `json:"late_days"`
	TotalLateMinutes   int `json:"total_late_minutes"`
	EarlyLeaveDays     int `json:"early_leave_days"`
	TotalWorkedMinutes int `json:"total_worked_minutes"`
	WorkingDays        int `json:"working_days"`
	TargetWorkingDays  int `json:"target_working_days"`
}

type DayResponse struct {
	Date               string           `json:"date"`
	DayOfWeek          string           `json:"day_of_week"`
	Status             DayStatus        `json:"status"`
	FirstPunchIn       *string          `json:"first_punch_in,omitempty"`
	LastPunchOut       *string          `json:"last_punch_out,omitempty"`
	TotalWorkedMinutes int              `json:"total_worked_minutes"`
	TotalBreakMinutes  int              `json:"total_break_minutes"`
	IsLate             bool             `json:"is_late"`
	LateMinutes        int              `json:"late_minutes"`
	IsEarlyLeave       bool             `json:"is_early_leave"`
	EarlyLeaveMinutes  int              `json:"early_leave_minutes"`
	LeaveType          *string          `json:"leave_type,omitempty"`
	LeaveConflict      bool             `json:"leave_conflict,omitempty"`
	Sessions           []SessionSummary `json:"sessions"`
}

// SessionSummary is the per-session line used for break-history drill-down.
type SessionSummary struct {
	ID                 string            `json:"id"`
	PunchIn            string            `json:"punch_in"`
	PunchOut           *string           `json:"punch_out,omitempty"`
	Status             attendance.Status `json:"status"`
	TotalWorkedMinutes *int              `json:"total_worked_minutes,omitempty"`
	TotalBreakMinutes  int               `json:"total_break_minutes"`
}

// ========================================
// DAILY ATTENDANCE REPORT (ALL USERS)
// ========================================

type DailyReportRequest struct {
	Date string `json:"date"`

	date time.Time
}

func (r *DailyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if d, ok := validator.IsValidDate(r.Date); ok {
		r.date = d
	} else {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParsedDate is valid only after Validate succeeded.
func (r *DailyReportRequest) ParsedDate() time.Time {
	return r.date
}

type DailyReportResponse struct {
	Date        string             `json:"date"`
	DayOfWeek   string             `json:"day_of_week"`
	GeneratedAt string             `json:"generated_at"`
	Summary     DailySummary       `json:"summary"`
	Rows        []DailyReportEntry `json:"rows"`
}

type DailySummary struct {
	TotalUsers         int `json:"total_users"`
	Present            int `json:"present"`
	Absent             int `json:"absent"`
	OnLeave            int `json:"on_leave"`
	HalfDay            int `json:"half_day"`
	Off                int `json:"off"`
	Late               int `json:"late"`
	TotalWorkedMinutes int `json:"total_worked_minutes"`
}

type DailyReportEntry struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Role     string `json:"role"`
	DayResponse
}

// ========================================
// MAPPERS
// ========================================

func formatTime(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

func NewDayResponse(d DailyAggregate, loc *time.Location) DayResponse {
	resp := DayResponse{
		Date:               d.Date.Format(dateKeyLayout),
		DayOfWeek:          d.Date.Weekday().String(),
		Status:             d.Status,
		FirstPunchIn:       formatTime(d.FirstPunchIn, loc),
		LastPunchOut:       formatTime(d.LastPunchOut, loc),
		TotalWorkedMinutes: d.TotalWorkedMinutes,
		TotalBreakMinutes:  d.TotalBreakMinutes,
		IsLate:             d.IsLate,
		LateMinutes:        d.LateMinutes,
		IsEarlyLeave:       d.IsEarlyLeave,
		EarlyLeaveMinutes:  d.EarlyLeaveMinutes,
		LeaveConflict:      d.LeaveConflict,
		Sessions:           make([]SessionSummary, 0, len(d.Sessions)),
	}
	if d.Leave != nil && d.Leave.LeaveTypeName != "" {
		name := d.Leave.LeaveTypeName
		resp.LeaveType = &name
	}
	for _, s := range d.Sessions {
		resp.Sessions = append(resp.Sessions, SessionSummary{
			ID:                 s.ID,
			PunchIn:            s.PunchIn.In(loc).Format(time.RFC3339),
			PunchOut:           formatTime(s.PunchOut, loc),
			Status:             s.Status,
			TotalWorkedMinutes: s.TotalWorkedMinutes,
			TotalBreakMinutes:  s.TotalBreakMinutes,
		})
	}
	return resp
}

func NewSummaryResponse(s MonthlySummary) SummaryResponse {
	return SummaryResponse{
		PresentDays:        s.PresentDays,
		AbsentDays:         s.AbsentDays,
		LeaveDays:          s.LeaveDays,
		HalfDays:           s.HalfDays,
		OffDays:            s.OffDays,
		LateDays:           s.LateDays,
		TotalLateMinutes:   s.TotalLateMinutes,
		EarlyLeaveDays:     s.EarlyLeaveDays,
		TotalWorkedMinutes: s.TotalWorkedMinutes,
		WorkingDays:        s.WorkingDays,
		TargetWorkingDays:  s.TargetWorkingDays,
	}
}

// Add counts one row into the daily summary.
func (s *DailySummary) Add(d DailyAggregate) {
	s.TotalUsers++
	switch d.Status {
	case DayPresent:
		s.Present++
	case DayAbsent:
		s.Absent++
	case DayOnLeave:
		s.OnLeave++
	case DayHalfDay:
		s.HalfDay++
	case DayOff:
		s.Off++
	}
	if d.IsLate {
		s.Late++
	}
	s.TotalWorkedMinutes += d.TotalWorkedMinutes
}
