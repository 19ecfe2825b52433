package report

import (
	"sort"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/leave"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
)

// DayStatus is the calendar classification of one user-day.
type DayStatus string

const (
	DayPresent      DayStatus = "Present"
	DayAbsent       DayStatus = "Absent"
	DayOnLeave      DayStatus = "On Leave"
	DayHalfDay      DayStatus = "Half Day"
	DayOff          DayStatus = "Off"
	DayUnclassified DayStatus = "-"
)

const dateKeyLayout = "2006-01-02"

// Policy holds the working-time rules the aggregator classifies against.
type Policy struct {
	ScheduledStart clock.TimeOfDay
	ScheduledEnd   clock.TimeOfDay
	WeekendDays    []time.Weekday
	Location       *time.Location
}

func (p Policy) IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	for _, w := range p.WeekendDays {
		if w == wd {
			return true
		}
	}
	return false
}

// WorkingDaysIn counts the non-weekend days of a month.
func (p Policy) WorkingDaysIn(year int, month time.Month) int {
	first, last := clock.MonthRange(year, month)
	n := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !p.IsWeekend(d) {
			n++
		}
	}
	return n
}

// DailyAggregate is one user's rollup for one calendar day.
type DailyAggregate struct {
	UserID             string
	Date               time.Time
	Sessions           []attendance.Session
	Status             DayStatus
	TotalWorkedMinutes int
	TotalBreakMinutes  int
	FirstPunchIn       *time.Time
	LastPunchOut       *time.Time
	IsLate             bool
	LateMinutes        int
	IsEarlyLeave       bool
	EarlyLeaveMinutes  int
	Leave              *leave.ApprovedLeave
	// LeaveConflict marks a full-day leave on a day the user also worked.
	LeaveConflict bool
}

// MonthlySummary totals a month of DailyAggregates.
type MonthlySummary struct {
	PresentDays        int
	AbsentDays         int
	LeaveDays          int
	HalfDays           int
	OffDays            int
	LateDays           int
	TotalLateMinutes   int
	EarlyLeaveDays     int
	TotalWorkedMinutes int
	WorkingDays        int
	TargetWorkingDays  int
}

type MonthlyAggregate struct {
	UserID  string
	Year    int
	Month   time.Month
	Days    []DailyAggregate
	Summary MonthlySummary
}

// SessionIndex groups sessions by user and calendar date.
type SessionIndex map[string]map[string][]attendance.Session

func IndexSessions(sessions []attendance.Session) SessionIndex {
	ix := make(SessionIndex)
	for _, s := range sessions {
		byDate, ok := ix[s.UserID]
		if !ok {
			byDate = make(map[string][]attendance.Session)
			ix[s.UserID] = byDate
		}
		key := s.Date.Format(dateKeyLayout)
		byDate[key] = append(byDate[key], s)
	}
	for _, byDate := range ix {
		for _, list := range byDate {
			sort.Slice(list, func(i, j int) bool { return list[i].PunchIn.Before(list[j].PunchIn) })
		}
	}
	return ix
}

func (ix SessionIndex) Get(userID string, date time.Time) []attendance.Session {
	return ix[userID][date.Format(dateKeyLayout)]
}

// LeaveIndex maps user and date to the approved leave covering that day.
type LeaveIndex map[string]map[string]leave.ApprovedLeave

// IndexLeaves expands approved leaves over from..to. A half-day leave never
// overrides a full-day leave on the same day.
func IndexLeaves(leaves []leave.ApprovedLeave, from, to time.Time) LeaveIndex {
	ix := make(LeaveIndex)
	for _, l := range leaves {
		byDate, ok := ix[l.UserID]
		if !ok {
			byDate = make(map[string]leave.ApprovedLeave)
			ix[l.UserID] = byDate
		}
		start, end := l.StartDate, l.EndDate
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			key := d.Format(dateKeyLayout)
			if prev, exists := byDate[key]; exists && !prev.DurationType.IsHalfDay() {
				continue
			}
			byDate[key] = l
		}
	}
	return ix
}

func (ix LeaveIndex) Get(userID string, date time.Time) *leave.ApprovedLeave {
	l, ok := ix[userID][date.Format(dateKeyLayout)]
	if !ok {
		return nil
	}
	return &l
}

// DayInput is everything needed to classify one user-day.
type DayInput struct {
	UserID   string
	Date     time.Time
	Sessions []attendance.Session
	Leave    *leave.ApprovedLeave
	// Today is the current calendar date in the operating timezone.
	Today time.Time
	// Since is the user's account creation date; earlier days are not counted.
	Since *time.Time
}

// Aggregator is pure: it never reads the clock or the database.
type Aggregator struct {
	policy Policy
}

func NewAggregator(policy Policy) *Aggregator {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Aggregator{policy: policy}
}

// Day classifies one user-day and computes its totals and lateness.
func (a *Aggregator) Day(in DayInput) DailyAggregate {
	day := DailyAggregate{
		UserID:   in.UserID,
		Date:     in.Date,
		Sessions: in.Sessions,
		Leave:    in.Leave,
	}

	day.TotalWorkedMinutes = attendance.ClosedWorkedMinutes(in.Sessions)
	allClosed := true
	for i := range in.Sessions {
		s := in.Sessions[i]
		day.TotalBreakMinutes += s.TotalBreakMinutes
		if day.FirstPunchIn == nil || s.PunchIn.Before(*day.FirstPunchIn) {
			punchIn := s.PunchIn
			day.FirstPunchIn = &punchIn
		}
		if s.IsOpen() {
			allClosed = false
			continue
		}
		if s.PunchOut != nil && (day.LastPunchOut == nil || s.PunchOut.After(*day.LastPunchOut)) {
			punchOut := *s.PunchOut
			day.LastPunchOut = &punchOut
		}
	}

	if day.FirstPunchIn != nil {
		start := clock.At(in.Date, a.policy.ScheduledStart, a.policy.Location)
		day.LateMinutes = clock.FloorMinutes(day.FirstPunchIn.Sub(start))
		day.IsLate = day.LateMinutes > 0
	}
	if allClosed && day.LastPunchOut != nil {
		end := clock.At(in.Date, a.policy.ScheduledEnd, a.policy.Location)
		day.EarlyLeaveMinutes = clock.FloorMinutes(end.Sub(*day.LastPunchOut))
		day.IsEarlyLeave = day.EarlyLeaveMinutes > 0
	}

	hasAttendance := len(in.Sessions) > 0
	switch {
	case in.Leave != nil && in.Leave.DurationType.IsHalfDay():
		day.Status = DayHalfDay
	case hasAttendance:
		day.Status = DayPresent
		day.LeaveConflict = in.Leave != nil
	case in.Leave != nil:
		day.Status = DayOnLeave
	case a.policy.IsWeekend(in.Date):
		day.Status = DayOff
	case in.Date.After(in.Today):
		day.Status = DayUnclassified
	case in.Since != nil && in.Date.Before(clock.DateOf(*in.Since)):
		day.Status = DayUnclassified
	default:
		day.Status = DayAbsent
	}

	return day
}

// MonthInput is one user's raw data for a month.
type MonthInput struct {
	UserID            string
	Year              int
	Month             time.Month
	Sessions          SessionIndex
	Leaves            LeaveIndex
	Today             time.Time
	Since             *time.Time
	TargetWorkingDays int
}

// Month builds the day-by-day grid and summary. Worked-minute totals only
// include days up to and including Today.
func (a *Aggregator) Month(in MonthInput) MonthlyAggregate {
	first, last := clock.MonthRange(in.Year, in.Month)
	agg := MonthlyAggregate{
		UserID: in.UserID,
		Year:   in.Year,
		Month:  in.Month,
		Days:   make([]DailyAggregate, 0, last.Day()),
		Summary: MonthlySummary{
			WorkingDays:       a.policy.WorkingDaysIn(in.Year, in.Month),
			TargetWorkingDays: in.TargetWorkingDays,
		},
	}

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := a.Day(DayInput{
			UserID:   in.UserID,
			Date:     d,
			Sessions: in.Sessions.Get(in.UserID, d),
			Leave:    in.Leaves.Get(in.UserID, d),
			Today:    in.Today,
			Since:    in.Since,
		})
		agg.Days = append(agg.Days, day)
		agg.Summary.add(day, !d.After(in.Today))
	}

	return agg
}

func (s *MonthlySummary) add(day DailyAggregate, countWorked bool) {
	switch day.Status {
	case DayPresent:
		s.PresentDays++
	case DayAbsent:
		s.AbsentDays++
	case DayOnLeave:
		s.LeaveDays++
	case DayHalfDay:
		s.HalfDays++
	case DayOff:
		s.OffDays++
	}
	if day.IsLate {
		s.LateDays++
		s.TotalLateMinutes += day.LateMinutes
	}
	if day.IsEarlyLeave {
		s.EarlyLeaveDays++
	}
	if countWorked {
		s.TotalWorkedMinutes += day.TotalWorkedMinutes
	}
}
