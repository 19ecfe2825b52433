package attendance

import (
	"time"
)

// Status is the persisted status column of a session.
type Status string

const (
	StatusPunchedIn  Status = "punched_in"
	StatusOnBreak    Status = "on_break"
	StatusPunchedOut Status = "punched_out"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPunchedIn, StatusOnBreak, StatusPunchedOut:
		return true
	}
	return false
}

// State is where a user stands in the attendance state machine.
type State string

const (
	StateNotStarted State = "not_started"
	StatePunchedIn  State = "punched_in"
	StateOnBreak    State = "on_break"
	StatePunchedOut State = "punched_out"
)

// Intent is one of the four actions a user can request.
type Intent string

const (
	IntentPunchIn    Intent = "punch_in"
	IntentPunchOut   Intent = "punch_out"
	IntentBreakStart Intent = "break_start"
	IntentBreakEnd   Intent = "break_end"
)

// Session is one punch-in to punch-out cycle. A user may have several per day;
// at most one of them is open (status other than punched_out) at any time.
type Session struct {
	ID                 string
	UserID             string
	Date               time.Time
	PunchIn            time.Time
	PunchOut           *time.Time
	Status             Status
	TotalWorkedMinutes *int
	BreakStart         *time.Time
	TotalBreakMinutes  int

	Latitude          *float64
	Longitude         *float64
	LocationLabel     *string
	OfficeDistanceM   *float64
	PunchOutLatitude  *float64
	PunchOutLongitude *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen reports whether the session is the user's active session.
func (s Session) IsOpen() bool {
	return s.Status != StatusPunchedOut
}

// State maps the stored status onto the state machine.
func (s Session) State() State {
	switch s.Status {
	case StatusPunchedIn:
		return StatePunchedIn
	case StatusOnBreak:
		return StateOnBreak
	default:
		return StatePunchedOut
	}
}

// BreakInterval is one pause inside a session. EndTime and TotalMinutes stay
// nil while the break is ongoing.
type BreakInterval struct {
	ID           string
	SessionID    string
	UserID       string
	StartTime    time.Time
	EndTime      *time.Time
	TotalMinutes *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (b BreakInterval) IsOpen() bool {
	return b.EndTime == nil
}
