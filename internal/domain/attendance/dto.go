package attendance

import (
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/validator"
)

// ========================================
// ACTION DTOs
// ========================================

// PunchRequest is the body of the four action endpoints. Coordinates are optional.
type PunchRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Coordinates returns the pair when both values are present and in range.
// Anything else degrades to "no coordinates".
func (r PunchRequest) Coordinates() (lat, lng float64, ok bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return 0, 0, false
	}
	if !validator.IsValidLatitude(*r.Latitude) || !validator.IsValidLongitude(*r.Longitude) {
		return 0, 0, false
	}
	return *r.Latitude, *r.Longitude, true
}

// HasCoordinates reports whether the caller sent anything location-related.
func (r PunchRequest) HasCoordinates() bool {
	return r.Latitude != nil || r.Longitude != nil
}

// ActionResponse is returned for every action. Applied is false when the
// intent was rejected by the state machine; nothing was persisted then.
type ActionResponse struct {
	Applied    bool             `json:"applied"`
	Intent     Intent           `json:"intent"`
	State      State            `json:"state"`
	Reason     *string          `json:"reason,omitempty"`
	Session    *SessionResponse `json:"session,omitempty"`
	Break      *BreakResponse   `json:"break,omitempty"`
	ServerTime string           `json:"server_time"`
}

type SessionResponse struct {
	ID                   string   `json:"id"`
	UserID               string   `json:"user_id"`
	Date                 string   `json:"date"`
	PunchIn              string   `json:"punch_in"`
	PunchOut             *string  `json:"punch_out,omitempty"`
	Status               Status   `json:"status"`
	TotalWorkedMinutes   *int     `json:"total_worked_minutes,omitempty"`
	BreakStart           *string  `json:"break_start,omitempty"`
	TotalBreakMinutes    int      `json:"total_break_minutes"`
	WorkedSeconds        int64    `json:"worked_seconds"`
	BreakSeconds         int64    `json:"break_seconds"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	LocationLabel        *string  `json:"location_label,omitempty"`
	OfficeDistanceMeters *float64 `json:"office_distance_meters,omitempty"`
	PunchOutLatitude     *float64 `json:"punch_out_latitude,omitempty"`
	PunchOutLongitude    *float64 `json:"punch_out_longitude,omitempty"`
	UpdatedAt            string   `json:"updated_at"`
}

type BreakResponse struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"session_id"`
	StartTime    string  `json:"start_time"`
	EndTime      *string `json:"end_time,omitempty"`
	TotalMinutes *int    `json:"total_minutes,omitempty"`
	Ongoing      bool    `json:"ongoing"`
}

// TodayStatusResponse carries the anchor a client ticks from until the next poll.
type TodayStatusResponse struct {
	State               State             `json:"state"`
	Date                string            `json:"date"`
	ServerTime          string            `json:"server_time"`
	WorkedSeconds       int64             `json:"worked_seconds"`
	BreakSeconds        int64             `json:"break_seconds"`
	WorkedTicking       bool              `json:"worked_ticking"`
	BreakTicking        bool              `json:"break_ticking"`
	ActiveSession       *SessionResponse  `json:"active_session,omitempty"`
	Sessions            []SessionResponse `json:"sessions"`
	AllowedActions      []Intent          `json:"allowed_actions"`
	PollIntervalSeconds int               `json:"poll_interval_seconds"`
}

// ========================================
// ADMIN EDIT DTOs
// ========================================

// EditSessionRequest edits punch times in place. Times are RFC 3339.
type EditSessionRequest struct {
	SessionID string  `json:"-"`
	PunchIn   *string `json:"punch_in,omitempty"`
	PunchOut  *string `json:"punch_out,omitempty"`

	punchIn  *time.Time
	punchOut *time.Time
}

func (r *EditSessionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id must be a valid UUID",
		})
	}

	if r.PunchIn == nil && r.PunchOut == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_in",
			Message: "at least one of punch_in or punch_out is required",
		})
	}

	if r.PunchIn != nil {
		if t, ok := validator.IsValidDateTime(*r.PunchIn); ok {
			r.punchIn = &t
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "punch_in",
				Message: "punch_in must be an RFC 3339 timestamp",
			})
		}
	}

	if r.PunchOut != nil {
		if t, ok := validator.IsValidDateTime(*r.PunchOut); ok {
			r.punchOut = &t
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "punch_out",
				Message: "punch_out must be an RFC 3339 timestamp",
			})
		}
	}

	if r.punchIn != nil && r.punchOut != nil && r.punchOut.Before(*r.punchIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "punch_out",
			Message: "punch_out must not be before punch_in",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Times returns the parsed timestamps. Valid only after Validate succeeded.
func (r *EditSessionRequest) Times() (punchIn, punchOut *time.Time) {
	return r.punchIn, r.punchOut
}

// EditBreakRequest edits a closed break interval. Times are RFC 3339.
type EditBreakRequest struct {
	BreakID   string  `json:"-"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`

	startTime *time.Time
	endTime   *time.Time
}

func (r *EditBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.BreakID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id must be a valid UUID",
		})
	}

	if r.StartTime == nil && r.EndTime == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "at least one of start_time or end_time is required",
		})
	}

	if r.StartTime != nil {
		if t, ok := validator.IsValidDateTime(*r.StartTime); ok {
			r.startTime = &t
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "start_time",
				Message: "start_time must be an RFC 3339 timestamp",
			})
		}
	}

	if r.EndTime != nil {
		if t, ok := validator.IsValidDateTime(*r.EndTime); ok {
			r.endTime = &t
		} else {
			errs = append(errs, validator.ValidationError{
				Field:   "end_time",
				Message: "end_time must be an RFC 3339 timestamp",
			})
		}
	}

	if r.startTime != nil && r.endTime != nil && r.endTime.Before(*r.startTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must not be before start_time",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Times returns the parsed timestamps. Valid only after Validate succeeded.
func (r *EditBreakRequest) Times() (start, end *time.Time) {
	return r.startTime, r.endTime
}

// ========================================
// MAPPERS
// ========================================

const timestampLayout = time.RFC3339

func formatTime(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(timestampLayout)
	return &s
}

// NewSessionResponse renders s with live elapsed values at now, in loc.
func NewSessionResponse(s Session, now time.Time, loc *time.Location) SessionResponse {
	elapsed := SessionElapsed(s, now)
	return SessionResponse{
		ID:                   s.ID,
		UserID:               s.UserID,
		Date:                 s.Date.Format("2006-01-02"),
		PunchIn:              s.PunchIn.In(loc).Format(timestampLayout),
		PunchOut:             formatTime(s.PunchOut, loc),
		Status:               s.Status,
		TotalWorkedMinutes:   s.TotalWorkedMinutes,
		BreakStart:           formatTime(s.BreakStart, loc),
		TotalBreakMinutes:    s.TotalBreakMinutes,
		WorkedSeconds:        elapsed.WorkedSeconds,
		BreakSeconds:         elapsed.BreakSeconds,
		Latitude:             s.Latitude,
		Longitude:            s.Longitude,
		LocationLabel:        s.LocationLabel,
		OfficeDistanceMeters: s.OfficeDistanceM,
		PunchOutLatitude:     s.PunchOutLatitude,
		PunchOutLongitude:    s.PunchOutLongitude,
		UpdatedAt:            s.UpdatedAt.In(loc).Format(timestampLayout),
	}
}

func NewBreakResponse(b BreakInterval, loc *time.Location) BreakResponse {
	return BreakResponse{
		ID:           b.ID,
		SessionID:    b.SessionID,
		StartTime:    b.StartTime.In(loc).Format(timestampLayout),
		EndTime:      formatTime(b.EndTime, loc),
		TotalMinutes: b.TotalMinutes,
		Ongoing:      b.IsOpen(),
	}
}
