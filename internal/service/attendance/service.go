package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/user"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/database"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/geo"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/jwt"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/iuhaa-wishery/wishery-crm-sub000/internal/service/attendance")

// LocationEnricher resolves punch coordinates. It must not fail.
type LocationEnricher interface {
	Enrich(ctx context.Context, p geo.Point) geo.Location
}

type Config struct {
	// StrictTransitions turns rejected intents into attendance.ErrInvalidTransition.
	StrictTransitions   bool
	PollIntervalSeconds int
}

type AttendanceServiceImpl struct {
	txManager database.TxManager
	attendance.SessionRepository
	attendance.BreakRepository
	clock    clock.Clock
	enricher LocationEnricher
	config   Config
}

// PunchIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchIn(ctx context.Context, req attendance.PunchRequest) (attendance.ActionResponse, error) {
	return a.apply(ctx, attendance.IntentPunchIn, req)
}

// PunchOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchOut(ctx context.Context, req attendance.PunchRequest) (attendance.ActionResponse, error) {
	return a.apply(ctx, attendance.IntentPunchOut, req)
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.PunchRequest) (attendance.ActionResponse, error) {
	return a.apply(ctx, attendance.IntentBreakStart, req)
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context, req attendance.PunchRequest) (attendance.ActionResponse, error) {
	return a.apply(ctx, attendance.IntentBreakEnd, req)
}

// apply runs one intent as a single read-modify-write under the user's lock.
func (a *AttendanceServiceImpl) apply(ctx context.Context, intent attendance.Intent, req attendance.PunchRequest) (attendance.ActionResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance."+string(intent))
	defer span.End()

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.ActionResponse{}, err
	}
	span.SetAttributes(attribute.String("app.user_id", actor.UserID))

	var point *geo.Point
	if lat, lng, ok := req.Coordinates(); ok {
		point = &geo.Point{Latitude: lat, Longitude: lng}
	} else if req.HasCoordinates() {
		slog.Warn("ignoring invalid coordinates", "user_id", actor.UserID, "intent", intent)
	}

	// Enrichment may call out over the network, so it runs before the lock is taken.
	var location *geo.Location
	if point != nil && intent == attendance.IntentPunchIn && a.enricher != nil {
		loc := a.enricher.Enrich(ctx, *point)
		location = &loc
	}

	var (
		outcome  attendance.Outcome
		rejected *attendance.TransitionError
		current  *attendance.Session
		brk      *attendance.BreakInterval
		now      time.Time
	)

	err = a.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := a.SessionRepository.LockUser(ctx, actor.UserID); err != nil {
			return fmt.Errorf("failed to lock user attendance: %w", err)
		}

		active, err := a.SessionRepository.GetActiveForUpdate(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("failed to get active session: %w", err)
		}
		current = active

		now = a.clock.Now()
		outcome, err = attendance.Transition(active, intent, now)
		if err != nil {
			if errors.As(err, &rejected) {
				return nil
			}
			return err
		}

		session, b, err := a.persist(ctx, actor.UserID, outcome, point, location)
		if err != nil {
			return err
		}
		outcome.Session = session
		brk = b
		return nil
	})
	if err != nil && errors.Is(err, attendance.ErrActiveSessionExists) {
		// Lost a race against a concurrent punch-in that committed first.
		rejected = &attendance.TransitionError{Intent: intent, State: attendance.StatePunchedIn, Reason: "a session is already open"}
		current = nil
		err = nil
	}
	if err != nil {
		return attendance.ActionResponse{}, err
	}

	loc := a.clock.Location()
	span.SetAttributes(attribute.Bool("app.attendance.applied", rejected == nil))

	if rejected != nil {
		slog.Warn("attendance transition rejected",
			"user_id", actor.UserID,
			"intent", intent,
			"state", rejected.State,
			"reason", rejected.Reason,
		)
		if a.config.StrictTransitions {
			return attendance.ActionResponse{}, rejected
		}
		reason := rejected.Reason
		resp := attendance.ActionResponse{
			Applied:    false,
			Intent:     intent,
			State:      rejected.State,
			Reason:     &reason,
			ServerTime: now.In(loc).Format(time.RFC3339),
		}
		if current != nil {
			s := attendance.NewSessionResponse(*current, now, loc)
			resp.Session = &s
		}
		return resp, nil
	}

	slog.Info("attendance transition applied",
		"user_id", actor.UserID,
		"session_id", outcome.Session.ID,
		"intent", intent,
		"from", outcome.From,
		"state", outcome.To,
	)

	s := attendance.NewSessionResponse(outcome.Session, now, loc)
	resp := attendance.ActionResponse{
		Applied:    true,
		Intent:     intent,
		State:      outcome.To,
		Session:    &s,
		ServerTime: now.In(loc).Format(time.RFC3339),
	}
	if brk != nil {
		b := attendance.NewBreakResponse(*brk, loc)
		resp.Break = &b
	}
	return resp, nil
}

// persist writes an accepted outcome and returns the stored session and the
// break interval it opened or closed, if any.
func (a *AttendanceServiceImpl) persist(ctx context.Context, userID string, out attendance.Outcome, point *geo.Point, location *geo.Location) (attendance.Session, *attendance.BreakInterval, error) {
	session := out.Session

	if out.NewSession {
		session.UserID = userID
		if point != nil {
			session.Latitude = &point.Latitude
			session.Longitude = &point.Longitude
		}
		if location != nil {
			session.LocationLabel = location.Label
			session.OfficeDistanceM = location.OfficeDistanceM
		}
		created, err := a.SessionRepository.Create(ctx, session)
		if err != nil {
			if errors.Is(err, attendance.ErrActiveSessionExists) {
				return attendance.Session{}, nil, err
			}
			return attendance.Session{}, nil, fmt.Errorf("failed to create attendance session: %w", err)
		}
		return created, nil, nil
	}

	var brk *attendance.BreakInterval

	if out.BreakClosed != nil {
		closed, err := a.closeInterval(ctx, session, *out.BreakClosed)
		if err != nil {
			return attendance.Session{}, nil, err
		}
		brk = &closed
	}

	if out.Intent == attendance.IntentPunchOut && point != nil {
		session.PunchOutLatitude = &point.Latitude
		session.PunchOutLongitude = &point.Longitude
	}

	session.UpdatedAt = a.clock.Now()
	if err := a.SessionRepository.Update(ctx, session); err != nil {
		return attendance.Session{}, nil, fmt.Errorf("failed to update attendance session: %w", err)
	}

	if out.BreakOpened {
		opened, err := a.BreakRepository.Create(ctx, attendance.BreakInterval{
			SessionID: session.ID,
			UserID:    userID,
			StartTime: *session.BreakStart,
		})
		if err != nil {
			return attendance.Session{}, nil, fmt.Errorf("failed to create break interval: %w", err)
		}
		brk = &opened
	}

	return session, brk, nil
}

// closeInterval finishes the session's ongoing interval row. A missing row is
// recreated from the session's break_start so the history stays complete.
func (a *AttendanceServiceImpl) closeInterval(ctx context.Context, session attendance.Session, closed attendance.ClosedBreak) (attendance.BreakInterval, error) {
	end := closed.End
	minutes := closed.Minutes

	open, err := a.BreakRepository.GetOpenBySession(ctx, session.ID)
	if err != nil {
		return attendance.BreakInterval{}, fmt.Errorf("failed to get open break: %w", err)
	}

	if open == nil {
		slog.Warn("open break interval missing, recording it from session", "session_id", session.ID)
		created, err := a.BreakRepository.Create(ctx, attendance.BreakInterval{
			SessionID:    session.ID,
			UserID:       session.UserID,
			StartTime:    closed.Start,
			EndTime:      &end,
			TotalMinutes: &minutes,
		})
		if err != nil {
			return attendance.BreakInterval{}, fmt.Errorf("failed to record break interval: %w", err)
		}
		return created, nil
	}

	open.EndTime = &end
	open.TotalMinutes = &minutes
	if err := a.BreakRepository.Update(ctx, *open); err != nil {
		return attendance.BreakInterval{}, fmt.Errorf("failed to close break interval: %w", err)
	}
	return *open, nil
}

// GetTodayStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetTodayStatus(ctx context.Context) (attendance.TodayStatusResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	var (
		sessions []attendance.Session
		active   *attendance.Session
		now      time.Time
	)

	err = a.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		active, err = a.SessionRepository.GetActiveForUpdate(ctx, actor.UserID)
		if err != nil {
			return fmt.Errorf("failed to get active session: %w", err)
		}

		now = a.clock.Now()
		sessions, err = a.SessionRepository.ListByUserAndDate(ctx, actor.UserID, clock.DateOf(now))
		if err != nil {
			return fmt.Errorf("failed to list today's sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	// A session opened before midnight still ticks on today's display.
	if active != nil && !containsSession(sessions, active.ID) {
		sessions = append([]attendance.Session{*active}, sessions...)
	}

	state := attendance.CurrentState(active)
	anchor := attendance.Anchor(sessions, state, now)
	loc := a.clock.Location()

	resp := attendance.TodayStatusResponse{
		State:               state,
		Date:                clock.DateOf(now).Format("2006-01-02"),
		ServerTime:          now.In(loc).Format(time.RFC3339),
		WorkedSeconds:       anchor.BaseWorkedSeconds,
		BreakSeconds:        anchor.BaseBreakSeconds,
		WorkedTicking:       anchor.WorkedTicking,
		BreakTicking:        anchor.BreakTicking,
		Sessions:            make([]attendance.SessionResponse, 0, len(sessions)),
		AllowedActions:      attendance.Allowed(state),
		PollIntervalSeconds: a.config.PollIntervalSeconds,
	}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, attendance.NewSessionResponse(s, now, loc))
	}
	if active != nil {
		s := attendance.NewSessionResponse(*active, now, loc)
		resp.ActiveSession = &s
	}

	return resp, nil
}

// ListSessionBreaks implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListSessionBreaks(ctx context.Context, sessionID string) ([]attendance.BreakResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if !validator.IsValidUUID(sessionID) {
		return nil, attendance.ErrSessionNotFound
	}

	session, err := a.SessionRepository.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.UserID != actor.UserID && !actor.Can(user.PermissionAttendanceViewAll) {
		return nil, attendance.ErrUnauthorized
	}

	breaks, err := a.BreakRepository.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}

	loc := a.clock.Location()
	resp := make([]attendance.BreakResponse, 0, len(breaks))
	for _, b := range breaks {
		resp = append(resp, attendance.NewBreakResponse(b, loc))
	}
	return resp, nil
}

// EditSession implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EditSession(ctx context.Context, req attendance.EditSessionRequest) (attendance.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SessionResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.SessionResponse{}, err
	}
	if !actor.Can(user.PermissionAttendanceEdit) {
		return attendance.SessionResponse{}, user.ErrAdminPrivilegeRequired
	}

	punchIn, punchOut := req.Times()
	loc := a.clock.Location()

	var updated attendance.Session
	err = a.txManager.WithinTx(ctx, func(ctx context.Context) error {
		session, err := a.lockSession(ctx, req.SessionID)
		if err != nil {
			return err
		}

		now := a.clock.Now()
		if punchOut != nil && session.IsOpen() {
			return attendance.ErrSessionStillOpen
		}

		if punchIn != nil {
			session.PunchIn = *punchIn
			session.Date = clock.DateOf(punchIn.In(loc))
		}
		if punchOut != nil {
			session.PunchOut = punchOut
		}

		if session.IsOpen() && session.PunchIn.After(now) {
			return attendance.ErrInvalidTimeRange
		}
		if session.PunchOut != nil && session.PunchOut.Before(session.PunchIn) {
			return attendance.ErrInvalidTimeRange
		}
		if session.BreakStart != nil && session.BreakStart.Before(session.PunchIn) {
			return attendance.ErrBreakOutsideSpan
		}

		breaks, err := a.BreakRepository.ListBySession(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to list breaks: %w", err)
		}
		for _, b := range breaks {
			if !withinSpan(session, b.StartTime, b.EndTime) {
				return attendance.ErrBreakOutsideSpan
			}
		}

		if !session.IsOpen() {
			worked := attendance.WorkedMinutes(session.PunchIn, *session.PunchOut, session.TotalBreakMinutes)
			session.TotalWorkedMinutes = &worked
		}

		session.UpdatedAt = now
		if err := a.SessionRepository.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update attendance session: %w", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return attendance.SessionResponse{}, err
	}

	slog.Info("attendance session edited", "session_id", updated.ID, "user_id", updated.UserID, "editor_id", actor.UserID)

	return attendance.NewSessionResponse(updated, a.clock.Now(), loc), nil
}

// EditBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EditBreak(ctx context.Context, req attendance.EditBreakRequest) (attendance.BreakResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.BreakResponse{}, err
	}

	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.BreakResponse{}, err
	}
	if !actor.Can(user.PermissionAttendanceEdit) {
		return attendance.BreakResponse{}, user.ErrAdminPrivilegeRequired
	}

	start, end := req.Times()

	var updated attendance.BreakInterval
	err = a.txManager.WithinTx(ctx, func(ctx context.Context) error {
		b, err := a.BreakRepository.GetByID(ctx, req.BreakID)
		if err != nil {
			return err
		}
		if b.IsOpen() {
			return attendance.ErrBreakStillOpen
		}

		session, err := a.lockSession(ctx, b.SessionID)
		if err != nil {
			return err
		}

		if start != nil {
			b.StartTime = *start
		}
		if end != nil {
			b.EndTime = end
		}
		if b.EndTime.Before(b.StartTime) {
			return attendance.ErrInvalidTimeRange
		}
		if !withinSpan(session, b.StartTime, b.EndTime) {
			return attendance.ErrBreakOutsideSpan
		}
		if session.IsOpen() && b.EndTime.After(a.clock.Now()) {
			return attendance.ErrBreakOutsideSpan
		}

		minutes := clock.FloorMinutes(b.EndTime.Sub(b.StartTime))
		b.TotalMinutes = &minutes
		if err := a.BreakRepository.Update(ctx, b); err != nil {
			return fmt.Errorf("failed to update break interval: %w", err)
		}

		breaks, err := a.BreakRepository.ListBySession(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to list breaks: %w", err)
		}
		session.TotalBreakMinutes = closedBreakMinutes(breaks, b)
		if !session.IsOpen() {
			worked := attendance.WorkedMinutes(session.PunchIn, *session.PunchOut, session.TotalBreakMinutes)
			session.TotalWorkedMinutes = &worked
		}

		session.UpdatedAt = a.clock.Now()
		if err := a.SessionRepository.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update attendance session: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	slog.Info("break interval edited", "break_id", updated.ID, "session_id", updated.SessionID, "editor_id", actor.UserID)

	return attendance.NewBreakResponse(updated, a.clock.Location()), nil
}

// lockSession loads a session and takes its owner's lock, re-reading after
// the lock so a concurrent transition is not overwritten.
func (a *AttendanceServiceImpl) lockSession(ctx context.Context, sessionID string) (attendance.Session, error) {
	session, err := a.SessionRepository.GetByID(ctx, sessionID)
	if err != nil {
		return attendance.Session{}, err
	}
	if err := a.SessionRepository.LockUser(ctx, session.UserID); err != nil {
		return attendance.Session{}, fmt.Errorf("failed to lock user attendance: %w", err)
	}
	return a.SessionRepository.GetByID(ctx, sessionID)
}

// withinSpan reports whether [start, end] lies inside the session. An open
// session has no upper bound here.
func withinSpan(s attendance.Session, start time.Time, end *time.Time) bool {
	if start.Before(s.PunchIn) {
		return false
	}
	if s.PunchOut == nil {
		return true
	}
	if start.After(*s.PunchOut) {
		return false
	}
	return end == nil || !end.After(*s.PunchOut)
}

// closedBreakMinutes sums closed intervals, taking edited in place of its stored row.
func closedBreakMinutes(breaks []attendance.BreakInterval, edited attendance.BreakInterval) int {
	total := 0
	for _, b := range breaks {
		if b.ID == edited.ID {
			b = edited
		}
		if b.TotalMinutes != nil {
			total += *b.TotalMinutes
		}
	}
	return total
}

func containsSession(sessions []attendance.Session, id string) bool {
	for _, s := range sessions {
		if s.ID == id {
			return true
		}
	}
	return false
}

func NewAttendanceService(
	txManager database.TxManager,
	sessionRepository attendance.SessionRepository,
	breakRepository attendance.BreakRepository,
	clk clock.Clock,
	enricher LocationEnricher,
	config Config,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		txManager:         txManager,
		SessionRepository: sessionRepository,
		BreakRepository:   breakRepository,
		clock:             clk,
		enricher:          enricher,
		config:            config,
	}
}
