package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations.
// The acting user is read from the verified token in ctx.
type AttendanceService interface {
	// PunchIn opens a new session
	PunchIn(ctx context.Context, req PunchRequest) (ActionResponse, error)

	// PunchOut closes the active session, ending an ongoing break first
	PunchOut(ctx context.Context, req PunchRequest) (ActionResponse, error)

	StartBreak(ctx context.Context, req PunchRequest) (ActionResponse, error)
	EndBreak(ctx context.Context, req PunchRequest) (ActionResponse, error)

	// GetTodayStatus returns the live-display anchor and today's sessions
	GetTodayStatus(ctx context.Context) (TodayStatusResponse, error)

	// ListSessionBreaks returns a session's break history (owner or attendance.view_all)
	ListSessionBreaks(ctx context.Context, sessionID string) ([]BreakResponse, error)

	// EditSession edits punch times in place (admin)
	EditSession(ctx context.Context, req EditSessionRequest) (SessionResponse, error)

	// EditBreak edits a closed break interval and refreshes the parent totals (admin)
	EditBreak(ctx context.Context, req EditBreakRequest) (BreakResponse, error)
}
