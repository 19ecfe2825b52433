package attendance

import (
	"context"
	"time"
)

// SessionRepository defines data access methods for attendance sessions.
// Dates are calendar days (timezone-naive).
type SessionRepository interface {
	// Create inserts a new session. Returns ErrActiveSessionExists when the
	// user already has an open session.
	Create(ctx context.Context, session Session) (Session, error)

	// GetByID returns ErrSessionNotFound when no row matches.
	GetByID(ctx context.Context, id string) (Session, error)

	// LockUser serializes concurrent transitions for one user until the
	// surrounding transaction ends.
	LockUser(ctx context.Context, userID string) error

	// GetActiveForUpdate returns the open session, row-locked, or nil when none.
	GetActiveForUpdate(ctx context.Context, userID string) (*Session, error)

	Update(ctx context.Context, session Session) error

	ListByUserAndDate(ctx context.Context, userID string, date time.Time) ([]Session, error)
	ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]Session, error)
	ListByDate(ctx context.Context, date time.Time) ([]Session, error)

	// ListOpenStartedBefore lists open sessions whose punch_in is before t.
	ListOpenStartedBefore(ctx context.Context, t time.Time) ([]Session, error)
}

// BreakRepository defines data access methods for break intervals.
type BreakRepository interface {
	Create(ctx context.Context, b BreakInterval) (BreakInterval, error)

	// GetByID returns ErrBreakNotFound when no row matches.
	GetByID(ctx context.Context, id string) (BreakInterval, error)

	// GetOpenBySession returns the ongoing interval of a session or nil.
	GetOpenBySession(ctx context.Context, sessionID string) (*BreakInterval, error)

	Update(ctx context.Context, b BreakInterval) error

	// ListBySession returns intervals ordered by start time.
	ListBySession(ctx context.Context, sessionID string) ([]BreakInterval, error)
}
