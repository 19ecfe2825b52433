package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// State machine
	ErrInvalidTransition   = errors.New("invalid attendance transition")
	ErrActiveSessionExists = errors.New("an attendance session is already open for this user")

	// Lookups
	ErrSessionNotFound = errors.New("attendance session not found")
	ErrBreakNotFound   = errors.New("break interval not found")

	// Admin edits
	ErrInvalidTimeRange = errors.New("end time must not be before start time")
	ErrBreakStillOpen   = errors.New("an ongoing break cannot be edited")
	ErrBreakOutsideSpan = errors.New("break must lie within its session")
	ErrSessionStillOpen = errors.New("an open session has no punch_out to edit")

	ErrUnauthorized = errors.New("unauthorized to access this attendance record")
)

// TransitionError describes a rejected intent. It unwraps to ErrInvalidTransition.
type TransitionError struct {
	Intent Intent
	State  State
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s: %s", e.Intent, e.State, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
