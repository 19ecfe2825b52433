package leave

import (
	"context"
	"time"
)

// LeaveRepository is a read-only view over approved leave requests.
type LeaveRepository interface {
	// ListApprovedInRange returns a user's approved leaves overlapping from..to.
	ListApprovedInRange(ctx context.Context, userID string, from, to time.Time) ([]ApprovedLeave, error)

	// ListApprovedOnDate returns every user's approved leave covering date.
	ListApprovedOnDate(ctx context.Context, date time.Time) ([]ApprovedLeave, error)
}
