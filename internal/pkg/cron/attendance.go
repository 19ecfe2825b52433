package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
)

// StaleSessionLister is the read the watcher needs from the session store.
type StaleSessionLister interface {
	ListOpenStartedBefore(ctx context.Context, t time.Time) ([]attendance.Session, error)
}

// AttendanceJobs reports sessions left open too long. It never closes or
// edits them; a person decides what the punch-out should have been.
type AttendanceJobs struct {
	sessions  StaleSessionLister
	clock     clock.Clock
	threshold time.Duration
	interval  time.Duration
}

func NewAttendanceJobs(sessions StaleSessionLister, clk clock.Clock, threshold, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		sessions:  sessions,
		clock:     clk,
		threshold: threshold,
		interval:  interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("report_stale_attendance_sessions", j.interval, func(ctx context.Context) error {
		_, err := j.ReportStaleSessions(ctx)
		return err
	})
}

// ReportStaleSessions logs every open session whose punch_in is older than
// the threshold and returns them.
func (j *AttendanceJobs) ReportStaleSessions(ctx context.Context) ([]attendance.Session, error) {
	now := j.clock.Now()
	cutoff := now.Add(-j.threshold)

	stale, err := j.sessions.ListOpenStartedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	for _, s := range stale {
		slog.Warn("Stale attendance session",
			"user_id", s.UserID,
			"session_id", s.ID,
			"state", s.State(),
			"punch_in", s.PunchIn.In(j.clock.Location()).Format(time.RFC3339),
			"open_hours", int(now.Sub(s.PunchIn).Hours()),
		)
	}
	if len(stale) > 0 {
		slog.Info("Cron: stale attendance sessions found", "count", len(stale), "threshold", j.threshold)
	}
	return stale, nil
}
