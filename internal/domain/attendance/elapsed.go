package attendance

import (
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
)

// Elapsed is worked and break time in whole seconds.
type Elapsed struct {
	WorkedSeconds int64
	BreakSeconds  int64
}

func (e Elapsed) Add(o Elapsed) Elapsed {
	return Elapsed{
		WorkedSeconds: e.WorkedSeconds + o.WorkedSeconds,
		BreakSeconds:  e.BreakSeconds + o.BreakSeconds,
	}
}

// WorkedMinutes is (end - start) floored to minutes, minus breakMinutes,
// clamped at zero.
func WorkedMinutes(start, end time.Time, breakMinutes int) int {
	worked := clock.FloorMinutes(end.Sub(start)) - breakMinutes
	if worked < 0 {
		return 0
	}
	return worked
}

// SessionElapsed computes a session's worked and break seconds at now.
// Closed sessions use their stored totals.
func SessionElapsed(s Session, now time.Time) Elapsed {
	breakSeconds := int64(s.TotalBreakMinutes) * 60

	switch s.Status {
	case StatusPunchedOut:
		var worked int64
		if s.TotalWorkedMinutes != nil {
			worked = int64(*s.TotalWorkedMinutes) * 60
		}
		return Elapsed{WorkedSeconds: worked, BreakSeconds: breakSeconds}

	case StatusOnBreak:
		if s.BreakStart == nil {
			break
		}
		// Worked time is frozen at the start of the break.
		return Elapsed{
			WorkedSeconds: clampSeconds(clock.FloorSeconds(s.BreakStart.Sub(s.PunchIn)) - breakSeconds),
			BreakSeconds:  breakSeconds + clock.FloorSeconds(now.Sub(*s.BreakStart)),
		}
	}

	return Elapsed{
		WorkedSeconds: clampSeconds(clock.FloorSeconds(now.Sub(s.PunchIn)) - breakSeconds),
		BreakSeconds:  breakSeconds,
	}
}

// DailyElapsed sums SessionElapsed over one day's sessions.
func DailyElapsed(sessions []Session, now time.Time) Elapsed {
	var total Elapsed
	for _, s := range sessions {
		total = total.Add(SessionElapsed(s, now))
	}
	return total
}

// ClosedWorkedMinutes sums stored worked minutes of closed sessions only.
func ClosedWorkedMinutes(sessions []Session) int {
	total := 0
	for _, s := range sessions {
		if s.Status == StatusPunchedOut && s.TotalWorkedMinutes != nil {
			total += *s.TotalWorkedMinutes
		}
	}
	return total
}

// Anchor builds the live-display anchor for a user at now from today's
// sessions and the current state.
func Anchor(today []Session, state State, now time.Time) clock.Anchor {
	daily := DailyElapsed(today, now)
	return clock.Anchor{
		ServerTime:        now,
		BaseWorkedSeconds: daily.WorkedSeconds,
		BaseBreakSeconds:  daily.BreakSeconds,
		WorkedTicking:     state == StatePunchedIn,
		BreakTicking:      state == StateOnBreak,
	}
}

func clampSeconds(s int64) int64 {
	if s < 0 {
		return 0
	}
	return s
}
