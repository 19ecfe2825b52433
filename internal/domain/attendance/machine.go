package attendance

import (
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
)

// ClosedBreak is a break interval finished by a transition.
type ClosedBreak struct {
	Start   time.Time
	End     time.Time
	Minutes int
}

// Outcome is the result of an accepted transition. Session holds the record
// as it must be persisted.
type Outcome struct {
	Intent     Intent
	From       State
	To         State
	Session    Session
	NewSession bool
	// BreakOpened is set when a break interval starting at Session.BreakStart
	// must be created.
	BreakOpened bool
	BreakClosed *ClosedBreak
}

// CurrentState returns the state of a user given their active session, if any.
func CurrentState(active *Session) State {
	if active == nil || !active.IsOpen() {
		return StateNotStarted
	}
	return active.State()
}

// Allowed lists the intents accepted from a state.
func Allowed(state State) []Intent {
	switch state {
	case StatePunchedIn:
		return []Intent{IntentBreakStart, IntentPunchOut}
	case StateOnBreak:
		return []Intent{IntentBreakEnd, IntentPunchOut}
	default:
		return []Intent{IntentPunchIn}
	}
}

// Transition applies intent to the user's active session at now. It never
// mutates active. A rejected intent returns a *TransitionError and a zero Outcome.
func Transition(active *Session, intent Intent, now time.Time) (Outcome, error) {
	from := CurrentState(active)
	reject := func(reason string) (Outcome, error) {
		return Outcome{}, &TransitionError{Intent: intent, State: from, Reason: reason}
	}

	switch intent {
	case IntentPunchIn:
		if from != StateNotStarted {
			return reject("a session is already open")
		}
		return Outcome{
			Intent: intent,
			From:   from,
			To:     StatePunchedIn,
			Session: Session{
				Date:    clock.DateOf(now),
				PunchIn: now,
				Status:  StatusPunchedIn,
			},
			NewSession: true,
		}, nil

	case IntentBreakStart:
		if from != StatePunchedIn {
			return reject("not punched in")
		}
		next := *active
		start := now
		if start.Before(next.PunchIn) {
			start = next.PunchIn
		}
		next.BreakStart = &start
		next.Status = StatusOnBreak
		return Outcome{Intent: intent, From: from, To: StateOnBreak, Session: next, BreakOpened: true}, nil

	case IntentBreakEnd:
		if from != StateOnBreak || active.BreakStart == nil {
			return reject("no break in progress")
		}
		next := *active
		closed := closeBreak(&next, now)
		next.Status = StatusPunchedIn
		return Outcome{Intent: intent, From: from, To: StatePunchedIn, Session: next, BreakClosed: &closed}, nil

	case IntentPunchOut:
		if from != StatePunchedIn && from != StateOnBreak {
			return reject("no open session")
		}
		next := *active
		out := Outcome{Intent: intent, From: from, To: StatePunchedOut}
		if next.BreakStart != nil {
			closed := closeBreak(&next, now)
			out.BreakClosed = &closed
		}
		end := now
		if end.Before(next.PunchIn) {
			end = next.PunchIn
		}
		worked := WorkedMinutes(next.PunchIn, end, next.TotalBreakMinutes)
		next.PunchOut = &end
		next.TotalWorkedMinutes = &worked
		next.Status = StatusPunchedOut
		out.Session = next
		return out, nil
	}

	return reject("unknown intent")
}

// closeBreak folds the ongoing break of s into its total and clears break_start.
func closeBreak(s *Session, now time.Time) ClosedBreak {
	start := *s.BreakStart
	end := now
	if end.Before(start) {
		end = start
	}
	minutes := clock.FloorMinutes(end.Sub(start))
	s.TotalBreakMinutes += minutes
	s.BreakStart = nil
	return ClosedBreak{Start: start, End: end, Minutes: minutes}
}
