package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

func at(hour, min int) time.Time {
	return time.Date(2024, 3, 5, hour, min, 0, 0, wib)
}

func ptr[T any](v T) *T { return &v }

func apply(t *testing.T, active *Session, intent Intent, now time.Time) Outcome {
	t.Helper()
	out, err := Transition(active, intent, now)
	require.NoError(t, err)
	return out
}

func TestTransition_FullDayScenario(t *testing.T) {
	in := apply(t, nil, IntentPunchIn, at(9, 5))
	assert.True(t, in.NewSession)
	assert.Equal(t, StateNotStarted, in.From)
	assert.Equal(t, StatePunchedIn, in.To)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), in.Session.Date)
	assert.Nil(t, in.Session.TotalWorkedMinutes)

	s := in.Session
	brk := apply(t, &s, IntentBreakStart, at(11, 0))
	assert.True(t, brk.BreakOpened)
	assert.Equal(t, StatusOnBreak, brk.Session.Status)
	require.NotNil(t, brk.Session.BreakStart)

	s = brk.Session
	end := apply(t, &s, IntentBreakEnd, at(11, 20))
	require.NotNil(t, end.BreakClosed)
	assert.Equal(t, 20, end.BreakClosed.Minutes)
	assert.Equal(t, 20, end.Session.TotalBreakMinutes)
	assert.Nil(t, end.Session.BreakStart)
	assert.Equal(t, StatusPunchedIn, end.Session.Status)

	s = end.Session
	out := apply(t, &s, IntentPunchOut, at(18, 0))
	assert.Nil(t, out.BreakClosed)
	assert.Equal(t, StatePunchedOut, out.To)
	require.NotNil(t, out.Session.TotalWorkedMinutes)
	assert.Equal(t, 515, *out.Session.TotalWorkedMinutes)
	assert.Equal(t, at(18, 0), *out.Session.PunchOut)

	// A second cycle the same day is a fresh session.
	second := apply(t, nil, IntentPunchIn, at(19, 0))
	s2 := second.Session
	closed := apply(t, &s2, IntentPunchOut, at(20, 0))
	assert.Equal(t, 60, *closed.Session.TotalWorkedMinutes)

	assert.Equal(t, 575, ClosedWorkedMinutes([]Session{out.Session, closed.Session}))
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	s := Session{ID: "s1", PunchIn: at(9, 0), Status: StatusPunchedIn}
	before := s

	_ = apply(t, &s, IntentBreakStart, at(10, 0))

	assert.Equal(t, before, s)
}

func TestTransition_PunchOutWhileOnBreakClosesBreak(t *testing.T) {
	s := Session{
		PunchIn:           at(9, 0),
		Status:            StatusOnBreak,
		BreakStart:        ptr(at(12, 0)),
		TotalBreakMinutes: 15,
	}

	out := apply(t, &s, IntentPunchOut, at(12, 30))

	require.NotNil(t, out.BreakClosed)
	assert.Equal(t, 30, out.BreakClosed.Minutes)
	assert.Equal(t, 45, out.Session.TotalBreakMinutes)
	assert.Nil(t, out.Session.BreakStart)
	// 210 raw minutes minus 45 break minutes.
	assert.Equal(t, 165, *out.Session.TotalWorkedMinutes)
}

func TestTransition_Rejections(t *testing.T) {
	open := &Session{PunchIn: at(9, 0), Status: StatusPunchedIn}
	onBreak := &Session{PunchIn: at(9, 0), Status: StatusOnBreak, BreakStart: ptr(at(10, 0))}

	cases := []struct {
		name   string
		active *Session
		intent Intent
		state  State
	}{
		{"punch in twice", open, IntentPunchIn, StatePunchedIn},
		{"punch in while on break", onBreak, IntentPunchIn, StateOnBreak},
		{"break start without session", nil, IntentBreakStart, StateNotStarted},
		{"break start while on break", onBreak, IntentBreakStart, StateOnBreak},
		{"break end without break", open, IntentBreakEnd, StatePunchedIn},
		{"break end without session", nil, IntentBreakEnd, StateNotStarted},
		{"punch out without session", nil, IntentPunchOut, StateNotStarted},
		{"unknown intent", open, Intent("teleport"), StatePunchedIn},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Transition(tc.active, tc.intent, at(12, 0))

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.intent, te.Intent)
			assert.Equal(t, tc.state, te.State)
			assert.Equal(t, Outcome{}, out)
		})
	}
}

func TestTransition_ClosedSessionCountsAsNotStarted(t *testing.T) {
	closed := &Session{PunchIn: at(9, 0), PunchOut: ptr(at(10, 0)), Status: StatusPunchedOut, TotalWorkedMinutes: ptr(60)}

	assert.Equal(t, StateNotStarted, CurrentState(closed))
	out := apply(t, closed, IntentPunchIn, at(11, 0))
	assert.True(t, out.NewSession)
}

func TestTransition_ClockSkewClampsToZero(t *testing.T) {
	s := Session{PunchIn: at(10, 0), Status: StatusPunchedIn}

	out := apply(t, &s, IntentPunchOut, at(9, 0))

	assert.Equal(t, 0, *out.Session.TotalWorkedMinutes)
	assert.False(t, out.Session.PunchOut.Before(out.Session.PunchIn))
}

func TestTransition_BreaksLongerThanSpanClampToZero(t *testing.T) {
	s := Session{PunchIn: at(9, 0), Status: StatusPunchedIn, TotalBreakMinutes: 90}

	out := apply(t, &s, IntentPunchOut, at(10, 0))

	assert.Equal(t, 0, *out.Session.TotalWorkedMinutes)
}

func TestTransition_BreakAdditivity(t *testing.T) {
	s := apply(t, nil, IntentPunchIn, at(8, 0)).Session
	durations := []time.Duration{
		10*time.Minute + 59*time.Second,
		5 * time.Minute,
		30*time.Minute + 1*time.Second,
	}
	cursor := at(9, 0)
	want := 0
	for _, d := range durations {
		s = apply(t, &s, IntentBreakStart, cursor).Session
		s = apply(t, &s, IntentBreakEnd, cursor.Add(d)).Session
		want += int(d / time.Minute)
		cursor = cursor.Add(d + time.Hour)
	}

	out := apply(t, &s, IntentPunchOut, at(17, 0))

	assert.Equal(t, want, out.Session.TotalBreakMinutes)
	assert.Equal(t, 9*60-want, *out.Session.TotalWorkedMinutes)
}

func TestAllowed(t *testing.T) {
	assert.Equal(t, []Intent{IntentPunchIn}, Allowed(StateNotStarted))
	assert.Equal(t, []Intent{IntentBreakStart, IntentPunchOut}, Allowed(StatePunchedIn))
	assert.Equal(t, []Intent{IntentBreakEnd, IntentPunchOut}, Allowed(StateOnBreak))
}
