package clock

import "time"

// Anchor is a server-issued reference point for live displays. A client
// records its own monotonic reading when the anchor arrives and from then on
// only measures local elapsed time, so a misconfigured device wall clock can
// never skew the numbers shown.
type Anchor struct {
	ServerTime        time.Time
	BaseWorkedSeconds int64
	BaseBreakSeconds  int64
	// Exactly one of the two counters ticks; neither does when the user is
	// not in an open session.
	WorkedTicking bool
	BreakTicking  bool
}

// LocalAnchor binds an Anchor to the local instant it was received.
type LocalAnchor struct {
	Anchor
	fetchedAt time.Time
}

// Receive pins a to localNow. localNow should carry a monotonic reading
// (time.Now does) so later Sub calls ignore wall-clock jumps.
func Receive(a Anchor, localNow time.Time) LocalAnchor {
	return LocalAnchor{Anchor: a, fetchedAt: localNow}
}

// Elapsed is the local time since the anchor was received, clamped at zero.
func (l LocalAnchor) Elapsed(localNow time.Time) time.Duration {
	d := localNow.Sub(l.fetchedAt)
	if d < 0 {
		return 0
	}
	return d
}

// WorkedSeconds is baseWorkedSeconds + local elapsed, when worked time is ticking.
func (l LocalAnchor) WorkedSeconds(localNow time.Time) int64 {
	if !l.WorkedTicking {
		return l.BaseWorkedSeconds
	}
	return l.BaseWorkedSeconds + FloorSeconds(l.Elapsed(localNow))
}

// BreakSeconds is baseBreakSeconds + local elapsed, when a break is ticking.
func (l LocalAnchor) BreakSeconds(localNow time.Time) int64 {
	if !l.BreakTicking {
		return l.BaseBreakSeconds
	}
	return l.BaseBreakSeconds + FloorSeconds(l.Elapsed(localNow))
}

// ServerNow estimates the current server time from the anchor.
func (l LocalAnchor) ServerNow(localNow time.Time) time.Time {
	return l.ServerTime.Add(l.Elapsed(localNow))
}
