package clock

import (
	"sync"
	"time"
)

// Clock supplies the authoritative "now" for every write. Callers never pass
// their own timestamps into punch or break transitions.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock reads the server wall clock in the operating timezone.
type SystemClock struct {
	loc *time.Location
}

func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{loc: loc}
}

func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *SystemClock) Location() *time.Location {
	return c.loc
}

// ManualClock is a settable clock used by tests and by tooling that replays
// events at known instants.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now, loc: now.Location()}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Location() *time.Location {
	return c.loc
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.In(c.loc)
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// LoadLocation resolves an IANA name, falling back to UTC when the name is
// empty or unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateOf returns the calendar day of t (in t's own location) as a
// timezone-naive date: midnight UTC of that year/month/day. This matches how
// pgx scans a PostgreSQL DATE column.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At places a wall-clock time of day on a calendar date in loc.
func At(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, loc)
}

// MonthRange returns the first and last calendar day of a month as
// timezone-naive dates.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// FloorMinutes converts d to whole minutes, rounding toward negative
// infinity and clamping negative spans to zero.
func FloorMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// FloorSeconds converts d to whole seconds, clamping negative spans to zero.
func FloorSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
