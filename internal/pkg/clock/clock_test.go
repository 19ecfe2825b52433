package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloorMinutes(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{59 * time.Second, 0},
		{60 * time.Second, 1},
		{535*time.Minute + 59*time.Second, 535},
		{-5 * time.Minute, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FloorMinutes(c.in), "FloorMinutes(%v)", c.in)
	}
}

func TestFloorSeconds_ClampsNegative(t *testing.T) {
	assert.Equal(t, int64(0), FloorSeconds(-time.Hour))
	assert.Equal(t, int64(90), FloorSeconds(90*time.Second+999*time.Millisecond))
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 2024-03-04 23:30 UTC is already 2024-03-05 in UTC+7.
	ts := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC).In(jakarta)

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), DateOf(ts))
}

func TestAt(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	got := At(date, TimeOfDay{Hour: 9, Minute: 30}, loc)

	assert.Equal(t, time.Date(2024, 3, 5, 9, 30, 0, 0, loc), got)
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2024, time.February)
	assert.Equal(t, 1, first.Day())
	assert.Equal(t, 29, last.Day())
	assert.Equal(t, time.February, last.Month())
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 30}, tod)
	assert.Equal(t, "09:30", tod.String())

	tod, err = ParseTimeOfDay("18:30:45")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 18, Minute: 30}, tod)

	_, err = ParseTimeOfDay("9.30")
	assert.Error(t, err)
}

func TestLoadLocation_FallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
}

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestLocalAnchor_TicksFromLocalElapsedOnly(t *testing.T) {
	local := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) // device clock far off
	server := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	a := Receive(Anchor{
		ServerTime:        server,
		BaseWorkedSeconds: 3300,
		BaseBreakSeconds:  1200,
		WorkedTicking:     true,
	}, local)

	later := local.Add(65 * time.Second)
	assert.Equal(t, int64(3365), a.WorkedSeconds(later))
	assert.Equal(t, int64(1200), a.BreakSeconds(later))
	assert.Equal(t, server.Add(65*time.Second), a.ServerNow(later))
}

func TestLocalAnchor_BreakTicking(t *testing.T) {
	local := time.Now()
	a := Receive(Anchor{BaseWorkedSeconds: 600, BaseBreakSeconds: 60, BreakTicking: true}, local)

	assert.Equal(t, int64(600), a.WorkedSeconds(local.Add(time.Minute)))
	assert.Equal(t, int64(120), a.BreakSeconds(local.Add(time.Minute)))
}

func TestLocalAnchor_LocalClockGoingBackwardsClampsToBase(t *testing.T) {
	local := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	a := Receive(Anchor{BaseWorkedSeconds: 100, WorkedTicking: true}, local)

	assert.Equal(t, int64(100), a.WorkedSeconds(local.Add(-time.Hour)))
}
