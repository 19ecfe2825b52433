package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/attendance"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/user"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/clock"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/geo"
	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*3600)

const (
	employeeID = "018f2f5e-0000-7000-8000-00000000e001"
	colleague  = "018f2f5e-0000-7000-8000-00000000e002"
	adminID    = "018f2f5e-0000-7000-8000-00000000a001"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 3, 5, hour, min, 0, 0, wib)
}

type fixture struct {
	store *memStore
	clock *clock.ManualClock
	svc   attendance.AttendanceService
	jwt   jwt.Service
}

func newFixture(t *testing.T, cfg Config, enricher LocationEnricher) *fixture {
	t.Helper()
	store := newMemStore()
	clk := clock.NewManualClock(at(9, 5))
	return &fixture{
		store: store,
		clock: clk,
		svc:   NewAttendanceService(&serialTx{}, memSessions{store}, memBreaks{store}, clk, enricher, cfg),
		jwt:   jwt.NewJWTService("test-secret", "1h"),
	}
}

func (f *fixture) as(t *testing.T, userID string, role user.Role) context.Context {
	t.Helper()
	raw, _, err := f.jwt.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	token, err := jwtauth.VerifyToken(f.jwt.JWTAuth(), raw)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func (f *fixture) do(t *testing.T, ctx context.Context, h func(context.Context, attendance.PunchRequest) (attendance.ActionResponse, error), when time.Time) attendance.ActionResponse {
	t.Helper()
	f.clock.Set(when)
	resp, err := h(ctx, attendance.PunchRequest{})
	require.NoError(t, err)
	return resp
}

func TestAttendanceService_FullDay(t *testing.T) {
	f := newFixture(t, Config{PollIntervalSeconds: 30}, nil)
	ctx := f.as(t, employeeID, user.RoleUser)

	in := f.do(t, ctx, f.svc.PunchIn, at(9, 5))
	require.True(t, in.Applied)
	assert.Equal(t, attendance.StatePunchedIn, in.State)
	require.NotNil(t, in.Session)
	assert.Equal(t, "2024-03-05", in.Session.Date)

	brk := f.do(t, ctx, f.svc.StartBreak, at(11, 0))
	require.True(t, brk.Applied)
	require.NotNil(t, brk.Break)
	assert.True(t, brk.Break.Ongoing)

	end := f.do(t, ctx, f.svc.EndBreak, at(11, 20))
	require.True(t, end.Applied)
	require.NotNil(t, end.Break)
	assert.Equal(t, 20, *end.Break.TotalMinutes)
	assert.Equal(t, brk.Break.ID, end.Break.ID)

	out := f.do(t, ctx, f.svc.PunchOut, at(18, 0))
	require.True(t, out.Applied)
	assert.Equal(t, attendance.StatePunchedOut, out.State)
	assert.Equal(t, 515, *out.Session.TotalWorkedMinutes)

	f.do(t, ctx, f.svc.PunchIn, at(19, 0))

	f.clock.Set(at(19, 30))
	status, err := f.svc.GetTodayStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatePunchedIn, status.State)
	assert.Equal(t, int64((515+30)*60), status.WorkedSeconds)
	assert.Equal(t, int64(20*60), status.BreakSeconds)
	assert.True(t, status.WorkedTicking)
	assert.False(t, status.BreakTicking)
	assert.Len(t, status.Sessions, 2)
	assert.Equal(t, []attendance.Intent{attendance.IntentBreakStart, attendance.IntentPunchOut}, status.AllowedActions)
	assert.Equal(t, 30, status.PollIntervalSeconds)
	require.NotNil(t, status.ActiveSession)

	f.do(t, ctx, f.svc.PunchOut, at(20, 0))

	status, err = f.svc.GetTodayStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateNotStarted, status.State)
	assert.Equal(t, int64(575*60), status.WorkedSeconds)
	assert.False(t, status.WorkedTicking)
	assert.Nil(t, status.ActiveSession)

	breaks, err := f.svc.ListSessionBreaks(ctx, in.Session.ID)
	require.NoError(t, err)
	require.Len(t, breaks, 1)
	assert.Equal(t, "2024-03-05T11:00:00+07:00", breaks[0].StartTime)
	assert.False(t, breaks[0].Ongoing)
}

func TestAttendanceService_PunchOutDuringBreakClosesInterval(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := f.as(t, employeeID, user.RoleUser)

	in := f.do(t, ctx, f.svc.PunchIn, at(9, 0))
	f.do(t, ctx, f.svc.StartBreak, at(12, 0))
	out := f.do(t, ctx, f.svc.PunchOut, at(12, 45))

	require.True(t, out.Applied)
	require.NotNil(t, out.Break)
	assert.Equal(t, 45, *out.Break.TotalMinutes)
	assert.Nil(t, out.Session.BreakStart)
	assert.Equal(t, 45, out.Session.TotalBreakMinutes)
	assert.Equal(t, 180, *out.Session.TotalWorkedMinutes)

	breaks, err := f.svc.ListSessionBreaks(ctx, in.Session.ID)
	require.NoError(t, err)
	require.Len(t, breaks, 1)
	assert.False(t, breaks[0].Ongoing)
}

func TestAttendanceService_RejectedIntentChangesNothing(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := f.as(t, employeeID, user.RoleUser)

	f.do(t, ctx, f.svc.PunchIn, at(9, 0))
	sessionsBefore, breaksBefore, writesBefore := f.store.snapshot()

	resp := f.do(t, ctx, f.svc.EndBreak, at(10, 0))

	assert.False(t, resp.Applied)
	assert.Equal(t, attendance.StatePunchedIn, resp.State)
	require.NotNil(t, resp.Reason)
	assert.Equal(t, "no break in progress", *resp.Reason)
	require.NotNil(t, resp.Session)

	sessionsAfter, breaksAfter, writesAfter := f.store.snapshot()
	assert.Equal(t, sessionsBefore, sessionsAfter)
	assert.Equal(t, breaksBefore, breaksAfter)
	assert.Equal(t, writesBefore, writesAfter)
}

func TestAttendanceService_StrictModeReturnsError(t *testing.T) {
	f := newFixture(t, Config{StrictTransitions: true}, nil)
	ctx := f.as(t, employeeID, user.RoleUser)

	_, err := f.svc.StartBreak(ctx, attendance.PunchRequest{})

	assert.True(t, errors.Is(err, attendance.ErrInvalidTransition))
	var te *attendance.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, attendance.StateNotStarted, te.State)
}

func TestAttendanceService_ConcurrentPunchIn(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := f.as(t, employeeID, user.RoleUser)

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan attendance.ActionResponse, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.PunchIn(ctx, attendance.PunchRequest{})
			assert.NoError(t, err)
			results <- resp
		}()
	}
	wg.Wait()
	close(results)

	applied := 0
	for r := range results {
		if r.Applied {
			applied++
		}
	}
	assert.Equal(t, 1, applied)

	sessions, _, _ := f.store.snapshot()
	assert.Len(t, sessions, 1)
}

func TestAttendanceService_UniquenessBackstop(t *testing.T) {
	store := newMemStore()
	clk := clock.NewManualClock(at(9, 0))
	svc := NewAttendanceService(&serialTx{}, blindSessions{memSessions{store}}, memBreaks{store}, clk, nil, Config{})
	f := &fixture{store: store, clock: clk, svc: svc, jwt: jwt.NewJWTService("test-secret", "1h")}
	ctx := f.as(t, employeeID, user.RoleUser)

	first := f.do(t, ctx, svc.PunchIn, at(9, 0))
	second := f.do(t, ctx, svc.PunchIn, at(9, 1))

	assert.True(t, first.Applied)
	assert.False(t, second.Applied)
	sessions, _, _ := store.snapshot()
	assert.Len(t, sessions, 1)
}

type failingGeocoder struct{}

func (failingGeocoder) ReverseGeocode(ctx context.Context, p geo.Point) (string, error) {
	return "", errors.New("geocoder unavailable")
}

func TestAttendanceService_GeocoderFailureStillPunches(t *testing.T) {
	office := geo.Point{Latitude: -6.175392, Longitude: 106.827153}
	enricher := geo.NewEnricher(failingGeocoder{}, geo.EnricherConfig{Office: &office, Timeout: 50 * time.Millisecond})
	f := newFixture(t, Config{}, enricher)
	ctx := f.as(t, employeeID, user.RoleUser)

	lat, lng := -6.175392, 106.827153
	f.clock.Set(at(9, 0))
	resp, err := f.svc.PunchIn(ctx, attendance.PunchRequest{Latitude: &lat, Longitude: &lng})

	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Nil(t, resp.Session.LocationLabel)
	require.NotNil(t, resp.Session.OfficeDistanceMeters)
	assert.Equal(t, 0.0, *resp.Session.OfficeDistanceMeters)
	assert.Equal(t, lat, *resp.Session.Latitude)
}

func TestAttendanceService_InvalidCoordinatesAreDropped(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := f.as(t, employeeID, user.RoleUser)

	lat := 123.0
	f.clock.Set(at(9, 0))
	resp, err := f.svc.PunchIn(ctx, attendance.PunchRequest{Latitude: &lat})

	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Nil(t, resp.Session.Latitude)
}

func TestAttendanceService_RequiresToken(t *testing.T) {
	f := newFixture(t, Config{}, nil)

	_, err := f.svc.PunchIn(context.Background(), attendance.PunchRequest{})

	assert.ErrorIs(t, err, jwt.ErrMissingToken)
}

func TestAttendanceService_ListSessionBreaksAccess(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	owner := f.as(t, employeeID, user.RoleUser)
	in := f.do(t, owner, f.svc.PunchIn, at(9, 0))

	_, err := f.svc.ListSessionBreaks(f.as(t, colleague, user.RoleUser), in.Session.ID)
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	_, err = f.svc.ListSessionBreaks(f.as(t, colleague, user.RoleManager), in.Session.ID)
	assert.NoError(t, err)

	_, err = f.svc.ListSessionBreaks(owner, "not-a-uuid")
	assert.ErrorIs(t, err, attendance.ErrSessionNotFound)
}

func closedDay(t *testing.T, f *fixture) (sessionID, breakID string) {
	t.Helper()
	ctx := f.as(t, employeeID, user.RoleUser)
	in := f.do(t, ctx, f.svc.PunchIn, at(9, 5))
	brk := f.do(t, ctx, f.svc.StartBreak, at(11, 0))
	f.do(t, ctx, f.svc.EndBreak, at(11, 20))
	f.do(t, ctx, f.svc.PunchOut, at(18, 0))
	return in.Session.ID, brk.Break.ID
}

func TestAttendanceService_EditSession(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	sessionID, _ := closedDay(t, f)
	admin := f.as(t, adminID, user.RoleAdmin)

	punchIn := "2024-03-05T09:00:00+07:00"
	resp, err := f.svc.EditSession(admin, attendance.EditSessionRequest{SessionID: sessionID, PunchIn: &punchIn})

	require.NoError(t, err)
	assert.Equal(t, "2024-03-05T09:00:00+07:00", resp.PunchIn)
	assert.Equal(t, 520, *resp.TotalWorkedMinutes)

	_, err = f.svc.EditSession(f.as(t, adminID, user.RoleManager), attendance.EditSessionRequest{SessionID: sessionID, PunchIn: &punchIn})
	assert.ErrorIs(t, err, user.ErrAdminPrivilegeRequired)

	tooLate := "2024-03-05T19:00:00+07:00"
	_, err = f.svc.EditSession(admin, attendance.EditSessionRequest{SessionID: sessionID, PunchIn: &tooLate})
	assert.ErrorIs(t, err, attendance.ErrInvalidTimeRange)

	cutsBreak := "2024-03-05T11:10:00+07:00"
	_, err = f.svc.EditSession(admin, attendance.EditSessionRequest{SessionID: sessionID, PunchOut: &cutsBreak})
	assert.ErrorIs(t, err, attendance.ErrBreakOutsideSpan)
}

func TestAttendanceService_EditSessionOpenPunchOut(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	in := f.do(t, f.as(t, employeeID, user.RoleUser), f.svc.PunchIn, at(9, 0))

	punchOut := "2024-03-05T17:00:00+07:00"
	_, err := f.svc.EditSession(f.as(t, adminID, user.RoleAdmin), attendance.EditSessionRequest{SessionID: in.Session.ID, PunchOut: &punchOut})

	assert.ErrorIs(t, err, attendance.ErrSessionStillOpen)
}

func TestAttendanceService_EditBreak(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	sessionID, breakID := closedDay(t, f)
	admin := f.as(t, adminID, user.RoleAdmin)

	end := "2024-03-05T11:30:00+07:00"
	resp, err := f.svc.EditBreak(admin, attendance.EditBreakRequest{BreakID: breakID, EndTime: &end})

	require.NoError(t, err)
	assert.Equal(t, 30, *resp.TotalMinutes)

	sessions, _, _ := f.store.snapshot()
	s := sessions[sessionID]
	assert.Equal(t, 30, s.TotalBreakMinutes)
	assert.Equal(t, 505, *s.TotalWorkedMinutes)

	outside := "2024-03-05T08:00:00+07:00"
	_, err = f.svc.EditBreak(admin, attendance.EditBreakRequest{BreakID: breakID, StartTime: &outside})
	assert.ErrorIs(t, err, attendance.ErrBreakOutsideSpan)
}

func TestAttendanceService_EditOngoingBreakRejected(t *testing.T) {
	f := newFixture(t, Config{}, nil)
	ctx := f.as(t, employeeID, user.RoleUser)
	f.do(t, ctx, f.svc.PunchIn, at(9, 0))
	brk := f.do(t, ctx, f.svc.StartBreak, at(10, 0))

	start := "2024-03-05T09:30:00+07:00"
	_, err := f.svc.EditBreak(f.as(t, adminID, user.RoleAdmin), attendance.EditBreakRequest{BreakID: brk.Break.ID, StartTime: &start})

	assert.ErrorIs(t, err, attendance.ErrBreakStillOpen)
}
