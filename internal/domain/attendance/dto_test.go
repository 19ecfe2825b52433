package attendance

import (
	"errors"
	"testing"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionID = "0190a1b2-7c3d-7e4f-8a5b-6c7d8e9f0a1b"

func TestPunchRequest_Coordinates(t *testing.T) {
	lat, lng, ok := PunchRequest{Latitude: ptr(-6.2), Longitude: ptr(106.8)}.Coordinates()
	assert.True(t, ok)
	assert.Equal(t, -6.2, lat)
	assert.Equal(t, 106.8, lng)

	_, _, ok = PunchRequest{Latitude: ptr(-6.2)}.Coordinates()
	assert.False(t, ok)

	_, _, ok = PunchRequest{Latitude: ptr(91.0), Longitude: ptr(0.0)}.Coordinates()
	assert.False(t, ok)

	assert.False(t, PunchRequest{}.HasCoordinates())
}

func TestEditSessionRequest_Validate(t *testing.T) {
	req := EditSessionRequest{
		SessionID: sessionID,
		PunchIn:   ptr("2024-03-05T09:00:00+07:00"),
		PunchOut:  ptr("2024-03-05T17:00:00+07:00"),
	}
	require.NoError(t, req.Validate())
	in, out := req.Times()
	require.NotNil(t, in)
	require.NotNil(t, out)
	assert.Equal(t, 8, int(out.Sub(*in).Hours()))
}

func TestEditSessionRequest_ValidateErrors(t *testing.T) {
	req := EditSessionRequest{
		SessionID: "nope",
		PunchIn:   ptr("2024-03-05T18:00:00+07:00"),
		PunchOut:  ptr("2024-03-05T09:00:00+07:00"),
	}

	err := req.Validate()

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := verrs.ToMap()
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "punch_out")
}

func TestEditSessionRequest_RequiresAField(t *testing.T) {
	req := EditSessionRequest{SessionID: sessionID}

	err := req.Validate()

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "punch_in")
}

func TestEditBreakRequest_Validate(t *testing.T) {
	req := EditBreakRequest{BreakID: sessionID, EndTime: ptr("not-a-time")}

	err := req.Validate()

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "end_time")

	ok := EditBreakRequest{BreakID: sessionID, StartTime: ptr("2024-03-05T12:00:00Z")}
	assert.NoError(t, ok.Validate())
}

func TestNewSessionResponse(t *testing.T) {
	s := Session{
		ID:                 "s1",
		UserID:             "u1",
		Date:               at(0, 0),
		PunchIn:            at(9, 5),
		PunchOut:           ptr(at(18, 0)),
		Status:             StatusPunchedOut,
		TotalWorkedMinutes: ptr(515),
		TotalBreakMinutes:  20,
		UpdatedAt:          at(18, 0),
	}

	resp := NewSessionResponse(s, at(20, 0), wib)

	assert.Equal(t, "2024-03-05", resp.Date)
	assert.Equal(t, "2024-03-05T09:05:00+07:00", resp.PunchIn)
	require.NotNil(t, resp.PunchOut)
	assert.Equal(t, "2024-03-05T18:00:00+07:00", *resp.PunchOut)
	assert.Equal(t, int64(515*60), resp.WorkedSeconds)
	assert.Nil(t, resp.BreakStart)
}
