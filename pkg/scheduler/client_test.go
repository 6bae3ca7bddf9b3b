package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "cal_live_abcd1234", EventTypeID: 42, TimeZone: "Asia/Kolkata"}, nil)
}

func TestFreeSlotsMergesBookings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer cal_live_abcd1234", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-06-11", r.Header.Get("cal-api-version"))
		switch r.URL.Path {
		case "/v2/schedules":
			io.WriteString(w, `{"status":"success","data":[{"id":1,"name":"Working hours"}]}`)
		case "/v2/bookings":
			io.WriteString(w, `{"data":{"bookings":[
				{"startTime":"2026-03-01T10:00:00Z","endTime":"2026-03-01T10:30:00Z"},
				{"startTime":"2026-03-01T11:00:00Z"}
			]}}`)
		default:
			http.NotFound(w, r)
		}
	})

	slots, err := c.FreeSlots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slots.BookingsError)

	data := slots.Document["data"].([]any)
	require.Len(t, data, 2, "a booking without an end is skipped")
	assert.Equal(t, map[string]any{
		"start": "2026-03-01T10:00:00Z",
		"end":   "2026-03-01T10:30:00Z",
		"type":  "unavailable",
	}, data[1])
	assert.Equal(t, "success", slots.Document["status"])
}

func TestFreeSlotsBookingsFailureKeepsSchedules(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/bookings" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"data":[{"id":1}]}`)
	})

	slots, err := c.FreeSlots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Failed to fetch bookings, status code: 502", slots.BookingsError)
	assert.Len(t, slots.Document["data"], 1)
}

func TestFreeSlotsBookingsTransportFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/bookings" {
			if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
				conn.Close()
			}
			return
		}
		io.WriteString(w, `{"data":[{"id":1}]}`)
	})

	slots, err := c.FreeSlots(context.Background())
	assert.Nil(t, slots)
	var se *apperrors.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Failed to connect to Cal.com API", se.Message())
}

func TestFreeSlotsUnparsableBookings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/bookings" {
			io.WriteString(w, `not json`)
			return
		}
		io.WriteString(w, `{"data":[{"id":1}]}`)
	})

	_, err := c.FreeSlots(context.Background())
	assert.ErrorIs(t, err, ErrUnparsableResponse)
}

func TestFreeSlotsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FreeSlots(context.Background())
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Unauthorized())
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient(Config{}, nil)
	assert.False(t, c.Configured())

	_, err := c.FreeSlots(context.Background())
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
	_, err = c.CreateBooking(context.Background(), BookingRequest{Name: "Ada"})
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestCreateBooking(t *testing.T) {
	var got BookingPayload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/bookings", r.URL.Path)
		assert.Equal(t, "2024-08-13", r.Header.Get("cal-api-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"status":"success","data":{"uid":"bk_1"}}`)
	})

	body, err := c.CreateBooking(context.Background(), BookingRequest{
		Name: "Ada", Email: "ada@example.com", Phone: "+15550100", Start: "2026-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","data":{"uid":"bk_1"}}`, string(body))

	assert.Equal(t, BookingPayload{
		Start: "2026-03-01T10:00:00Z",
		Attendee: Attendee{
			Name: "Ada", Email: "ada@example.com", PhoneNumber: "+15550100",
			Language: "en", TimeZone: "Asia/Kolkata",
		},
		EventTypeID: 42,
	}, got)
}

func TestCreateBookingRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"slot taken"}`)
	})

	_, err := c.CreateBooking(context.Background(), BookingRequest{Name: "Ada", Start: "2026-03-01T10:00:00Z"})
	var rejected *BookingRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Equal(t, `{"error":"slot taken"}`, rejected.Body)
	assert.Equal(t, 42, rejected.Payload.EventTypeID)
}

func TestTransportFailureIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, nil)

	_, err := c.FreeSlots(context.Background())
	var se *apperrors.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "cal.com", se.Service)
}
