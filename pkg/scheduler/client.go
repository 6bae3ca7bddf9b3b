// Package scheduler is a small client for the Cal.com v2 API used by the
// gateway's scheduling routes.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
)

const (
	schedulesAPIVersion = "2024-06-11"
	bookingsAPIVersion  = "2024-08-13"

	// SetupInfo tells operators where API keys come from.
	SetupInfo = "Get your API key from https://app.cal.com/settings/developer/api-keys"
)

// ErrAPIKeyMissing is returned by every call when no API key is configured.
var ErrAPIKeyMissing = errors.New("CAL_API_KEY environment variable not set. Please configure your Cal.com API key.")

// ErrUnparsableResponse is wrapped by errors for a response body that is not
// the expected JSON.
var ErrUnparsableResponse = errors.New("Failed to parse response from Cal.com")

func parseError(status int, err error) error {
	return apperrors.NewServiceError("cal.com", ErrUnparsableResponse.Error(), status, errors.Join(ErrUnparsableResponse, err))
}

// Config holds the client settings.
type Config struct {
	// BaseURL defaults to https://api.cal.com
	BaseURL     string
	APIKey      string
	EventTypeID int
	// TimeZone is sent as the attendee time zone on bookings.
	TimeZone string
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
}

// Client talks to the scheduling API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logging.ColoredLogger
}

// NewClient creates a client. A missing API key is not an error here so the
// gateway can start and report it per request.
func NewClient(cfg Config, logger *logging.ColoredLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cal.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// UpstreamError is a non-success HTTP status from the scheduling API.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s, status code: %d", e.Operation, e.StatusCode)
}

// Unauthorized reports whether the API rejected the key.
func (e *UpstreamError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (c *Client) do(ctx context.Context, method, path, apiVersion string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("cal-api-version", apiVersion)

	c.logger.ComponentDebug(logging.ComponentScheduler, "Calling scheduling API",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("api_key", logging.MaskSecret(c.cfg.APIKey)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, apperrors.NewServiceError("cal.com", "Failed to connect to Cal.com API", 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, nil, apperrors.NewServiceError("cal.com", "Failed to read Cal.com response", resp.StatusCode, err)
	}
	c.logger.ComponentDebug(logging.ComponentScheduler, "Scheduling API responded",
		zap.String("path", path), zap.Int("status", resp.StatusCode))
	return resp.StatusCode, data, nil
}

// Slots is the schedules document with booked intervals appended to its
// "data" list as {start, end, type: "unavailable"} entries.
type Slots struct {
	Document map[string]any
	// BookingsError is set when the bookings request was answered with a
	// non-200 status; the document then holds the schedules only.
	BookingsError string
}

// FreeSlots loads schedules and marks existing bookings as unavailable.
func (c *Client) FreeSlots(ctx context.Context) (*Slots, error) {
	if !c.Configured() {
		return nil, ErrAPIKeyMissing
	}

	status, body, err := c.do(ctx, http.MethodGet, "/v2/schedules", schedulesAPIVersion, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		c.logger.ComponentWarn(logging.ComponentScheduler, "Schedules request rejected", zap.Int("status", status))
		return nil, &UpstreamError{Operation: "Failed to fetch schedules", StatusCode: status, Body: string(body)}
	}
	doc := map[string]any{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, parseError(status, err)
	}

	// Only an answered bookings request degrades to schedules alone; a
	// transport or parse failure fails the whole request.
	status, body, err = c.do(ctx, http.MethodGet, "/v2/bookings", schedulesAPIVersion, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.ComponentWarn(logging.ComponentScheduler, "Failed to fetch bookings", zap.Int("status", status))
		return &Slots{Document: doc, BookingsError: fmt.Sprintf("Failed to fetch bookings, status code: %d", status)}, nil
	}

	busy, err := bookedIntervals(body)
	if err != nil {
		return nil, parseError(status, err)
	}
	if len(busy) > 0 {
		list, ok := doc["data"].([]any)
		if doc["data"] == nil {
			ok = true
		}
		if ok {
			for _, b := range busy {
				list = append(list, b)
			}
			doc["data"] = list
		} else {
			c.logger.ComponentWarn(logging.ComponentScheduler, "Schedules data is not a list; bookings not merged")
		}
	}
	c.logger.ComponentInfo(logging.ComponentScheduler, "Fetched free slots", zap.Int("bookings", len(busy)))
	return &Slots{Document: doc}, nil
}

type booking struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// bookedIntervals accepts both {"data":{"bookings":[...]}} and
// {"data":[...]} and keeps bookings that have a start and an end. Only a
// body that is not a JSON object is an error; other shapes yield nothing.
func bookedIntervals(body []byte) ([]map[string]any, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 {
		return nil, nil
	}
	var list []booking
	var nested struct {
		Bookings []booking `json:"bookings"`
	}
	if err := json.Unmarshal(envelope.Data, &nested); err == nil {
		list = nested.Bookings
	} else if err := json.Unmarshal(envelope.Data, &list); err != nil {
		return nil, nil
	}

	out := make([]map[string]any, 0, len(list))
	for _, b := range list {
		start, end := b.StartTime, b.EndTime
		if start == "" {
			start = b.Start
		}
		if end == "" {
			end = b.End
		}
		if start == "" || end == "" {
			continue
		}
		out = append(out, map[string]any{"start": start, "end": end, "type": "unavailable"})
	}
	return out, nil
}

// BookingRequest is an attendee asking for a slot.
type BookingRequest struct {
	Name  string
	Email string
	Phone string
	Start string
}

// Attendee is the attendee block of a booking payload.
type Attendee struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Language    string `json:"language"`
	TimeZone    string `json:"timeZone"`
}

// BookingPayload is what is sent to the bookings endpoint.
type BookingPayload struct {
	Start       string   `json:"start"`
	Attendee    Attendee `json:"attendee"`
	EventTypeID int      `json:"eventTypeId"`
}

// BookingRejectedError carries the upstream status and the payload that was
// sent, for the caller to show.
type BookingRejectedError struct {
	UpstreamError
	Payload BookingPayload
}

// Payload builds the booking payload for req.
func (c *Client) Payload(req BookingRequest) BookingPayload {
	return BookingPayload{
		Start: req.Start,
		Attendee: Attendee{
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: req.Phone,
			Language:    "en",
			TimeZone:    c.cfg.TimeZone,
		},
		EventTypeID: c.cfg.EventTypeID,
	}
}

// CreateBooking books req and returns the upstream document on 201.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrAPIKeyMissing
	}
	payload := c.Payload(req)
	c.logger.ComponentInfo(logging.ComponentScheduler, "Creating booking",
		zap.String("start", req.Start), zap.Int("event_type_id", payload.EventTypeID))

	status, body, err := c.do(ctx, http.MethodPost, "/v2/bookings", bookingsAPIVersion, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		c.logger.ComponentError(logging.ComponentScheduler, "Booking rejected",
			zap.Int("status", status), zap.String("body", string(body)))
		return nil, &BookingRejectedError{
			UpstreamError: UpstreamError{Operation: "Failed to create booking", StatusCode: status, Body: string(body)},
			Payload:       payload,
		}
	}
	if !json.Valid(body) {
		return nil, apperrors.NewServiceError("cal.com", "Failed to parse response from Cal.com", status, nil)
	}
	return json.RawMessage(body), nil
}
