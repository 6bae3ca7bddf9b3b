package gateway

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/noforma/pkg/httputil"
	"github.com/DeBrosOfficial/noforma/pkg/logging"
	"github.com/DeBrosOfficial/noforma/pkg/scheduler"
)

// freeSlotsHandler proxies the scheduling API's schedules with existing
// bookings marked unavailable.
func (g *Gateway) freeSlotsHandler(w http.ResponseWriter, r *http.Request) {
	if !g.schedulerReady(w) {
		return
	}
	slots, err := g.deps.Scheduler.FreeSlots(r.Context())
	if err != nil {
		var upstream *scheduler.UpstreamError
		switch {
		case errors.As(err, &upstream) && upstream.Unauthorized():
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]any{
				"error":       "Unauthorized: Invalid Cal.com API key",
				"status_code": http.StatusUnauthorized,
				"setup_info":  "Please check your CAL_API_KEY environment variable. " + scheduler.SetupInfo,
			})
		case errors.Is(err, scheduler.ErrUnparsableResponse):
			g.logger.ComponentError(logging.ComponentScheduler, "Unparsable scheduling API response", zap.Error(err))
			httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
				"error": scheduler.ErrUnparsableResponse.Error(),
			})
		default:
			g.logger.ComponentError(logging.ComponentScheduler, "Failed to fetch free slots", zap.Error(err))
			httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
				"error":              "Failed to fetch data from Cal.com API",
				"details":            err.Error(),
				"api_key_configured": g.deps.Scheduler.Configured(),
			})
		}
		return
	}
	if slots.BookingsError != "" {
		// Bookings were refused but schedules loaded, so this is still a 200.
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"error":          slots.BookingsError,
			"schedules_data": slots.Document,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, slots.Document)
}

// newScheduleHandler books a slot. The body must be declared as JSON and
// carry name, email, phone and start.
func (g *Gateway) newScheduleHandler(w http.ResponseWriter, r *http.Request) {
	if !g.schedulerReady(w) {
		return
	}
	if !httputil.IsJSON(r) {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "Request must be JSON with Content-Type: application/json"})
		return
	}
	var body map[string]any
	if err := httputil.DecodeJSON(r, &body); err != nil || len(body) == 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "No JSON data provided"})
		return
	}
	if missing := httputil.MissingKeys(body, "name", "email", "phone", "start"); len(missing) > 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing required field: " + missing[0]})
		return
	}
	req := scheduler.BookingRequest{
		Name:  stringField(body, "name"),
		Email: stringField(body, "email"),
		Phone: stringField(body, "phone"),
		Start: stringField(body, "start"),
	}

	booking, err := g.deps.Scheduler.CreateBooking(r.Context(), req)
	if err != nil {
		var rejected *scheduler.BookingRejectedError
		if errors.As(err, &rejected) {
			httputil.WriteJSON(w, rejected.StatusCode, map[string]any{
				"error":        rejected.Error(),
				"message":      rejected.Body,
				"payload_sent": rejected.Payload,
			})
			return
		}
		g.logger.ComponentError(logging.ComponentScheduler, "Booking request failed", zap.Error(err))
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to connect to Cal.com API",
			"details": err.Error(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(booking)
}

// schedulerReady answers the request itself when no API key is configured.
func (g *Gateway) schedulerReady(w http.ResponseWriter) bool {
	if g.deps.Scheduler != nil && g.deps.Scheduler.Configured() {
		return true
	}
	httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
		"error":      scheduler.ErrAPIKeyMissing.Error(),
		"setup_info": scheduler.SetupInfo,
	})
	return false
}

func stringField(body map[string]any, key string) string {
	if s, ok := body[key].(string); ok {
		return s
	}
	return ""
}
