package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json and encodes the value as JSON.
// Any encoding errors are silently ignored (best-effort).
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the failure envelope.
// The response format is: {"success": false, "error": "message"}
func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, map[string]any{"success": false, "error": msg})
}

// WriteErrorWithFields writes the failure envelope with extra top-level fields
// (e.g. "code", "transaction_hash").
func WriteErrorWithFields(w http.ResponseWriter, code int, msg string, fields map[string]any) {
	response := map[string]any{"success": false, "error": msg}
	for k, v := range fields {
		response[k] = v
	}
	WriteJSON(w, code, response)
}

// WriteSuccess writes a success envelope wrapping data.
// The response format is: {"success": true, "data": ...}
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

// WriteSuccessWithFields writes a success envelope with top-level fields.
// The response format is: {"success": true, ...fields}
func WriteSuccessWithFields(w http.ResponseWriter, fields map[string]any) {
	response := map[string]any{"success": true}
	for k, v := range fields {
		response[k] = v
	}
	WriteJSON(w, http.StatusOK, response)
}
