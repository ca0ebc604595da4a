package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire format every API endpoint speaks:
// {"status": "success"|"error", "data": ..., "message": ...}.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with optional data and message.
func WriteSuccess(w http.ResponseWriter, code int, data any, message string) {
	WriteJSON(w, code, Envelope{Status: StatusSuccess, Data: data, Message: message})
}

// WriteError writes an error envelope with a user-facing message.
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Envelope{Status: StatusError, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Required for responses that carry tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
