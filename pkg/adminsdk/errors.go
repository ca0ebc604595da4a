package adminsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNoRefreshToken is returned by Refresh when the store holds no
// refresh token. No network call is made in that case.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// APIError is a server-reported failure. Message carries the server's
// envelope message verbatim so UIs can surface it as-is.
type APIError struct {
	// StatusCode is the HTTP status the server responded with
	StatusCode int

	// Message is the human-readable message from the error envelope
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether the server rejected the credentials or
// token outright.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// parseErrorResponse builds an *APIError from a non-success response
// body. Bodies that aren't a valid envelope still produce a usable
// error with a generic message.
func parseErrorResponse(statusCode int, body []byte) *APIError {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return &APIError{StatusCode: statusCode, Message: env.Message}
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}
}
