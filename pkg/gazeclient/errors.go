package gazeclient

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when a response body is not the expected JSON.
var ErrDecode = errors.New("gazeclient: malformed response")

// APIError represents an error response from the tracking service.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error field of the response, if any.
	Message string

	// Endpoint is the path that failed, e.g. "/getgaze".
	Endpoint string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gazeclient %s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("gazeclient %s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsServerError returns true for HTTP 5xx responses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsNotRunning returns true when the service reports that tracking is off.
// The service answers polls with 400 while its camera is closed.
func (e *APIError) IsNotRunning() bool {
	return e.StatusCode == 400
}
