package session

import "errors"

// Lifecycle errors. They are returned wrapped; test with errors.Is.
var (
	// ErrAlreadyActive is returned by Start when a session is not idle.
	ErrAlreadyActive = errors.New("session: tracking already active")

	// ErrNotActive is returned by Stop when no session is running.
	ErrNotActive = errors.New("session: tracking not active")

	// ErrTrackingUnavailable is returned when the service refused to start.
	ErrTrackingUnavailable = errors.New("session: tracking unavailable")

	// ErrStopFailure is returned when the service failed to stop. The
	// controller is idle regardless; local state wins over remote state.
	ErrStopFailure = errors.New("session: stop request failed")
)
