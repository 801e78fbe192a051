package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound       = errors.New("not found")
	ErrDeviceNotFound = errors.New("no device registered for user")
	ErrJobNotFound    = errors.New("no pending job with that key")
	ErrMissingEventID = errors.New("eventId must not be empty")
	ErrMissingUserID  = errors.New("userId must not be empty")
	ErrMissingTitle   = errors.New("title must not be empty")
	ErrMissingTime    = errors.New("eventTime must be a valid instant")
	ErrNegativeLead   = errors.New("reminderMinutesBefore must be >= 0")
	ErrMissingToken   = errors.New("pushToken must not be empty")
)

// SchedulingError marks an infrastructure failure while enqueueing a reminder.
// The triggering event write has already committed by the time scheduling runs,
// so callers log this error instead of failing the request.
type SchedulingError struct {
	EventID string
	Cause   error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("reminder scheduling failed for event %s: %v", e.EventID, e.Cause)
}

func (e *SchedulingError) Unwrap() error { return e.Cause }

// TransientError marks a failure a retry could plausibly fix (provider call
// failed, store unreachable). The worker returns it to the job store so the
// store's backoff policy takes over; every other delivery termination is a
// successful completion.
type TransientError struct {
	Op    string
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// IsTransient reports whether err carries a TransientError anywhere in its chain.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
