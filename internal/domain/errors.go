package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	// Validation family: bad input, no state change.
	ErrUnknownBusiness        = errors.New("unknown business")
	ErrBusinessIDRequired     = errors.New("business_id is required")
	ErrNameTooLong            = errors.New("name must be at most 256 characters")
	ErrInvalidTriggerDistance = errors.New("trigger distance must be positive")
	ErrInvalidStatus          = errors.New("status must be one of waiting, notified, serving, done, skipped, abandoned")
	ErrEntryNotActive         = errors.New("entry is no longer in the queue")

	// Not-found family: unknown identifiers, no state change.
	ErrEntryNotFound = errors.New("queue entry not found")
	ErrAlertNotFound = errors.New("proximity alert not found")

	// The dispatch queue applies back-pressure instead of blocking callers.
	ErrDispatchFull = errors.New("dispatch queue is at capacity, try again later")
)

// InvalidTransitionError reports an illegal lifecycle move. The entry is
// left unchanged; the caller may retry with a valid transition.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}
