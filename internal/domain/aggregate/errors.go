package aggregate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no events exist for the requested aggregate
	ErrNotFound = errors.New("aggregate not found")

	// ErrNotSupported is returned when the generic attribute-change path is
	// used for a field that carries extra invariants and has a dedicated
	// operation instead.
	ErrNotSupported = errors.New("operation not supported for this attribute")

	// ErrInvariantViolation is the base error for operations that are illegal
	// given the aggregate's current state.
	ErrInvariantViolation = errors.New("domain invariant violation")
)

// PublishError wraps an error raised by a bus subscriber after the
// aggregate's events were committed. The write itself succeeded; only a
// derived reaction (snapshot, projection, relay) failed. In particular a
// store.ErrVersionConflict inside a PublishError means a derived stream lost
// a race, not that the caller's own write was rejected.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("event subscriber failed after commit: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ValidationError reports a bad input value for a named field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError constructs a ValidationError for a field
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
