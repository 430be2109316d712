package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrEventInactive is returned when booking an event that has been deactivated.
var ErrEventInactive = errors.New("event is no longer active")

// ErrInsufficientCapacity is returned when a bounded event cannot cover a request.
var ErrInsufficientCapacity = errors.New("insufficient seats available")

// ErrForbidden is returned when the caller does not own the target resource.
var ErrForbidden = errors.New("forbidden")

// ErrActiveEventLimit is returned when an organizer already runs the maximum
// number of active events.
var ErrActiveEventLimit = errors.New("active event limit reached")

// ErrDuplicateUser is returned when the email or phone is already registered.
var ErrDuplicateUser = errors.New("user with this email or phone already exists")

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// ErrPassRevoked is returned when a pass verifies cryptographically but no
// live booking carries it any more.
var ErrPassRevoked = errors.New("no matching booking for pass")

// InsufficientCapacityError carries the remaining seat count so callers can
// tell the client how many seats are left.
type InsufficientCapacityError struct {
	Remaining int
	Requested int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient seats available: requested %d, %d remaining", e.Requested, e.Remaining)
}

// Is lets errors.Is match ErrInsufficientCapacity.
func (e *InsufficientCapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// ValidationError describes malformed or missing input. It is always safe to
// show its message to the client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
