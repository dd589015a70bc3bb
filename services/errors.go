package services

import "errors"

// Sentinel errors returned by the service layer. Route handlers map these to
// HTTP status codes; everything else is treated as an internal error.
var (
	// ErrNotFound means the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidArgument means the input failed validation
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrForbidden means the caller is not allowed to perform the operation
	ErrForbidden = errors.New("operation not allowed")

	// ErrConflict means the operation lost a race with a concurrent update or
	// violates a uniqueness constraint
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition means the requested status change is not a legal
	// lifecycle step from the booking's current state
	ErrInvalidTransition = errors.New("invalid status transition")
)
