package domain

import "errors"

var (
	// ErrInsufficientStock is returned when a decrement would take a
	// product's quantity below zero. Not retryable.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCapacityExceeded is returned when a reservation would overflow a
	// location's maximum capacity. Callers may retry with a smaller amount.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidTransition is returned when a status update does not follow
	// the pending -> queued -> processed sequence.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateName is returned on a unique-constraint violation for a
	// product or location name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrNotFound is returned for lookups by unknown identifier or name.
	ErrNotFound = errors.New("not found")
)
