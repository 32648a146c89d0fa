package queue

import "errors"

// Sentinel errors for queue operations. Callers match them with errors.Is;
// the engine wraps them with the offending identifier or bound.
var (
	// ErrCapacityExceeded indicates an insert into a heap at its fixed bound
	ErrCapacityExceeded = errors.New("queue is at capacity")

	// ErrEmpty indicates an extraction or peek on a heap with no entries
	ErrEmpty = errors.New("queue is empty")

	// ErrNotFound indicates a reprioritize for an identifier that is not queued
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidPriority indicates a priority outside the configured range
	ErrInvalidPriority = errors.New("priority out of range")

	// ErrDuplicateID indicates an insert of an identifier that is already queued
	ErrDuplicateID = errors.New("identifier already queued")
)
