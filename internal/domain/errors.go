package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common relay failures; everything else wraps them with
// fmt.Errorf("...: %w", err) so callers can test with errors.Is.
var (
	// ErrValidation marks a malformed envelope or request. Nothing is
	// persisted or broadcast when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an operation that targeted a message or blob which
	// is not present.
	ErrNotFound = errors.New("requested resource not found")
)
