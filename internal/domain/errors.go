package domain

import (
	"errors"
	"fmt"
)

// Sentinels used across store, service and transport layers for stable error mapping.
var (
	// ErrValidation indicates malformed or missing required input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the referenced bookmark does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates an optimistic concurrency failure (stale version).
	ErrConflict = errors.New("version conflict")

	// ErrStore indicates a persistence operation failed after the connection was established.
	ErrStore = errors.New("store operation failed")

	// ErrConnection indicates the database is unreachable or misconfigured.
	ErrConnection = errors.New("database connection failed")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
