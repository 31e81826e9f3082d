package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedSourceKind is returned for a kind outside the closed kind set.
	ErrUnsupportedSourceKind = errors.New("unsupported source kind")

	// ErrMissingPrompt is returned when a rendered source has no prompt parameter.
	ErrMissingPrompt = errors.New("rendered source requires a prompt parameter")

	// ErrInvalidParams indicates a malformed source parameter bag.
	ErrInvalidParams = errors.New("invalid source parameters")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
