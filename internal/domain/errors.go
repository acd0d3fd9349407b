package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMode indicates an unrecognized translation mode.
	ErrInvalidMode = errors.New("invalid translation mode")

	// ErrRateLimited indicates that the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that an external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrCircuitOpen indicates that calls to a collaborator are short-circuited.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrTranslationFailed indicates that a translation could not be produced.
	ErrTranslationFailed = errors.New("translation failed")

	// ErrEmptyTranslation indicates that a translator returned no text.
	ErrEmptyTranslation = errors.New("empty translation")

	// ErrUnsupportedProvider indicates an unknown collaborator provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// CollaboratorError wraps a failure of an external collaborator (translator,
// language detector, romanizer).
type CollaboratorError struct {
	// Kind is the collaborator kind: "translate", "detect" or "romanize".
	Kind string
	// Provider is the provider name, e.g. "google".
	Provider string
	Cause    error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator %s failed: %v", e.Kind, e.Provider, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewCollaboratorError creates a new CollaboratorError.
func NewCollaboratorError(kind, provider string, cause error) *CollaboratorError {
	return &CollaboratorError{
		Kind:     kind,
		Provider: provider,
		Cause:    cause,
	}
}
