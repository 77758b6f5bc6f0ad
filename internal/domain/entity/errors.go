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

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// Storage errors returned by the repository layer.
var (
	// ErrDuplicateKey indicates that an entity with the same primary or natural key already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageUnavailable indicates that the datastore could not serve the request
	// (connection closed, database busy past its timeout, operation deadline exceeded).
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Provider errors. Every content provider backend maps its own failure shapes
// into exactly one of these kinds so callers never branch on backend identity.
var (
	// ErrProviderUnavailable covers network, authentication, rate limit and 5xx failures,
	// and requests rejected locally by an open circuit breaker.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderRejected covers content-policy refusals and invalid-parameter responses.
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrProviderTimeout indicates the provider did not answer within the call deadline.
	ErrProviderTimeout = errors.New("provider timeout")
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

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ProviderError is returned by content provider backends.
// Kind is one of ErrProviderUnavailable, ErrProviderRejected or ErrProviderTimeout.
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

// Error returns "<provider>: <kind>: <cause>".
func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider string, kind, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: cause}
}

// ProviderErrorKind reports which provider error kind err carries, or nil.
func ProviderErrorKind(err error) error {
	switch {
	case errors.Is(err, ErrProviderTimeout):
		return ErrProviderTimeout
	case errors.Is(err, ErrProviderRejected):
		return ErrProviderRejected
	case errors.Is(err, ErrProviderUnavailable):
		return ErrProviderUnavailable
	default:
		return nil
	}
}
