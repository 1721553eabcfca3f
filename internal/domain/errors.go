package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a missing or malformed submission field.
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable signals that the review store cannot serve the request.
	ErrStoreUnavailable = errors.New("review store unavailable")
	// ErrCorruptRecord signals a stored record that cannot be mapped back to a review.
	ErrCorruptRecord = errors.New("corrupt review record")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// FieldError describes a single invalid form field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// NewFieldError creates a validation error for a named field.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}
