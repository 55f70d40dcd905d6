package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrURLRequired indicates a required URL field is empty.
	ErrURLRequired = errors.New("url is required")

	// ErrInvalidURL indicates a malformed URL.
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrCredentialsRequired indicates missing Xtream credentials.
	ErrCredentialsRequired = errors.New("username and password are required")

	// ErrSourceIDRequired indicates a required source ID field is zero.
	ErrSourceIDRequired = errors.New("source_id is required")

	// ErrInvalidContentType indicates an unknown content type.
	ErrInvalidContentType = errors.New("invalid content type: must be 'live', 'movie' or 'series'")

	// ErrStreamIDRequired indicates a required stream ID field is zero.
	ErrStreamIDRequired = errors.New("stream_id is required")

	// ErrCategoryIDRequired indicates a required category ID field is empty.
	ErrCategoryIDRequired = errors.New("category_id is required")

	// ErrNoActiveSource indicates no source is currently marked active.
	ErrNoActiveSource = errors.New("no active source configured")

	// ErrAuthenticationFailed indicates the provider rejected the
	// configured credentials.
	ErrAuthenticationFailed = errors.New("provider authentication failed")
)
