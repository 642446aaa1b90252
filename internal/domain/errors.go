package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Services and handlers branch on these with errors.Is;
// the typed errors below unwrap to them so callers can match either way.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError reports an invalid field in a request or entity.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError builds a NotFoundError for the given entity and ID.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyExistsError identifies a uniqueness conflict.
type AlreadyExistsError struct {
	Entity string
	ID     string
}

// NewAlreadyExistsError builds an AlreadyExistsError for the given entity and ID.
func NewAlreadyExistsError(entity, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Entity: entity, ID: id}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.ID)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// RateLimitError carries the provider name and the retry hint from a 429
// response so the API layer can forward a Retry-After header.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// NewRateLimitError builds a RateLimitError for the given provider.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Source: source, RetryAfter: retryAfter}
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ExternalAPIError wraps a failed call to an upstream provider.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// NewExternalAPIError builds an ExternalAPIError for the given provider call.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{Source: source, StatusCode: statusCode, Message: message, Cause: cause}
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

func (e *ExternalAPIError) Unwrap() error { return e.Cause }
