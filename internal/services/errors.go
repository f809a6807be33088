package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so handlers can map them to responses.
type ErrorKind string

const (
	ErrInvalidInput  ErrorKind = "INVALID_INPUT"
	ErrNotFound      ErrorKind = "NOT_FOUND"
	ErrUnknownRef    ErrorKind = "UNKNOWN_REFERENCE"
	ErrInvalidSnap   ErrorKind = "INVALID_SNAPSHOT"
	ErrEmptyOrdering ErrorKind = "EMPTY_ORDERING"

	// Parser-local kinds; they never leave the ingestion pipeline as errors.
	ErrMalformedJSON ErrorKind = "MALFORMED_JSON"
	ErrMissingField  ErrorKind = "MISSING_FIELD"
	ErrTypeCoercion  ErrorKind = "TYPE_COERCION_FAILURE"

	// Rejection kinds reported by the ingestion pipeline.
	ErrSuggestionBad   ErrorKind = "SUGGESTION_REJECTED"
	ErrProviderFailed  ErrorKind = "PROVIDER_FAILURE"
	ErrProviderTimeout ErrorKind = "PROVIDER_TIMEOUT"
	ErrNotConfigured   ErrorKind = "PROVIDER_NOT_CONFIGURED"
)

// AppError carries a kind, a message and, for parse failures, the offending fragment.
type AppError struct {
	Kind     ErrorKind
	Message  string
	Fragment string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
