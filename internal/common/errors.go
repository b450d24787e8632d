package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies domain errors. Anything that is not an *AppError is an
// infrastructure failure.
type ErrorKind string

const (
	KindValidation             ErrorKind = "VALIDATION_ERROR"
	KindConflict               ErrorKind = "CONFLICT"
	KindInvalidTransition      ErrorKind = "INVALID_TRANSITION"
	KindImmutableField         ErrorKind = "IMMUTABLE_FIELD"
	KindNotFound               ErrorKind = "NOT_FOUND"
	KindAuthenticationRequired ErrorKind = "UNAUTHORIZED"
)

// AppError is a local validation outcome surfaced to the caller. It is never retried.
type AppError struct {
	Kind    ErrorKind         `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for field, msg := range e.Details {
		parts = append(parts, field+": "+msg)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is matches on kind so callers can write errors.Is(err, common.ErrNotFound)
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons
var (
	ErrValidation             = &AppError{Kind: KindValidation, Message: "Validation failed"}
	ErrConflict               = &AppError{Kind: KindConflict, Message: "Resource already exists"}
	ErrInvalidTransition      = &AppError{Kind: KindInvalidTransition, Message: "Invalid status transition"}
	ErrImmutableField         = &AppError{Kind: KindImmutableField, Message: "Field cannot be modified"}
	ErrNotFound               = &AppError{Kind: KindNotFound, Message: "Not found"}
	ErrAuthenticationRequired = &AppError{Kind: KindAuthenticationRequired, Message: "Authentication credentials were not provided"}
)

// NewValidationError reports a single invalid field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "Validation failed",
		Details: map[string]string{field: message},
	}
}

// NewValidationErrors reports several invalid fields at once
func NewValidationErrors(details map[string]string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "Validation failed",
		Details: details,
	}
}

func NewConflictError(field, message string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Message: message,
		Details: map[string]string{field: message},
	}
}

func NewInvalidTransitionError(message string) *AppError {
	return &AppError{
		Kind:    KindInvalidTransition,
		Message: message,
		Details: map[string]string{"status": message},
	}
}

// NewImmutableFieldError names every field the caller tried to change
func NewImmutableFieldError(fields []string) *AppError {
	details := make(map[string]string, len(fields))
	for _, f := range fields {
		details[f] = "cannot be modified after creation"
	}
	return &AppError{
		Kind:    KindImmutableField,
		Message: fmt.Sprintf("Only status field can be updated. Immutable fields: %s", strings.Join(fields, ", ")),
		Details: details,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewAuthenticationRequiredError(message string) *AppError {
	return &AppError{
		Kind:    KindAuthenticationRequired,
		Message: message,
	}
}

// AsAppError extracts the domain error, if any
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusCode maps an error to the HTTP status the API surface returns for it
func StatusCode(err error) int {
	appErr, ok := AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthenticationRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
