// Package apperror defines the domain errors shared by the service and
// repository layers. The handler layer maps them onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// NonFieldErrors is the key used for validation messages that don't belong
// to a single input field (e.g. "unable to authenticate").
const NonFieldErrors = "non_field_errors"

type AppError struct {
	Err     error               // actual error
	Message string              // Human-readable error message
	Field   string              // Optional: field causing the error
	Fields  map[string][]string // Optional: per-field validation messages
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a single invalid field. Fields is populated too,
// so clients always find messages under the same key.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller could not be identified.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// FieldErrors collects validation messages for several fields so a single
// response can report every problem with a payload at once.
//
//	var fe apperror.FieldErrors
//	fe.Add("title", "This field is required.")
//	if err := fe.Err(); err != nil { ... }
type FieldErrors map[string][]string

// Add records a message against field.
func (fe *FieldErrors) Add(field, message string) {
	if *fe == nil {
		*fe = make(FieldErrors)
	}
	(*fe)[field] = append((*fe)[field], message)
}

// Err returns nil when nothing was collected, otherwise an *AppError
// wrapping ErrValidation. The message comes from the alphabetically first
// field so it is stable across runs.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return Invalid(fe)
}

// Invalid builds a validation AppError from a set of field messages.
func Invalid(fields FieldErrors) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	first := names[0]
	msg := first + ": " + fields[first][0]
	if first == NonFieldErrors {
		msg = fields[first][0]
	}

	copied := make(map[string][]string, len(fields))
	for k, v := range fields {
		copied[k] = append([]string(nil), v...)
	}

	return &AppError{
		Err:     ErrValidation,
		Message: msg,
		Field:   first,
		Fields:  copied,
	}
}
