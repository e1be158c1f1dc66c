package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns to a handler matches one of these
// through errors.Is, or is treated as internal.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a classified error. Message is safe to show to clients.
type Error struct {
	Kind    error
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NotFound reports a missing entity.
func NotFound(entity string) error {
	return &Error{Kind: ErrNotFound, Message: entity + " not found"}
}

// Conflict reports a uniqueness violation on field.
func Conflict(entity, field, value string) error {
	return &Error{
		Kind:    ErrConflict,
		Message: fmt.Sprintf("%s with %s %q already exists", entity, field, value),
	}
}

// Forbidden reports an authenticated caller that may not perform the action.
func Forbidden(reason string) error {
	return &Error{Kind: ErrForbidden, Message: reason}
}

// Unauthorized reports a caller that could not be authenticated.
func Unauthorized(reason string) error {
	return &Error{Kind: ErrUnauthorized, Message: reason}
}

// Invalid reports malformed input, optionally with one reason per problem.
func Invalid(message string, details ...string) error {
	return &Error{Kind: ErrValidation, Message: message, Details: details}
}

// Wrap classifies cause under kind with a client-safe message.
func Wrap(kind error, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Details returns the reason list carried by err, if any.
func Details(err error) []string {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// Message returns the client-safe message carried by err, or "" when err is unclassified.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
