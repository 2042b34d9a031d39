// Package apperr defines the typed errors shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the API layer can map it to a status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindValidation
	KindDuplicate
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindStorage
)

// Error carries a kind, a caller-safe message and, for validation
// failures, the per-field messages.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidArgument reports bad caller input outside the structured
// post validator (empty names, malformed paging values, and so on).
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a structured validation failure listing every
// violated field.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// Duplicate reports a uniqueness violation (category name, user email).
func Duplicate(format string, args ...any) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated reports a missing, invalid or expired credential.
func Unauthenticated(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports an authenticated caller acting outside their rights.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an unexpected persistence failure. The wrapped error is
// for logs only and must not reach the client.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage failure", Err: err}
}

// KindOf extracts the kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldsOf returns the per-field messages of a validation error, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
