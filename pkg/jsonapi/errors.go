package jsonapi

import (
	"errors"
	"fmt"
)

// Kind classifies the errors raised by this package.
type Kind string

const (
	// KindConfiguration is returned when a resource type has no registered adapter.
	KindConfiguration Kind = "CONFIGURATION"
	// KindValidation is returned when a setter receives an invalid value.
	KindValidation Kind = "VALIDATION"
	// KindMalformedDocument is returned when a document, relationship or
	// error object would render without any populated member.
	KindMalformedDocument Kind = "MALFORMED_DOCUMENT"
	// KindBadRequest is returned when the request parameters are invalid.
	// Parameter holds the offending query parameter.
	KindBadRequest Kind = "BAD_REQUEST"
)

// Error is the error type returned by this package.
type Error struct {
	Kind    Kind
	Message string

	// Parameter is the query parameter which caused a bad request.
	Parameter string
	// Resource is the resource type which is not supported by the request.
	Resource string

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// BadRequest creates a bad request error for the provided query parameter.
func BadRequest(parameter string, format string, args ...any) *Error {
	err := newError(KindBadRequest, format, args...)
	err.Parameter = parameter
	return err
}

// UnsupportedResource creates a bad request error for a resource type the
// endpoint does not serve.
func UnsupportedResource(resourceType string, format string, args ...any) *Error {
	err := newError(KindBadRequest, format, args...)
	err.Resource = resourceType
	return err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind extracts the kind from an error, or the empty kind.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
