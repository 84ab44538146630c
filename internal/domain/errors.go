package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes an Error so callers can decide between retry,
// fallback, and user-facing messaging without string matching.
type ErrorKind string

const (
	// ErrorKindValidation indicates malformed caller input. The operation
	// had no side effects.
	ErrorKindValidation ErrorKind = "validation"

	// ErrorKindNotFound indicates a missing claim, patient, provider, or
	// other stored record.
	ErrorKindNotFound ErrorKind = "not_found"

	// ErrorKindConfiguration indicates an internal registry or descriptor
	// bug, such as an unrecognized provider family. Always fatal to the
	// call, never silently defaulted.
	ErrorKindConfiguration ErrorKind = "configuration"

	// ErrorKindServiceUnavailable indicates a transport-level failure
	// reaching the inference endpoint. Recoverable by retrying later.
	ErrorKindServiceUnavailable ErrorKind = "service_unavailable"

	// ErrorKindModelUnavailable indicates the requested model is not
	// deployed on the target endpoint. Correctable by the caller.
	ErrorKindModelUnavailable ErrorKind = "model_unavailable"

	// ErrorKindResponseFormat indicates the endpoint responded in an
	// unexpected shape, signalling a provider API contract change.
	ErrorKindResponseFormat ErrorKind = "response_format"
)

// Error is the canonical error type surfaced by the audit core and the
// storage layer. It carries enough structure (kind, resource, model,
// endpoint) for handlers to map it to an HTTP status and for callers to
// act on it programmatically.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`

	// Resource names the missing record for not_found errors
	// ("claim", "patient", "provider", ...).
	Resource string `json:"resource,omitempty"`

	// Model and Endpoint identify the offending model id and inference
	// endpoint for model_unavailable and service_unavailable errors.
	Model    string `json:"model,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	// Err is the wrapped cause, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode maps the error kind to an HTTP status.
func (e *Error) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindNotFound, ErrorKindModelUnavailable:
		return http.StatusNotFound
	case ErrorKindResponseFormat:
		return http.StatusBadGateway
	case ErrorKindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithCause attaches a wrapped cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(format string, args ...any) *Error {
	return &Error{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a not_found error for the named resource.
func ErrNotFound(resource string, format string, args ...any) *Error {
	return &Error{
		Kind:     ErrorKindNotFound,
		Resource: resource,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ErrConfiguration creates a configuration error.
func ErrConfiguration(format string, args ...any) *Error {
	return &Error{Kind: ErrorKindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// ErrServiceUnavailable creates a service_unavailable error for the given
// endpoint.
func ErrServiceUnavailable(endpoint string, format string, args ...any) *Error {
	return &Error{
		Kind:     ErrorKindServiceUnavailable,
		Endpoint: endpoint,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ErrModelUnavailable creates a model_unavailable error naming both the
// model id and the endpoint that rejected it.
func ErrModelUnavailable(model, endpoint string) *Error {
	return &Error{
		Kind:     ErrorKindModelUnavailable,
		Model:    model,
		Endpoint: endpoint,
		Message:  fmt.Sprintf("model %q is not available on endpoint %s", model, endpoint),
	}
}

// ErrResponseFormat creates a response_format error.
func ErrResponseFormat(format string, args ...any) *Error {
	return &Error{Kind: ErrorKindResponseFormat, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of err, or an empty kind when err is not a
// *domain.Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a *domain.Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// AsError unwraps err to a *domain.Error if one is in its chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
