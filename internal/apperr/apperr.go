// Package apperr defines the error taxonomy shared across the gateway
// (SPEC_FULL.md §7). Handlers return these kinds; the Gateway's global
// error middleware maps them to HTTP status codes without inspecting
// error strings.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind is one of the taxonomy's error kinds.
type Kind string

const (
	Validation       Kind = "ValidationError"
	NotFound         Kind = "NotFoundError"
	Unauthorized     Kind = "Unauthorized"
	RateLimited      Kind = "RateLimited"
	UpstreamTransient Kind = "UpstreamTransient"
	UpstreamPermanent Kind = "UpstreamPermanent"
	CircuitOpen      Kind = "CircuitOpen"
	Conflict         Kind = "Conflict"
	Internal         Kind = "Internal"
)

// StatusCode returns the default HTTP status for a Kind.
func (k Kind) StatusCode() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case RateLimited:
		return http.StatusTooManyRequests
	case UpstreamTransient:
		return http.StatusServiceUnavailable
	case UpstreamPermanent:
		return http.StatusBadGateway
	case CircuitOpen:
		return http.StatusServiceUnavailable
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a taxonomy-tagged error carrying an optional structured issue list.
type Error struct {
	Kind    Kind
	Message string
	Issues  []Issue
	cause   error
}

// Issue is one structured validation complaint.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// New builds a tagged error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a taxonomy kind to an underlying error, preserving the
// stack trace pkg/errors attaches at the call site.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

func NewValidation(msg string, issues ...Issue) *Error {
	return &Error{Kind: Validation, Message: msg, Issues: issues}
}

func NewNotFound(msg string) *Error {
	return &Error{Kind: NotFound, Message: msg}
}

func NewConflict(msg string) *Error {
	return &Error{Kind: Conflict, Message: msg}
}

func NewUnauthorized(msg string) *Error {
	return &Error{Kind: Unauthorized, Message: msg}
}

// As extracts an *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the taxonomy kind of err, defaulting to Internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}
