// Package apperror defines the closed set of failure kinds the API reports and
// how each kind maps onto an HTTP status.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindAuthorization
	KindNotFound
	KindDependency
)

type kindInfo struct {
	code   string
	status int
}

var kinds = map[Kind]kindInfo{
	KindValidation:    {"validation_error", http.StatusBadRequest},
	KindConflict:      {"conflict", http.StatusConflict},
	KindAuth:          {"unauthorized", http.StatusUnauthorized},
	KindAuthorization: {"forbidden", http.StatusForbidden},
	KindNotFound:      {"not_found", http.StatusNotFound},
	KindDependency:    {"dependency_unavailable", http.StatusServiceUnavailable},
	KindInternal:      {"internal_error", http.StatusInternalServerError},
}

func (k Kind) Status() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k Kind) Code() string {
	if info, ok := kinds[k]; ok {
		return info.code
	}
	return kinds[KindInternal].code
}

func (k Kind) String() string { return k.Code() }

// Error is a classified failure. Message is safe to show to clients; Err keeps
// the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Public reports whether Message may be sent to the caller as is.
func (e *Error) Public() bool {
	return e.Kind != KindInternal && e.Kind != KindDependency
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func Auth(message string) *Error {
	return New(KindAuth, message)
}

func Forbidden(message string) *Error {
	return New(KindAuthorization, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

func Dependency(message string, err error) *Error {
	return Wrap(KindDependency, message, err)
}

// From classifies any error. Unclassified errors are internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", err)
}

func KindOf(err error) Kind {
	return From(err).Kind
}

// Is reports whether err was classified as kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
