package errors

import (
	"errors"
	"net/http"
)

// Sentinels for domain errors.
var (
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMisconfigured = errors.New("server misconfigured")
	ErrInvalidPhone  = errors.New("invalid phone format")
	ErrRemoteCall    = errors.New("remote call failure")
	ErrRemoteNetwork = errors.New("remote network error")
)

// Is reports whether err is one of the sentinels.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap adds context to an error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Join(errors.New(message), err)
}

// StatusCode maps an error to the HTTP status reported to the caller.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DetailError carries a message that is safe to hand back to the caller
// alongside the sentinel it classifies.
type DetailError struct {
	Kind   error
	Detail string
	Cause  error
}

func (e *DetailError) Error() string {
	return e.Detail
}

// Unwrap exposes both the classifying sentinel and the underlying cause.
func (e *DetailError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// New builds a DetailError for the given sentinel.
func New(kind error, detail string) error {
	return &DetailError{Kind: kind, Detail: detail}
}

// WithCause builds a DetailError that also wraps cause.
func WithCause(kind error, detail string, cause error) error {
	return &DetailError{Kind: kind, Detail: detail, Cause: cause}
}
