package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for propagation and user-facing rendering.
type Kind string

const (
	KindPermissionDenied   Kind = "permission_denied"
	KindServiceUnavailable Kind = "service_unavailable"
	KindValidation         Kind = "validation_error"
	KindConflict           Kind = "conflict"
	KindNotConfigured      Kind = "not_configured"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindInternal           Kind = "internal"
)

// Error carries a Kind, a developer message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// UserFacing marks Message as already written for the end user.
	UserFacing bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so errors.Is(err, apperror.ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrNotConfigured      = &Error{Kind: KindNotConfigured}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewUserFacing builds an error whose message is shown to the user as is.
func NewUserFacing(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, UserFacing: true}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func PermissionDenied(message string, err error) *Error {
	return Wrap(KindPermissionDenied, message, err)
}

func ServiceUnavailable(message string, err error) *Error {
	return Wrap(KindServiceUnavailable, message, err)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func NotConfigured(message string) *Error {
	return New(KindNotConfigured, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the message of the first *Error in err's chain, or err.Error().
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps a Kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindPermissionDenied, KindForbidden:
		return http.StatusForbidden
	case KindServiceUnavailable:
		return http.StatusBadGateway
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotConfigured:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus is the inverse used by HTTP clients of the API.
func FromHTTPStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusServiceUnavailable:
		return KindNotConfigured
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return KindServiceUnavailable
	default:
		return KindInternal
	}
}
