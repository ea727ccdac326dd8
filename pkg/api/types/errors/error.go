package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// machine-readable error codes, stable across releases.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAuthInvalidToken   = "AUTH_INVALID_TOKEN"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT_RESOURCE_EXISTS"
	CodeInvalidState       = "INVALID_STATE"
	CodeFileSizeExceeded   = "FILE_SIZE_EXCEEDED"
	CodeInvalidInviteToken = "INVALID_INVITE_TOKEN"
	CodeInternal           = "INTERNAL"
)

type ErrorMessage struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`
	See    string `json:"see,omitempty"`
	Cause  error  `json:"-"`
}

func (e ErrorMessage) String() string {
	lines := []string{e.Reason}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	if e.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by:", e.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

func (e ErrorMessage) Error() string {
	return e.String()
}

func (e ErrorMessage) Unwrap() error {
	return e.Cause
}

type ErrorMessageOption func(in *ErrorMessage) *ErrorMessage

func WithAdvice(advice string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithError(err error) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

func WithSee(see string) ErrorMessageOption {
	return func(in *ErrorMessage) *ErrorMessage {
		if see != "" {
			in.See = see
		}
		return in
	}
}

func NewErrorMessage(status int, code string, reason string, opts ...ErrorMessageOption) *echo.HTTPError {
	msg := ErrorMessage{Code: code, Reason: reason}
	for _, opt := range opts {
		msg = *opt(&msg)
	}

	return echo.NewHTTPError(status, msg).SetInternal(msg)
}

func NotFound() *echo.HTTPError {
	return NewErrorMessage(http.StatusNotFound, CodeNotFound, "not found")
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		CodeValidation,
		"bad request",
		WithAdvice(advice),
		WithError(err),
	)
}

func Unauthorized(advice string, err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusUnauthorized,
		CodeAuthInvalidToken,
		"credential is missing, invalid or expired",
		WithAdvice(advice),
		WithError(err),
	)
}

func Forbidden(advice string) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusForbidden,
		CodePermissionDenied,
		"permission denied",
		WithAdvice(advice),
	)
}

func Conflict(reason string, options ...ErrorMessageOption) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusConflict,
		CodeConflict,
		reason,
		options...,
	)
}

func InvalidState(reason string, options ...ErrorMessageOption) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusConflict,
		CodeInvalidState,
		reason,
		options...,
	)
}

func FileSizeExceeded(advice string) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusRequestEntityTooLarge,
		CodeFileSizeExceeded,
		"file is too large",
		WithAdvice(advice),
	)
}

func InvalidInviteToken() *echo.HTTPError {
	return NewErrorMessage(
		http.StatusBadRequest,
		CodeInvalidInviteToken,
		"invite token is unknown or expired",
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorMessage(
		http.StatusInternalServerError,
		CodeInternal,
		"unexpected error",
		WithError(err),
	)
}
