// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package apperr is the error type every service returns to the HTTP layer.

Codes follow what hosted auth and REST backends send, so clients written
against those backends can branch on them unchanged:

  - "session_not_found" when sign-out or refresh names a revoked session
  - "email_not_confirmed" on sign-in before verification
  - "PGRST116" when a single-row read finds nothing
  - "23505" when an insert hits a unique constraint

The remaining codes are SafHub's own upper-case identifiers.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Codes

const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"

	CodeSessionNotFound   = "session_not_found"
	CodeEmailNotConfirmed = "email_not_confirmed"
	CodeRowNotFound       = "PGRST116"
	CodeUniqueViolation   = "23505"
)

// AppError carries a code, a client-safe message and the HTTP status.
// Cause is logged server-side and never serialized.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError is one failed input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause returns a copy of e that wraps cause, leaving shared sentinel
// errors untouched.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # 4xx

// NotFound reports a missing resource as "<resource> not found".
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, resource+" not found")
}

// RowNotFound is NotFound with the row-store code, for single-row reads.
func RowNotFound(resource string) *AppError {
	return newError(http.StatusNotFound, CodeRowNotFound, resource+" not found")
}

// SessionNotFound reports a session that was already revoked or expired.
func SessionNotFound() *AppError {
	return newError(http.StatusNotFound, CodeSessionNotFound, "Session from session_id claim in JWT does not exist")
}

func Unauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func EmailNotConfirmed() *AppError {
	return newError(http.StatusBadRequest, CodeEmailNotConfirmed, "Email not confirmed")
}

func Forbidden(message string) *AppError {
	return newError(http.StatusForbidden, CodeForbidden, message)
}

func Conflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message)
}

// UniqueViolation reports a duplicate row with the Postgres SQLSTATE.
func UniqueViolation(message string) *AppError {
	return newError(http.StatusConflict, CodeUniqueViolation, message)
}

// ValidationError is a 400 with optional per-field details.
func ValidationError(message string, details ...FieldError) *AppError {
	appErr := newError(http.StatusBadRequest, CodeValidation, message)
	appErr.Details = details
	return appErr
}

func RateLimited(retryAfterSeconds int) *AppError {
	return newError(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # 5xx

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	appErr := newError(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	appErr.Cause = cause
	return appErr
}

// # Inspection

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err's chain holds an [*AppError] with code.
func HasCode(err error, code string) bool {
	appErr := As(err)
	return appErr != nil && appErr.Code == code
}
