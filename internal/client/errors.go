// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"errors"
	"strings"

	"github.com/safhub/safhub/internal/platform/apperr"
)

var (
	// ErrSessionMissing is returned by calls that need a session when none is persisted.
	ErrSessionMissing = errors.New("auth session missing")

	// ErrRoleNotFound is returned by [RoleStore.Get] when the user has no role row.
	ErrRoleNotFound = &APIError{Status: 404, Code: apperr.CodeRowNotFound, Message: "Role not found"}
)

// APIError is a non-2xx response from the backend. Message is the backend's
// text, verbatim.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string { return e.Message }

// Is matches any APIError carrying the same code, so errors.Is(err,
// ErrRoleNotFound) holds for every PGRST116 response.
func (e *APIError) Is(target error) bool {
	var other *APIError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code != "" && other.Code == e.Code
}

// HasCode reports whether err is an [APIError] with the given code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsUniqueViolation reports whether err is a 23505 from the row store.
func IsUniqueViolation(err error) bool {
	return HasCode(err, apperr.CodeUniqueViolation)
}

// IsSessionMissing reports whether err means there is no session to act on,
// locally or on the backend.
func IsSessionMissing(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionMissing) || HasCode(err, apperr.CodeSessionNotFound) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "session_not_found") || strings.Contains(message, "session missing")
}
