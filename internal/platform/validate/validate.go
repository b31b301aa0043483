// Copyright (c) 2026 SafHub. All rights reserved.

// Package validate collects field-level input errors into a single
// VALIDATION_ERROR [apperr.AppError].
//
// Handlers validate request shape (required fields, email format, password
// length); services validate domain values such as storable roles.
package validate

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/pkg/uuid"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator accumulates failures through a chainable API. Use one per
// request; it is not safe for concurrent use.
type Validator struct {
	message string
	errs    []apperr.FieldError
}

// New returns a Validator whose error carries message instead of the
// default "Validation failed".
func New(message string) *Validator {
	return &Validator{message: message}
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MinLen fails if value has fewer than min runes.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return v
}

// Email fails unless value parses as a single RFC 5322 address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// UUID fails unless value is a canonical UUID.
func (v *Validator) UUID(field, value string) *Validator {
	if !uuid.Valid(value) {
		v.add(field, "Must be a UUID")
	}
	return v
}

// OneOf fails unless value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if !slices.Contains(allowed, value) {
		v.add(field, "Must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// StorableRole fails unless role belongs to the persisted app_role enum.
// "parent" is routed by the UI but never stored.
func (v *Validator) StorableRole(field string, role sec.UserRole) *Validator {
	if !role.IsStorable() {
		v.add(field, "Must be one of: student, teacher, admin")
	}
	return v
}

// Err returns the accumulated failures as one VALIDATION_ERROR, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	message := v.message
	if message == "" {
		message = "Validation failed"
	}
	return apperr.ValidationError(message, v.errs...)
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// Invalid builds a single-field validation error.
func Invalid(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{
		Field:   field,
		Message: message,
	})
}
