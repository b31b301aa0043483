// Copyright (c) 2026 SafHub. All rights reserved.

// Package dberr maps pgx errors onto the row-store codes the client
// understands.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/safhub/safhub/internal/platform/apperr"
)

// Wrap converts a pgx error into an [apperr.AppError]; action names the
// failing step in the logged cause.
//
//   - pgx.ErrNoRows         -> PGRST116 (404)
//   - unique_violation      -> 23505 (409)
//   - anything else         -> INTERNAL_ERROR, cause kept for logging
func Wrap(err error, resource, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.RowNotFound(resource)
	}

	if IsUniqueViolation(err) {
		return apperr.UniqueViolation(fmt.Sprintf("%s already exists", resource)).WithCause(err)
	}

	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation
}
