// Copyright (c) 2026 SafHub. All rights reserved.

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/dberr"
)

/*
TestWrap classifies storage errors into client-facing codes.
*/
func TestWrap(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "Role", "find"))

	notFound := dberr.Wrap(fmt.Errorf("scan: %w", pgx.ErrNoRows), "Role", "find")
	assert.True(t, apperr.HasCode(notFound, apperr.CodeRowNotFound))

	duplicate := dberr.Wrap(&pgconn.PgError{Code: "23505"}, "Role", "insert")
	assert.True(t, apperr.HasCode(duplicate, apperr.CodeUniqueViolation))
	assert.True(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))

	other := dberr.Wrap(errors.New("connection reset"), "Role", "insert")
	assert.True(t, apperr.HasCode(other, apperr.CodeInternal))
	assert.ErrorContains(t, apperr.As(other).Cause, "connection reset")
}
