// Copyright (c) 2026 SafHub. All rights reserved.

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safhub/safhub/internal/platform/ctxutil"
	"github.com/safhub/safhub/internal/platform/sec"
)

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.RequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "req-7f3a")
	assert.Equal(t, "req-7f3a", ctxutil.RequestID(ctx))
}

/*
TestLogger checks the slog.Default fallback, including a nil logger
stored by mistake.
*/
func TestLogger(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, slog.Default(), ctxutil.Logger(ctx))
	assert.Same(t, slog.Default(), ctxutil.Logger(ctxutil.WithLogger(ctx, nil)))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, logger, ctxutil.Logger(ctxutil.WithLogger(ctx, logger)))
}

/*
TestClaims verifies the identity accessors for anonymous and signed-in
requests.
*/
func TestClaims(t *testing.T) {
	anonymous := context.Background()
	assert.Nil(t, ctxutil.Claims(anonymous))
	assert.Empty(t, ctxutil.UserID(anonymous))
	assert.Empty(t, ctxutil.SessionID(anonymous))

	claims := &sec.AuthClaims{
		UserID:    "3f1c9a52-6f0e-4d8b-9a61-0c2f1b7d9e44",
		Email:     "teacher@school.edu",
		Role:      string(sec.RoleTeacher),
		SessionID: "sess-1",
	}
	signedIn := ctxutil.WithClaims(anonymous, claims)

	retrieved := ctxutil.Claims(signedIn)
	require.NotNil(t, retrieved)
	assert.Equal(t, string(sec.RoleTeacher), retrieved.Role)
	assert.Equal(t, claims.UserID, ctxutil.UserID(signedIn))
	assert.Equal(t, "sess-1", ctxutil.SessionID(signedIn))
}
