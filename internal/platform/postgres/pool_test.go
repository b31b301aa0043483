// Copyright (c) 2026 SafHub. All rights reserved.

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safhub/safhub/internal/platform/postgres"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := postgres.NewPool(context.Background(), "postgres://safhub@%zz/identity", postgres.PoolOptions{}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn_invalid")
}
