// Copyright (c) 2026 SafHub. All rights reserved.

package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/safhub/safhub/internal/platform/redis"
)

func TestNewClient_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := redisstore.NewClient(context.Background(), "memcached://localhost:11211", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis_url_invalid")
}
