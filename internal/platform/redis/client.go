// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package redis opens the go-redis client used on both sides of SafHub.

The backend keeps pending email confirmations in it, and a resolver
process may keep its auth token there so a session survives restarts.
Both are tiny, TTL-bound keys, so the pool stays small.
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 3 * time.Second
	ioTimeout    = 2 * time.Second
	pingTimeout  = 2 * time.Second
	poolSize     = 5
	minIdleConns = 1
)

// Option adjusts the client before it connects.
type Option func(*redis.Options)

// WithClientName tags connections so CLIENT LIST shows who holds them.
func WithClientName(name string) Option {
	return func(options *redis.Options) { options.ClientName = name }
}

// WithPoolSize overrides the default pool of five connections.
func WithPoolSize(size int) Option {
	return func(options *redis.Options) {
		options.PoolSize = size
		options.MinIdleConns = min(options.MinIdleConns, size)
	}
}

/*
NewClient parses redisURL, applies options and pings once.

Returns:
  - *redis.Client: connected client; the caller closes it
  - error: an invalid URL or an unreachable server
*/
func NewClient(context context.Context, redisURL string, logger *slog.Logger, options ...Option) (*redis.Client, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis_url_invalid: %w", err)
	}

	parsed.PoolSize = poolSize
	parsed.MinIdleConns = minIdleConns
	parsed.DialTimeout = dialTimeout
	parsed.ReadTimeout = ioTimeout
	parsed.WriteTimeout = ioTimeout
	for _, apply := range options {
		apply(parsed)
	}

	client := redis.NewClient(parsed)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", parsed.Addr),
		slog.Int("db", parsed.DB),
		slog.Int("pool_size", parsed.PoolSize),
	)
	return client, nil
}

// Ping checks the server within a short deadline. /ready calls it.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis_ping_failed: %w", err)
	}
	return nil
}
