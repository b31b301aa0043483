// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/constants"
)

// RedisVerificationTokens keeps pending email confirmations as TTL keys
// under auth:verify_token:.
type RedisVerificationTokens struct {
	client redis.Cmdable
}

// NewVerificationTokenRepository wraps a go-redis client.
func NewVerificationTokenRepository(client redis.Cmdable) *RedisVerificationTokens {
	return &RedisVerificationTokens{client: client}
}

func (repository *RedisVerificationTokens) Issue(context context.Context, token string, userID string, ttl time.Duration) error {
	if err := repository.client.Set(context, constants.RedisPrefixVerifyToken+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("verify_token_issue_failed: %w", err)
	}
	return nil
}

// Consume uses GETDEL so two concurrent confirmations cannot both succeed.
func (repository *RedisVerificationTokens) Consume(context context.Context, token string) (string, error) {
	userID, err := repository.client.GetDel(context, constants.RedisPrefixVerifyToken+token).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", apperr.NotFound("Verification token")
	case err != nil:
		return "", fmt.Errorf("verify_token_consume_failed: %w", err)
	}
	return userID, nil
}
