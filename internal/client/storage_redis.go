// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// redisScanBatch is the COUNT hint for each SCAN round trip.
const redisScanBatch = 100

// RedisStorage is a [Storage] shared by every process pointed at the same
// Redis. All keys live under keyPrefix so the store can share a database.
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStorage wraps client. keyPrefix is prepended to every key.
func NewRedisStorage(client *redis.Client, keyPrefix string) *RedisStorage {
	return &RedisStorage{client: client, keyPrefix: keyPrefix}
}

func (storage *RedisStorage) Get(context context.Context, key string) (string, bool, error) {
	value, err := storage.client.Get(context, storage.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis_storage_get_failed: %w", err)
	}
	return value, true, nil
}

func (storage *RedisStorage) Set(context context.Context, key, value string) error {
	if err := storage.client.Set(context, storage.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis_storage_set_failed: %w", err)
	}
	return nil
}

func (storage *RedisStorage) Remove(context context.Context, key string) error {
	if err := storage.client.Del(context, storage.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis_storage_remove_failed: %w", err)
	}
	return nil
}

// Keys walks the keyspace with SCAN so large databases are never blocked by KEYS.
func (storage *RedisStorage) Keys(context context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(storage.keyPrefix+prefix) + "*"

	var keys []string
	iter := storage.client.Scan(context, 0, pattern, redisScanBatch).Iterator()
	for iter.Next(context) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), storage.keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis_storage_scan_failed: %w", err)
	}
	return keys, nil
}

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(value)
}
