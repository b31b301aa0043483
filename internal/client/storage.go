// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Storage is the local token store the client persists its session in.
// Keys lists every stored key starting with prefix; an empty prefix lists all.
type Storage interface {
	Get(context context.Context, key string) (value string, found bool, err error)
	Set(context context.Context, key, value string) error
	Remove(context context.Context, key string) error
	Keys(context context.Context, prefix string) ([]string, error)
}

// MemoryStorage is a process-local [Storage].
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (storage *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()
	value, ok := storage.values[key]
	return value, ok, nil
}

func (storage *MemoryStorage) Set(_ context.Context, key, value string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	storage.values[key] = value
	return nil
}

func (storage *MemoryStorage) Remove(_ context.Context, key string) error {
	storage.mu.Lock()
	defer storage.mu.Unlock()
	delete(storage.values, key)
	return nil
}

func (storage *MemoryStorage) Keys(_ context.Context, prefix string) ([]string, error) {
	storage.mu.RLock()
	defer storage.mu.RUnlock()

	keys := make([]string, 0, len(storage.values))
	for key := range storage.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
