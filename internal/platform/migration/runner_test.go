// Copyright (c) 2026 SafHub. All rights reserved.

package migration

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5URL(t *testing.T) {
	tests := map[string]string{
		"postgres://safhub@db/identity?sslmode=disable": "pgx5://safhub@db/identity?sslmode=disable",
		"postgresql://safhub@db/identity":               "pgx5://safhub@db/identity",
		"pgx5://safhub@db/identity":                     "pgx5://safhub@db/identity",
		"host=db dbname=identity":                       "host=db dbname=identity",
	}
	for in, want := range tests {
		assert.Equal(t, want, pgx5URL(in), in)
	}
}

/*
TestSlogBridge checks that migrate progress is only verbose when the
logger would keep Debug lines.
*/
func TestSlogBridge(t *testing.T) {
	var buffer bytes.Buffer

	quiet := slogBridge{logger: slog.New(slog.NewTextHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelInfo}))}
	assert.False(t, quiet.Verbose())

	chatty := slogBridge{logger: slog.New(slog.NewTextHandler(&buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	assert.True(t, chatty.Verbose())

	chatty.Printf("1/u identity (%s)\n", "12ms")
	assert.Contains(t, buffer.String(), "migration_progress")
	assert.Contains(t, buffer.String(), `detail="1/u identity (12ms)"`)
}
