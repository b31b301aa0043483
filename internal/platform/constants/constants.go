// Copyright (c) 2026 SafHub. All rights reserved.

// Package constants holds values shared by the identity backend and the
// client so both sides agree on headers, issuer and storage keys.
package constants

import "time"

const (
	AppName    = "safhub-identity"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	DefaultReadTimeout       = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout bounds a whole request, including the Postgres
	// statement_timeout set on each pooled connection.
	GlobalRequestTimeout = 30 * time.Second

	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	RateLimitCleanupInterval = time.Minute

	// RateLimitClientTTL drops a client's bucket after this much idle time.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the "iss" claim of every access token.
	AuthIssuer = "safhub.app"

	// HeaderAPIKey carries the project's anonymous key.
	HeaderAPIKey = "apikey"

	// AuthStorageNamespace prefixes every locally persisted auth entry.
	// Sign-in, sign-up and sign-out sweep everything under it.
	AuthStorageNamespace = "sb-"

	// AuthStorageKey is the entry holding the current session.
	AuthStorageKey = "sb-safhub-auth-token"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Fields

const (
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Redis Keys

const (
	// RedisPrefixVerifyToken namespaces pending email confirmations.
	RedisPrefixVerifyToken = "auth:verify_token:"
)
