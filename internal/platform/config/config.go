// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into strongly-typed
Go structs, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Two schemas live here:

  - [Config]: the identity backend (cmd/api).
  - [ClientConfig]: the backend client and session resolver (cmd/probe).
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Backend Configuration

// Config holds all runtime configuration for the SafHub identity backend.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"15"`
	DatabaseMinConns int32  `env:"DATABASE_MIN_CONNS" envDefault:"2"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Cryptographic keys for access token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required,notEmpty"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required,notEmpty"`

	// Password hashing cost (bcrypt)
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// RequireEmailConfirmation withholds the session at sign-up until the
	// address is verified.
	RequireEmailConfirmation bool `env:"REQUIRE_EMAIL_CONFIRMATION" envDefault:"false"`

	// Outbound mail (SendGrid). Without an API key confirmation links are
	// only logged, which production refuses.
	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM"       envDefault:"no-reply@safhub.app"`
	MailVerifyURL  string `env:"MAIL_VERIFY_URL" envDefault:"https://safhub.app/auth/confirm"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"safhub.app"`

	// Per-IP token buckets. AuthRateLimit* applies to /auth/v1 on top of the
	// global bucket. A zero RPS disables that bucket.
	RateLimitRPS       float64 `env:"RATE_LIMIT_RPS"        envDefault:"20"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST"      envDefault:"40"`
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS"   envDefault:"1"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
}

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginSuffix returns the production CORS origin suffix.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}

// # Client Configuration

// ClientConfig configures the backend client used by the session resolver.
type ClientConfig struct {

	// BackendURL is the base URL of the identity backend.
	BackendURL string `env:"SAFHUB_URL,required,notEmpty"`

	// AnonKey is sent as the apikey header on every request.
	AnonKey string `env:"SAFHUB_ANON_KEY"`

	// StorageKey names the persisted session entry; everything under the
	// StorageNamespace prefix is swept on sign-in/sign-up/sign-out.
	StorageKey       string `env:"SAFHUB_STORAGE_KEY"       envDefault:"sb-safhub-auth-token"`
	StorageNamespace string `env:"SAFHUB_STORAGE_NAMESPACE" envDefault:"sb-"`

	// StorageRedisURL selects the Redis-backed token store. Empty keeps the
	// session in memory for the process lifetime.
	StorageRedisURL string `env:"SAFHUB_STORAGE_REDIS_URL"`

	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration `env:"SAFHUB_REQUEST_TIMEOUT" envDefault:"10s"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// LoadClient parses environment variables into a [ClientConfig] struct.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse client environment: %w", err)
	}
	return cfg, nil
}
