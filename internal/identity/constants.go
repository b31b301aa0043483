// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import "time"

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	AccessTokenTTL = time.Hour

	// RefreshTokenTTL is the duration a refresh session remains valid.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32

	// VerificationTokenTTL is the duration an email verification token remains valid.
	VerificationTokenTTL = 24 * time.Hour

	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32

	// MinPasswordLength mirrors the backend's password policy.
	MinPasswordLength = 6

	// TokenTypeBearer is the only token type issued.
	TokenTypeBearer = "bearer"
)
