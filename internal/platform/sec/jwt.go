// Copyright (c) 2026 SafHub. All rights reserved.

// Package sec holds the identity backend's security primitives: bcrypt
// hashing, RS256 access tokens, opaque refresh tokens and the role model.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenAudience is the "aud" of every access token, matching what hosted
// auth backends put in tokens for signed-in users.
const TokenAudience = "authenticated"

// ErrTokenClaims is returned for a validly signed token without a subject
// or session.
var ErrTokenClaims = errors.New("sec: token claims incomplete")

/*
AuthClaims is the access-token payload.

UserID mirrors "sub" and is not serialized twice. Role is the app_role
stored when the token was minted; SessionID names the refresh session so
sign-out can revoke it.
*/
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID    string `json:"-"`
	Email     string `json:"email"`
	Role      string `json:"user_role"`
	SessionID string `json:"session_id"`
}

// TokenService signs and verifies RS256 access tokens.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	parser     *jwt.Parser
}

// NewTokenService loads a PEM key pair from disk.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("token_private_key_read_failed: %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("token_private_key_invalid: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("token_public_key_read_failed: %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("token_public_key_invalid: %w", err)
	}

	return NewTokenServiceFromKey(privateKey, publicKey, issuer), nil
}

// NewTokenServiceFromKey builds a TokenService from parsed keys. Tests use
// it with a generated key.
func NewTokenServiceFromKey(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(TokenAudience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(5*time.Second),
		),
	}
}

// GenerateAccessToken signs a token for one refresh session.
func (service *TokenService) GenerateAccessToken(userID, email, role, sessionID string, timeToLive time.Duration) (string, error) {
	issuedAt := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(timeToLive)),
		},
		Email:     email,
		Role:      role,
		SessionID: sessionID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("token_sign_failed: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, issuer, audience and expiry, and returns
// the claims with UserID filled from "sub".
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	if _, err := service.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return service.publicKey, nil
	}); err != nil {
		return nil, fmt.Errorf("token_invalid: %w", err)
	}

	if claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrTokenClaims
	}
	claims.UserID = claims.Subject
	return claims, nil
}
