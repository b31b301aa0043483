// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package identity implements the SafHub identity backend.

It is the server half of the session lifecycle: account sign-up, password
sign-in, refresh-token rotation, scoped sign-out, email verification and the
user_roles row store consumed by the session resolver.

# Architecture

  - Service / RoleService: business rules (hashing, token minting, revocation).
  - Repository interfaces: Postgres for accounts, sessions and roles; Redis
    for verification tokens.
  - Handler / RoleHandler: chi-based JSON transport.
*/
package identity

import (
	"time"

	"github.com/safhub/safhub/internal/platform/sec"
)

// # Domain Entities

// Metadata holds the mutable profile fields captured at sign-up.
type Metadata struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	School    string `json:"school,omitempty"`
	Grade     string `json:"grade,omitempty"`

	// Role is the role hint chosen at sign-up. It is informational only;
	// the authoritative role lives in user_roles.
	Role string `json:"role,omitempty"`
}

// User is a registered SafHub account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Metadata     Metadata  `json:"user_metadata"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session represents a refresh-token session row.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether the session can still mint tokens.
func (session *Session) IsActive(now time.Time) bool {
	return !session.IsRevoked && now.Before(session.ExpiresAt)
}

// RoleAssignment is one row of user_roles: exactly one active role per user.
type RoleAssignment struct {
	UserID    string       `json:"user_id"`
	Role      sec.UserRole `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// RoleFilter narrows a role listing. An empty Roles matches every row.
type RoleFilter struct {
	Roles []sec.UserRole
}

// LoginSession is the credential bundle returned to clients.
type LoginSession struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// SignUpResult carries the new account and, when no email confirmation is
// required, its first session.
type SignUpResult struct {
	User    *User         `json:"user"`
	Session *LoginSession `json:"session"`
}

// # Sign-out Scopes

// SignOutScope selects which sessions a sign-out revokes.
type SignOutScope string

const (
	// ScopeGlobal revokes every session of the user.
	ScopeGlobal SignOutScope = "global"
	// ScopeLocal revokes only the session the access token belongs to.
	ScopeLocal SignOutScope = "local"
	// ScopeOthers revokes every session except the current one.
	ScopeOthers SignOutScope = "others"
)

// # Field Identifiers

const (
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldRole      = "role"
	FieldUserID    = "user_id"
	FieldToken     = "token"
	FieldGrantType = "grant_type"
	FieldScope     = "scope"
	FieldMessage   = "message"
)

// # Grant Types

const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)
