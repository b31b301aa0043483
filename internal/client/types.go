// Copyright (c) 2026 SafHub. All rights reserved.

package client

import (
	"time"

	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/pkg/pagination"
)

// # Auth Events

// AuthEvent names a change in the client's session.
type AuthEvent string

const (
	// EventInitialSession is delivered once to every new subscriber with the
	// persisted session, which may be nil.
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// # Sign-out Scopes

// SignOutScope selects which sessions the backend revokes.
type SignOutScope string

const (
	ScopeGlobal SignOutScope = "global"
	ScopeLocal  SignOutScope = "local"
	ScopeOthers SignOutScope = "others"
)

// # Payloads

// Metadata is the user profile carried with the account.
type Metadata struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	School    string `json:"school,omitempty"`
	Grade     string `json:"grade,omitempty"`
	Role      string `json:"role,omitempty"`
}

// User is the account as seen by the client.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	UserMetadata Metadata  `json:"user_metadata"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is the credential bundle persisted in [Storage].
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// expiryMargin refreshes a session slightly before the backend would reject it.
const expiryMargin = 10 * time.Second

// IsExpired reports whether the access token is expired, or about to be.
func (session *Session) IsExpired(now time.Time) bool {
	return session.ExpiresAt > 0 && now.Add(expiryMargin).Unix() >= session.ExpiresAt
}

// SignUpParams is the input of [Client.SignUp].
type SignUpParams struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Data     Metadata `json:"data"`
}

// SignUpResponse carries the new user and, when the backend does not require
// email confirmation, an active session.
type SignUpResponse struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// RoleRow is one row of user_roles.
type RoleRow struct {
	UserID    string       `json:"user_id"`
	Role      sec.UserRole `json:"role"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ListRolesParams selects a page of role rows. Zero values use the backend
// defaults; an empty Roles lists every role.
type ListRolesParams struct {
	Roles []sec.UserRole
	Page  int
	Limit int
}

// RolePage is one page of role rows.
type RolePage struct {
	Rows []RoleRow
	Meta pagination.Meta
}
