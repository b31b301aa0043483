// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"context"
	"time"

	"github.com/safhub/safhub/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr PGRST116 when absent, or database failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email (case-insensitive).

		Returns:
		  - *User: Hydrated entity
		  - error: apperr PGRST116 when absent, or database failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	// Create persists a brand-new user account.
	Create(context context.Context, user *User) error

	// MarkVerified flags the account's email as confirmed.
	MarkVerified(context context.Context, userID string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	// Create persists a new tracking session for an authenticated login.
	Create(context context.Context, session *Session) error

	// FindByID returns the session with the given ID, revoked or not.
	FindByID(context context.Context, sessionID string) (*Session, error)

	// FindByTokenHash returns the session matching the given refresh token hash.
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	// Revoke marks a specific session as permanently invalidated.
	Revoke(context context.Context, sessionID string) error

	// RevokeAll revokes every active session belonging to the user.
	RevokeAll(context context.Context, userID string) error

	// RevokeOthers revokes all of the user's sessions except the current one.
	RevokeOthers(context context.Context, userID, currentSessionID string) error
}

// # Role Data Access

// RoleRepository defines the data access contract for the user_roles table.
type RoleRepository interface {

	/*
		FindByUserID returns the role row of a user.

		Returns:
		  - *RoleAssignment: The stored row
		  - error: apperr PGRST116 when the user has no role yet
	*/
	FindByUserID(context context.Context, userID string) (*RoleAssignment, error)

	/*
		Insert creates the role row of a user.

		Returns:
		  - error: apperr 23505 when a row already exists
	*/
	Insert(context context.Context, userID string, role sec.UserRole) (*RoleAssignment, error)

	// Upsert replaces (or creates) the role row of a user.
	Upsert(context context.Context, userID string, role sec.UserRole) (*RoleAssignment, error)

	/*
		List returns a page of role rows, oldest first, and the total count
		matching filter.
	*/
	List(context context.Context, filter RoleFilter, limit, offset int) ([]*RoleAssignment, int, error)
}

// # Volatile Data Access

// VerificationTokenRepository holds pending email confirmations. Tokens
// are single-use: Consume removes the token it returns.
type VerificationTokenRepository interface {
	Issue(context context.Context, token string, userID string, ttl time.Duration) error

	// Consume returns the token's user and deletes it, or NotFound when the
	// token is unknown, expired or already used.
	Consume(context context.Context, token string) (string, error)
}
