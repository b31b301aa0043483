// Copyright (c) 2026 SafHub. All rights reserved.

/*
Package session implements the SafHub session/role resolver.

The [Resolver] turns the backend client's session into a (user, role) pair,
assigns a role on first login, and emits navigation commands that keep the UI
on the dashboard matching that role.

# State Machine

	INITIALIZING ──► UNAUTHENTICATED
	     │
	     └─────────► AUTHENTICATING_ROLE ──► AUTHENTICATED

Every auth event carrying a user re-enters AUTHENTICATING_ROLE; sign-out
returns to UNAUTHENTICATED.
*/
package session

import (
	"context"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/platform/sec"
)

// # State

// Phase is the resolver's position in its state machine.
type Phase string

const (
	PhaseInitializing       Phase = "INITIALIZING"
	PhaseUnauthenticated    Phase = "UNAUTHENTICATED"
	PhaseAuthenticatingRole Phase = "AUTHENTICATING_ROLE"
	PhaseAuthenticated      Phase = "AUTHENTICATED"
)

// State is a snapshot of the resolver. Role is empty until resolved.
type State struct {
	User    *client.User
	Session *client.Session
	Role    sec.UserRole
	Loading bool
	Phase   Phase
}

// IsAuthenticated reports whether a user is signed in with a resolved role.
func (state State) IsAuthenticated() bool {
	return state.Phase == PhaseAuthenticated && state.User != nil
}

// # Navigation

// Navigation is a route change requested by the resolver. Replace asks the
// UI to replace the current history entry instead of pushing one.
type Navigation struct {
	To      string
	Replace bool
}

// Navigator applies navigation commands and reports the current route.
type Navigator interface {
	CurrentPath() string
	Navigate(navigation Navigation)
}

// Notifier shows transient user-visible messages.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// # Collaborators

// AuthService is the subset of the backend client the resolver drives.
type AuthService interface {
	OnAuthStateChange(listener client.AuthStateListener) *client.Subscription
	GetSession(context context.Context) (*client.Session, error)
	SignUp(context context.Context, params client.SignUpParams) (*client.SignUpResponse, error)
	SignInWithPassword(context context.Context, email, password string) (*client.Session, error)
	SignOut(context context.Context, scope client.SignOutScope) error
}

// RoleStore reads and inserts user_roles rows. Get returns an error matching
// [client.ErrRoleNotFound] when the user has no row.
type RoleStore interface {
	Get(context context.Context, userID string) (*client.RoleRow, error)
	Insert(context context.Context, userID string, role sec.UserRole) (*client.RoleRow, error)
}

// KeyStore is the local token store swept before sign-in, sign-up and sign-out.
type KeyStore interface {
	Keys(context context.Context, prefix string) ([]string, error)
	Remove(context context.Context, key string) error
}
