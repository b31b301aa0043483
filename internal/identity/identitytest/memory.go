// Copyright (c) 2026 SafHub. All rights reserved.

// Package identitytest provides in-memory repositories and a fully wired
// httptest backend for packages that talk to the identity API.
package identitytest

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/safhub/safhub/internal/identity"
	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/sec"
)

// # Users

// MemoryUsers is an in-memory [identity.UserRepository].
type MemoryUsers struct {
	mu    sync.Mutex
	users map[string]*identity.User
}

// NewMemoryUsers returns an empty user store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]*identity.User)}
}

func (store *MemoryUsers) FindByID(_ context.Context, id string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.RowNotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (store *MemoryUsers) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, user := range store.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.RowNotFound("User")
}

func (store *MemoryUsers) Create(_ context.Context, user *identity.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperr.UniqueViolation("User already exists")
		}
	}

	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	clone := *user
	store.users[user.ID] = &clone
	return nil
}

func (store *MemoryUsers) MarkVerified(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[userID]
	if !ok {
		return apperr.RowNotFound("User")
	}
	user.IsVerified = true
	return nil
}

// # Sessions

// MemorySessions is an in-memory [identity.SessionRepository].
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]*identity.Session
}

// NewMemorySessions returns an empty session store.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]*identity.Session)}
}

func (store *MemorySessions) Create(_ context.Context, session *identity.Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	clone := *session
	store.sessions[session.ID] = &clone
	return nil
}

func (store *MemorySessions) FindByID(_ context.Context, sessionID string) (*identity.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.sessions[sessionID]
	if !ok {
		return nil, apperr.RowNotFound("Session")
	}
	clone := *session
	return &clone, nil
}

func (store *MemorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*identity.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, session := range store.sessions {
		if session.TokenHash == tokenHash {
			clone := *session
			return &clone, nil
		}
	}
	return nil, apperr.RowNotFound("Session")
}

func (store *MemorySessions) Revoke(_ context.Context, sessionID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if session, ok := store.sessions[sessionID]; ok {
		session.IsRevoked = true
	}
	return nil
}

func (store *MemorySessions) RevokeAll(_ context.Context, userID string) error {
	return store.revokeWhere(func(session *identity.Session) bool {
		return session.UserID == userID
	})
}

func (store *MemorySessions) RevokeOthers(_ context.Context, userID, currentSessionID string) error {
	return store.revokeWhere(func(session *identity.Session) bool {
		return session.UserID == userID && session.ID != currentSessionID
	})
}

func (store *MemorySessions) revokeWhere(match func(*identity.Session) bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, session := range store.sessions {
		if match(session) {
			session.IsRevoked = true
		}
	}
	return nil
}

// ActiveCount returns the number of unrevoked sessions of a user.
func (store *MemorySessions) ActiveCount(userID string) int {
	store.mu.Lock()
	defer store.mu.Unlock()

	count := 0
	for _, session := range store.sessions {
		if session.UserID == userID && !session.IsRevoked {
			count++
		}
	}
	return count
}

// # Roles

// MemoryRoles is an in-memory [identity.RoleRepository]. Failures injected
// with SetFindErr and SetInsertErr are returned instead of touching the table.
type MemoryRoles struct {
	mu        sync.Mutex
	rows      map[string]*identity.RoleAssignment
	findErr   error
	insertErr error
}

// NewMemoryRoles returns an empty user_roles table.
func NewMemoryRoles() *MemoryRoles {
	return &MemoryRoles{rows: make(map[string]*identity.RoleAssignment)}
}

func (store *MemoryRoles) FindByUserID(_ context.Context, userID string) (*identity.RoleAssignment, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.findErr != nil {
		return nil, store.findErr
	}
	row, ok := store.rows[userID]
	if !ok {
		return nil, apperr.RowNotFound("Role")
	}
	clone := *row
	return &clone, nil
}

func (store *MemoryRoles) Insert(_ context.Context, userID string, role sec.UserRole) (*identity.RoleAssignment, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.insertErr != nil {
		return nil, store.insertErr
	}
	if _, exists := store.rows[userID]; exists {
		return nil, apperr.UniqueViolation(`duplicate key value violates unique constraint "user_roles_pkey"`)
	}

	now := time.Now()
	row := &identity.RoleAssignment{UserID: userID, Role: role, CreatedAt: now, UpdatedAt: now}
	store.rows[userID] = row
	clone := *row
	return &clone, nil
}

func (store *MemoryRoles) Upsert(_ context.Context, userID string, role sec.UserRole) (*identity.RoleAssignment, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := time.Now()
	row, ok := store.rows[userID]
	if !ok {
		row = &identity.RoleAssignment{UserID: userID, CreatedAt: now}
		store.rows[userID] = row
	}
	row.Role, row.UpdatedAt = role, now
	clone := *row
	return &clone, nil
}

func (store *MemoryRoles) List(_ context.Context, filter identity.RoleFilter, limit, offset int) ([]*identity.RoleAssignment, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.findErr != nil {
		return nil, 0, store.findErr
	}

	var matched []*identity.RoleAssignment
	for _, row := range store.rows {
		if len(filter.Roles) == 0 || slices.Contains(filter.Roles, row.Role) {
			clone := *row
			matched = append(matched, &clone)
		}
	}
	slices.SortFunc(matched, func(a, b *identity.RoleAssignment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)
	return matched[start:end], total, nil
}

// Seed stores a row directly, bypassing row-level policy.
func (store *MemoryRoles) Seed(userID string, role sec.UserRole) {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := time.Now()
	store.rows[userID] = &identity.RoleAssignment{UserID: userID, Role: role, CreatedAt: now, UpdatedAt: now}
}

// SetFindErr swaps the lookup failure under the lock.
func (store *MemoryRoles) SetFindErr(err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.findErr = err
}

// SetInsertErr swaps the insert failure under the lock.
func (store *MemoryRoles) SetInsertErr(err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.insertErr = err
}

// Count returns the number of stored rows.
func (store *MemoryRoles) Count() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.rows)
}

// # Verification Tokens

// MemoryVerificationTokens is an in-memory [identity.VerificationTokenRepository].
type MemoryVerificationTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewMemoryVerificationTokens returns an empty token store.
func NewMemoryVerificationTokens() *MemoryVerificationTokens {
	return &MemoryVerificationTokens{tokens: make(map[string]string)}
}

func (store *MemoryVerificationTokens) Issue(_ context.Context, token, userID string, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.tokens[token] = userID
	return nil
}

func (store *MemoryVerificationTokens) Consume(_ context.Context, token string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	userID, ok := store.tokens[token]
	if !ok {
		return "", apperr.NotFound("Verification token")
	}
	delete(store.tokens, token)
	return userID, nil
}

// TokenFor returns the pending verification token of a user, or "".
func (store *MemoryVerificationTokens) TokenFor(userID string) string {
	store.mu.Lock()
	defer store.mu.Unlock()

	for token, owner := range store.tokens {
		if owner == userID {
			return token
		}
	}
	return ""
}
