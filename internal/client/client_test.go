// Copyright (c) 2026 SafHub. All rights reserved.

package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/identity"
	"github.com/safhub/safhub/internal/identity/identitytest"
	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/sec"
)

type received struct {
	event   client.AuthEvent
	session *client.Session
}

// recorder collects auth events delivered to a subscription.
type recorder struct {
	events chan received
}

func subscribe(t *testing.T, c *client.Client) *recorder {
	t.Helper()
	rec := &recorder{events: make(chan received, 32)}
	subscription := c.OnAuthStateChange(func(event client.AuthEvent, session *client.Session) {
		rec.events <- received{event: event, session: session}
	})
	t.Cleanup(subscription.Unsubscribe)
	return rec
}

func (rec *recorder) next(t *testing.T) received {
	t.Helper()
	select {
	case got := <-rec.events:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("no auth event delivered")
		return received{}
	}
}

func newClient(t *testing.T, backend *identitytest.Backend) (*client.Client, *client.MemoryStorage) {
	t.Helper()
	storage := client.NewMemoryStorage()
	c := client.New(client.Options{
		BaseURL: backend.URL,
		AnonKey: "anon",
		Storage: storage,
		Timeout: 5 * time.Second,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return c, storage
}

func signUp(t *testing.T, c *client.Client, email string) *client.SignUpResponse {
	t.Helper()
	response, err := c.SignUp(context.Background(), client.SignUpParams{
		Email:    email,
		Password: "hunter22",
		Data:     client.Metadata{FirstName: "Ada", LastName: "Lovelace"},
	})
	require.NoError(t, err)
	return response
}

/*
TestClient_SignUpAndEvents verifies persistence and event ordering.
*/
func TestClient_SignUpAndEvents(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{})
	c, storage := newClient(t, backend)
	rec := subscribe(t, c)

	initial := rec.next(t)
	assert.Equal(t, client.EventInitialSession, initial.event)
	assert.Nil(t, initial.session)

	response := signUp(t, c, "ada@school.edu")
	require.NotNil(t, response.Session)
	assert.Equal(t, "ada@school.edu", response.User.Email)

	signedIn := rec.next(t)
	assert.Equal(t, client.EventSignedIn, signedIn.event)
	assert.Equal(t, response.Session.AccessToken, signedIn.session.AccessToken)

	raw, found, err := storage.Get(context.Background(), "sb-safhub-auth-token")
	require.NoError(t, err)
	require.True(t, found)
	var persisted client.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, response.Session.RefreshToken, persisted.RefreshToken)

	late := subscribe(t, c)
	first := late.next(t)
	assert.Equal(t, client.EventInitialSession, first.event)
	require.NotNil(t, first.session)
	assert.Equal(t, response.User.ID, first.session.User.ID)
}

/*
TestClient_SignInErrors surfaces backend messages verbatim.
*/
func TestClient_SignInErrors(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{})
	c, _ := newClient(t, backend)
	signUp(t, c, "ada@school.edu")

	_, err := c.SignInWithPassword(context.Background(), "ada@school.edu", "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Invalid login credentials", apiErr.Error())
}

/*
TestClient_EmailConfirmation covers sign-up without a session.
*/
func TestClient_EmailConfirmation(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{RequireEmailConfirmation: true})
	c, _ := newClient(t, backend)
	ctx := context.Background()

	response := signUp(t, c, "new@school.edu")
	assert.Nil(t, response.Session)

	session, err := c.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = c.SignInWithPassword(ctx, "new@school.edu", "hunter22")
	assert.True(t, client.HasCode(err, apperr.CodeEmailNotConfirmed))

	require.NoError(t, c.VerifyEmail(ctx, backend.Verify.TokenFor(response.User.ID)))
	_, err = c.SignInWithPassword(ctx, "new@school.edu", "hunter22")
	require.NoError(t, err)
}

/*
TestRoleStore covers not-found mapping, insert-once and reads.
*/
func TestRoleStore(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{})
	c, _ := newClient(t, backend)
	ctx := context.Background()
	user := signUp(t, c, "ada@school.edu").User

	_, err := c.Roles().Get(ctx, user.ID)
	assert.ErrorIs(t, err, client.ErrRoleNotFound)

	row, err := c.Roles().Insert(ctx, user.ID, sec.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleTeacher, row.Role)

	_, err = c.Roles().Insert(ctx, user.ID, sec.RoleStudent)
	assert.True(t, client.IsUniqueViolation(err))

	row, err = c.Roles().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleTeacher, row.Role)

	_, err = c.Roles().Set(ctx, user.ID, sec.RoleAdmin)
	assert.True(t, client.HasCode(err, apperr.CodeForbidden))
}

/*
TestRoleStore_AdminSet checks that an admin can replace and list roles, and
that a demoted admin is refused despite an admin token.
*/
func TestRoleStore_AdminSet(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{})
	ctx := context.Background()

	pupil, _ := newClient(t, backend)
	target := signUp(t, pupil, "pupil@school.edu").User

	admin, _ := newClient(t, backend)
	principal := signUp(t, admin, "principal@school.edu").User
	backend.Roles.Seed(principal.ID, sec.RoleAdmin)

	// The role claim is minted at sign-in.
	_, err := admin.SignInWithPassword(ctx, "principal@school.edu", "hunter22")
	require.NoError(t, err)

	row, err := admin.Roles().Set(ctx, target.ID, sec.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleTeacher, row.Role)

	_, err = admin.Roles().Set(ctx, target.ID, sec.RoleParent)
	assert.True(t, client.HasCode(err, apperr.CodeValidation))

	page, err := admin.Roles().List(ctx, client.ListRolesParams{Roles: []sec.UserRole{sec.RoleTeacher}})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, target.ID, page.Rows[0].UserID)
	assert.Equal(t, 1, page.Meta.Total)

	page, err = admin.Roles().List(ctx, client.ListRolesParams{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 1)
	assert.Equal(t, 2, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)

	_, err = pupil.Roles().List(ctx, client.ListRolesParams{})
	assert.True(t, client.HasCode(err, apperr.CodeForbidden))

	backend.Roles.Seed(principal.ID, sec.RoleStudent)
	_, err = admin.Roles().Set(ctx, target.ID, sec.RoleAdmin)
	assert.True(t, client.HasCode(err, apperr.CodeForbidden))
}

/*
TestClient_SignOut clears local state and reports stale sessions.
*/
func TestClient_SignOut(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{})
	ctx := context.Background()

	first, firstStorage := newClient(t, backend)
	signUp(t, first, "ada@school.edu")

	second, _ := newClient(t, backend)
	_, err := second.SignInWithPassword(ctx, "ada@school.edu", "hunter22")
	require.NoError(t, err)

	rec := subscribe(t, first)
	assert.Equal(t, client.EventInitialSession, rec.next(t).event)

	// Global sign-out from the second client revokes the first one's session.
	require.NoError(t, second.SignOut(ctx, client.ScopeGlobal))

	err = first.SignOut(ctx, client.ScopeGlobal)
	assert.True(t, client.HasCode(err, apperr.CodeSessionNotFound))
	assert.True(t, client.IsSessionMissing(err))

	signedOut := rec.next(t)
	assert.Equal(t, client.EventSignedOut, signedOut.event)
	assert.Nil(t, signedOut.session)

	keys, err := firstStorage.Keys(ctx, "sb-")
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.ErrorIs(t, first.SignOut(ctx, client.ScopeGlobal), client.ErrSessionMissing)
}

/*
TestClient_GetSessionRefreshesExpired rotates an expired access token.
*/
func TestClient_GetSessionRefreshesExpired(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{})
	c, storage := newClient(t, backend)
	ctx := context.Background()
	original := signUp(t, c, "ada@school.edu").Session

	expired := *original
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	raw, err := json.Marshal(expired)
	require.NoError(t, err)
	require.NoError(t, storage.Set(ctx, "sb-safhub-auth-token", string(raw)))

	rec := subscribe(t, c)
	assert.Equal(t, client.EventInitialSession, rec.next(t).event)

	session, err := c.GetSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, original.RefreshToken, session.RefreshToken)
	assert.Equal(t, client.EventTokenRefreshed, rec.next(t).event)

	// The rotated-out token is dead: forcing it back yields SIGNED_OUT.
	require.NoError(t, storage.Set(ctx, "sb-safhub-auth-token", string(raw)))
	_, err = c.RefreshSession(ctx)
	assert.True(t, client.HasCode(err, apperr.CodeUnauthorized))
	assert.Equal(t, client.EventSignedOut, rec.next(t).event)
}

/*
TestClient_GetUserEmitsUserUpdated detects a changed profile.
*/
func TestClient_GetUserEmitsUserUpdated(t *testing.T) {
	backend := identitytest.NewBackend(t, identity.Options{})
	c, storage := newClient(t, backend)
	ctx := context.Background()
	session := signUp(t, c, "ada@school.edu").Session

	rec := subscribe(t, c)
	assert.Equal(t, client.EventInitialSession, rec.next(t).event)

	user, err := c.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.UserMetadata.FirstName)

	stale := *session
	staleUser := *session.User
	staleUser.UserMetadata.FirstName = "Old"
	stale.User = &staleUser
	raw, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, storage.Set(ctx, "sb-safhub-auth-token", string(raw)))

	_, err = c.GetUser(ctx)
	require.NoError(t, err)
	updated := rec.next(t)
	assert.Equal(t, client.EventUserUpdated, updated.event)
	assert.Equal(t, "Ada", updated.session.User.UserMetadata.FirstName)
}

/*
TestIsSessionMissing classifies sign-out outcomes.
*/
func TestIsSessionMissing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"local", client.ErrSessionMissing, true},
		{"backend code", &client.APIError{Code: apperr.CodeSessionNotFound, Message: "gone"}, true},
		{"message", errors.New("AuthApiError: session_not_found"), true},
		{"other", &client.APIError{Code: apperr.CodeInternal, Message: "boom"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.IsSessionMissing(tt.err))
		})
	}
}

/*
TestMemoryStorage_Keys lists keys by prefix in order.
*/
func TestMemoryStorage_Keys(t *testing.T) {
	ctx := context.Background()
	storage := client.NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, "sb-b", "2"))
	require.NoError(t, storage.Set(ctx, "sb-a", "1"))
	require.NoError(t, storage.Set(ctx, "theme", "dark"))

	keys, err := storage.Keys(ctx, "sb-")
	require.NoError(t, err)
	assert.Equal(t, []string{"sb-a", "sb-b"}, keys)

	require.NoError(t, storage.Remove(ctx, "sb-a"))
	_, found, err := storage.Get(ctx, "sb-a")
	require.NoError(t, err)
	assert.False(t, found)
}
