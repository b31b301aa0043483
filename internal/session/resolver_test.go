// Copyright (c) 2026 SafHub. All rights reserved.

package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/identity"
	"github.com/safhub/safhub/internal/identity/identitytest"
	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/internal/session"
)

const (
	waitFor  = 3 * time.Second
	tick     = 10 * time.Millisecond
	password = "hunter22"
)

// # Test Doubles

// browser is a Navigator that moves to every requested route.
type browser struct {
	mu      sync.Mutex
	path    string
	history []session.Navigation
}

func (b *browser) CurrentPath() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

func (b *browser) Navigate(navigation session.Navigation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.path = navigation.To
	b.history = append(b.history, navigation)
}

func (b *browser) visit(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.path = path
}

func (b *browser) navigations() []session.Navigation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]session.Navigation(nil), b.history...)
}

type note struct {
	ok      bool
	title   string
	message string
}

// toasts is a Notifier that records every message.
type toasts struct {
	mu    sync.Mutex
	notes []note
}

func (t *toasts) Success(title, message string) { t.add(note{true, title, message}) }
func (t *toasts) Error(title, message string)   { t.add(note{false, title, message}) }

func (t *toasts) add(n note) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notes = append(t.notes, n)
}

func (t *toasts) last() note {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.notes) == 0 {
		return note{}
	}
	return t.notes[len(t.notes)-1]
}

// roleSpy wraps a RoleStore, counting calls. With rendezvous set, the first
// two lookups wait for each other so both observe "no row". With gate set,
// every lookup waits until it is closed.
type roleSpy struct {
	inner session.RoleStore

	rendezvous bool
	arrived    atomic.Int32
	release    chan struct{}
	gate       chan struct{}

	gets       atomic.Int32
	inserts    atomic.Int32
	duplicates atomic.Int32
}

func (p *roleSpy) Get(ctx context.Context, userID string) (*client.RoleRow, error) {
	p.gets.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-time.After(waitFor):
		}
	}
	if p.rendezvous {
		if n := p.arrived.Add(1); n <= 2 {
			if n == 2 {
				close(p.release)
			}
			select {
			case <-p.release:
			case <-time.After(waitFor):
			}
		}
	}
	return p.inner.Get(ctx, userID)
}

func (p *roleSpy) Insert(ctx context.Context, userID string, role sec.UserRole) (*client.RoleRow, error) {
	p.inserts.Add(1)
	row, err := p.inner.Insert(ctx, userID, role)
	if client.IsUniqueViolation(err) {
		p.duplicates.Add(1)
	}
	return row, err
}

// # Harness

type harness struct {
	backend  *identitytest.Backend
	client   *client.Client
	storage  *client.MemoryStorage
	roles    *roleSpy
	browser  *browser
	toasts   *toasts
	resolver *session.Resolver
}

func newHarness(t *testing.T, startPath string) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := identitytest.NewBackend(t, identity.Options{})
	storage := client.NewMemoryStorage()
	c := client.New(client.Options{BaseURL: backend.URL, Storage: storage, Timeout: 5 * time.Second, Logger: logger})

	h := &harness{
		backend: backend,
		client:  c,
		storage: storage,
		roles:   &roleSpy{inner: c.Roles(), release: make(chan struct{})},
		browser: &browser{path: startPath},
		toasts:  &toasts{},
	}
	h.resolver = session.New(session.Config{
		Auth:      c,
		Roles:     h.roles,
		Storage:   storage,
		Navigator: h.browser,
		Notifier:  h.toasts,
		Logger:    logger,
	})
	t.Cleanup(h.resolver.Close)
	return h
}

// register creates an account on the backend without touching the client.
func (h *harness) register(t *testing.T, email string) *identity.User {
	t.Helper()
	result, err := h.backend.Service.SignUp(context.Background(), identity.SignUpInput{Email: email, Password: password})
	require.NoError(t, err)
	return result.User
}

func (h *harness) awaitRole(t *testing.T, role sec.UserRole) {
	t.Helper()
	require.Eventually(t, func() bool {
		state := h.resolver.State()
		return state.Phase == session.PhaseAuthenticated && state.Role == role
	}, waitFor, tick)
}

func (h *harness) storedRole(t *testing.T, userID string) sec.UserRole {
	t.Helper()
	row, err := h.backend.Roles.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	return row.Role
}

// # Role Assignment

/*
TestResolver_FirstSignInAssignsInferredRole checks that a user without a role
row gets exactly one row matching the email heuristic.
*/
func TestResolver_FirstSignInAssignsInferredRole(t *testing.T) {
	tests := []struct {
		email string
		want  sec.UserRole
	}{
		{"head.admin@school.edu", sec.RoleAdmin},
		{"new.teacher@example.com", sec.RoleTeacher},
		{"random@example.com", sec.RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			h := newHarness(t, sec.HomePath)
			h.resolver.Start(context.Background())
			assert.Equal(t, session.PhaseUnauthenticated, h.resolver.State().Phase)

			user := h.register(t, tt.email)
			require.NoError(t, h.resolver.SignIn(context.Background(), tt.email, password))

			h.awaitRole(t, tt.want)
			assert.Equal(t, 1, h.backend.Roles.Count())
			assert.Equal(t, tt.want, h.storedRole(t, user.ID))
			assert.Equal(t, int32(1), h.roles.inserts.Load())

			require.Eventually(t, func() bool {
				return h.browser.CurrentPath() == sec.DashboardPath(tt.want)
			}, waitFor, tick)
		})
	}
}

/*
TestResolver_SignUpStoresInferredRole covers sign-up with and without hints.
*/
func TestResolver_SignUpStoresInferredRole(t *testing.T) {
	tests := []struct {
		name  string
		email string
		hint  string
		want  sec.UserRole
	}{
		{"teacher email", "new.teacher@example.com", "", sec.RoleTeacher},
		{"plain email", "random@example.com", "", sec.RoleStudent},
		{"parent hint is not stored", "mum@example.com", "parent", sec.RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, sec.HomePath)
			h.resolver.Start(context.Background())

			response, err := h.resolver.SignUp(context.Background(), tt.email, password, session.Profile{
				FirstName: "Sam",
				LastName:  "Lee",
				Role:      tt.hint,
			})
			require.NoError(t, err)
			require.NotNil(t, response.Session)
			assert.Equal(t, string(tt.want), response.User.UserMetadata.Role)
			assert.True(t, h.toasts.last().ok)

			h.awaitRole(t, tt.want)
			assert.Equal(t, tt.want, h.storedRole(t, response.User.ID))
			assert.Equal(t, 1, h.backend.Roles.Count())
		})
	}
}

/*
TestResolver_RefreshUserRoleKeepsStoredRole checks that an existing row is
adopted as-is and never duplicated, and that an admin change is picked up.
*/
func TestResolver_RefreshUserRoleKeepsStoredRole(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, sec.HomePath)
	h.resolver.Start(ctx)

	// The heuristic would say admin; the stored row wins.
	user := h.register(t, "site.admin@school.edu")
	h.backend.Roles.Seed(user.ID, sec.RoleTeacher)

	require.NoError(t, h.resolver.SignIn(ctx, "site.admin@school.edu", password))
	h.awaitRole(t, sec.RoleTeacher)

	for range 3 {
		assert.Equal(t, sec.RoleTeacher, h.resolver.RefreshUserRole(ctx))
	}
	assert.Equal(t, 1, h.backend.Roles.Count())
	assert.Zero(t, h.roles.inserts.Load())
	assert.Equal(t, sec.TeacherDashboardPath, h.browser.CurrentPath())

	h.backend.Roles.Seed(user.ID, sec.RoleStudent)
	assert.Equal(t, sec.RoleStudent, h.resolver.RefreshUserRole(ctx))
	assert.Equal(t, sec.StudentDashboardPath, h.browser.CurrentPath())
}

/*
TestResolver_RoleFailuresFallBackToStudent covers fail-open lookups and
single-attempt inserts.
*/
func TestResolver_RoleFailuresFallBackToStudent(t *testing.T) {
	t.Run("lookup error", func(t *testing.T) {
		h := newHarness(t, "/courses/42")
		h.resolver.Start(context.Background())
		h.register(t, "new.teacher@example.com")
		h.backend.Roles.SetFindErr(errors.New("connection refused"))

		require.NoError(t, h.resolver.SignIn(context.Background(), "new.teacher@example.com", password))

		h.awaitRole(t, sec.RoleStudent)
		assert.Zero(t, h.roles.inserts.Load())
		assert.Zero(t, h.backend.Roles.Count())
	})

	t.Run("insert error", func(t *testing.T) {
		h := newHarness(t, "/courses/42")
		h.resolver.Start(context.Background())
		h.register(t, "new.teacher@example.com")
		h.backend.Roles.SetInsertErr(apperr.Internal(errors.New("disk full")))

		require.NoError(t, h.resolver.SignIn(context.Background(), "new.teacher@example.com", password))

		h.awaitRole(t, sec.RoleStudent)
		assert.Equal(t, int32(1), h.roles.inserts.Load())
		assert.Zero(t, h.backend.Roles.Count())
		assert.Equal(t, "/courses/42", h.browser.CurrentPath())
	})
}

/*
TestResolver_ConcurrentResolutionConverges races the initial read against the
INITIAL_SESSION event: both see "no row", both insert, and both settle on the
same role without error.
*/
func TestResolver_ConcurrentResolutionConverges(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, sec.HomePath)
	h.roles.rendezvous = true

	user := h.register(t, "new.teacher@example.com")
	_, err := h.client.SignInWithPassword(ctx, "new.teacher@example.com", password)
	require.NoError(t, err)

	h.resolver.Start(ctx)

	require.Eventually(t, func() bool { return h.roles.inserts.Load() == 2 }, waitFor, tick)
	h.awaitRole(t, sec.RoleTeacher)

	assert.Equal(t, int32(1), h.roles.duplicates.Load())
	assert.Equal(t, 1, h.backend.Roles.Count())
	assert.Equal(t, sec.RoleTeacher, h.storedRole(t, user.ID))
	assert.Equal(t, []session.Navigation{{To: sec.TeacherDashboardPath}}, h.browser.navigations())
}

// # Redirects

/*
TestResolver_Redirects covers the dashboard decision after sign-in.
*/
func TestResolver_Redirects(t *testing.T) {
	tests := []struct {
		name  string
		email string
		role  sec.UserRole
		from  string
		want  []session.Navigation
	}{
		{"admin from home", "a@school.edu", sec.RoleAdmin, "/", []session.Navigation{{To: "/admin-dashboard"}}},
		{"teacher already home", "b@school.edu", sec.RoleTeacher, "/teacher-dashboard", nil},
		{"student on wrong dashboard", "c@school.edu", sec.RoleStudent, "/admin-dashboard", []session.Navigation{{To: "/student-dashboard"}}},
		{"non-dashboard page", "d@school.edu", sec.RoleStudent, "/courses/7", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, tt.from)
			h.resolver.Start(ctx)

			user := h.register(t, tt.email)
			h.backend.Roles.Seed(user.ID, tt.role)

			require.NoError(t, h.resolver.SignIn(ctx, tt.email, password))
			h.awaitRole(t, tt.role)

			// Resolving the same role again adds no navigation.
			h.resolver.RefreshUserRole(ctx)

			require.Eventually(t, func() bool {
				return assert.ObjectsAreEqual(tt.want, h.browser.navigations())
			}, waitFor, tick)
		})
	}
}

/*
TestResolver_FirstLoadRedirectsOnlyFromHome checks that a restored session
redirects on the first load from "/" but not from other pages.
*/
func TestResolver_FirstLoadRedirectsOnlyFromHome(t *testing.T) {
	for _, start := range []string{sec.HomePath, sec.AdminDashboardPath} {
		t.Run(start, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, start)
			user := h.register(t, "pupil@school.edu")
			h.backend.Roles.Seed(user.ID, sec.RoleStudent)

			_, err := h.client.SignInWithPassword(ctx, "pupil@school.edu", password)
			require.NoError(t, err)

			h.resolver.Start(ctx)
			h.awaitRole(t, sec.RoleStudent)
			require.Eventually(t, func() bool { return h.roles.gets.Load() >= 2 }, waitFor, tick)

			if start == sec.HomePath {
				require.Eventually(t, func() bool {
					return len(h.browser.navigations()) == 1
				}, waitFor, tick)
				assert.Equal(t, []session.Navigation{{To: sec.StudentDashboardPath}}, h.browser.navigations())
			} else {
				time.Sleep(50 * time.Millisecond)
				assert.Empty(t, h.browser.navigations())
			}
		})
	}
}

// # Sign-in & Sign-out

/*
TestResolver_SignInFailureIsNotifiedAndReturned surfaces backend messages.
*/
func TestResolver_SignInFailureIsNotifiedAndReturned(t *testing.T) {
	h := newHarness(t, sec.HomePath)
	h.resolver.Start(context.Background())
	h.register(t, "pupil@school.edu")

	err := h.resolver.SignIn(context.Background(), "pupil@school.edu", "wrong")
	require.Error(t, err)

	last := h.toasts.last()
	assert.False(t, last.ok)
	assert.Equal(t, "Invalid login credentials", last.message)
	assert.Equal(t, session.PhaseUnauthenticated, h.resolver.State().Phase)
}

/*
TestResolver_SignOut always clears state and lands on "/", including when the
backend no longer knows the session or is unreachable.
*/
func TestResolver_SignOut(t *testing.T) {
	t.Run("session_not_found", func(t *testing.T) {
		ctx := context.Background()
		h := newHarness(t, sec.HomePath)
		h.resolver.Start(ctx)
		user := h.register(t, "pupil@school.edu")
		require.NoError(t, h.resolver.SignIn(ctx, "pupil@school.edu", password))
		h.awaitRole(t, sec.RoleStudent)
		require.NoError(t, h.storage.Set(ctx, "sb-stale-artifact", "x"))

		require.NoError(t, h.backend.Sessions.RevokeAll(ctx, user.ID))
		h.resolver.SignOut(ctx)

		state := h.resolver.State()
		assert.Nil(t, state.User)
		assert.Nil(t, state.Session)
		assert.Empty(t, state.Role)
		assert.False(t, state.Loading)

		history := h.browser.navigations()
		assert.Equal(t, session.Navigation{To: sec.HomePath, Replace: true}, history[len(history)-1])
		assert.True(t, h.toasts.last().ok)

		keys, err := h.storage.Keys(ctx, "sb-")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("revokes backend sessions", func(t *testing.T) {
		ctx := context.Background()
		h := newHarness(t, sec.HomePath)
		h.resolver.Start(ctx)
		user := h.register(t, "pupil@school.edu")
		require.NoError(t, h.resolver.SignIn(ctx, "pupil@school.edu", password))
		h.awaitRole(t, sec.RoleStudent)

		h.resolver.SignOut(ctx)
		assert.Zero(t, h.backend.Sessions.ActiveCount(user.ID))
		assert.Equal(t, sec.HomePath, h.browser.CurrentPath())
	})

	t.Run("unreachable backend", func(t *testing.T) {
		ctx := context.Background()
		storage := client.NewMemoryStorage()
		require.NoError(t, storage.Set(ctx, "sb-safhub-auth-token", `{"access_token":"t"}`))

		nav := &browser{path: sec.StudentDashboardPath}
		notes := &toasts{}
		resolver := session.New(session.Config{
			Auth:      offlineAuth{},
			Storage:   storage,
			Navigator: nav,
			Notifier:  notes,
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		})

		resolver.SignOut(ctx)

		state := resolver.State()
		assert.Nil(t, state.User)
		assert.Nil(t, state.Session)
		assert.Empty(t, state.Role)
		assert.Equal(t, session.PhaseUnauthenticated, state.Phase)
		assert.Equal(t, []session.Navigation{{To: sec.HomePath, Replace: true}}, nav.navigations())
		assert.False(t, notes.last().ok)

		keys, err := storage.Keys(ctx, "sb-")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

/*
TestResolver_SignOutDiscardsQueuedSignIn signs in and out while the restored
session's role lookups hang. The SIGNED_IN queued behind them must not move
the signed-out user to a dashboard once they complete.
*/
func TestResolver_SignOutDiscardsQueuedSignIn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, sec.HomePath)
	h.register(t, "pupil@school.edu")
	_, err := h.client.SignInWithPassword(ctx, "pupil@school.edu", password)
	require.NoError(t, err)

	h.roles.gate = make(chan struct{})
	started := make(chan struct{})
	go func() {
		defer close(started)
		h.resolver.Start(ctx)
	}()

	// Initial read and INITIAL_SESSION are both stuck in the lookup.
	require.Eventually(t, func() bool { return h.roles.gets.Load() == 2 }, waitFor, tick)

	require.NoError(t, h.resolver.SignIn(ctx, "pupil@school.edu", password))
	h.resolver.SignOut(ctx)
	close(h.roles.gate)

	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("Start did not return")
	}

	assert.Never(t, func() bool { return h.browser.CurrentPath() != sec.HomePath }, 300*time.Millisecond, tick)

	assert.Equal(t, []session.Navigation{{To: sec.HomePath, Replace: true}}, h.browser.navigations())
	state := h.resolver.State()
	assert.Equal(t, session.PhaseUnauthenticated, state.Phase)
	assert.Nil(t, state.User)
	assert.Empty(t, state.Role)
}

/*
TestResolver_SignInAfterSignOutStillRedirects checks that a fresh sign-in
following a sign-out is applied normally.
*/
func TestResolver_SignInAfterSignOutStillRedirects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, sec.HomePath)
	h.resolver.Start(ctx)
	h.register(t, "pupil@school.edu")

	require.NoError(t, h.resolver.SignIn(ctx, "pupil@school.edu", password))
	h.awaitRole(t, sec.RoleStudent)
	h.resolver.SignOut(ctx)
	require.Eventually(t, func() bool {
		return h.resolver.State().Phase == session.PhaseUnauthenticated
	}, waitFor, tick)

	require.NoError(t, h.resolver.SignIn(ctx, "pupil@school.edu", password))
	h.awaitRole(t, sec.RoleStudent)
	require.Eventually(t, func() bool {
		return h.browser.CurrentPath() == sec.StudentDashboardPath
	}, waitFor, tick)
}

// offlineAuth fails every sign-out as an unreachable backend would. Other
// methods are not called.
type offlineAuth struct {
	session.AuthService
}

func (offlineAuth) SignOut(context.Context, client.SignOutScope) error {
	return errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
}

/*
TestResolver_CloseDiscardsLateEvents checks the mounted flag.
*/
func TestResolver_CloseDiscardsLateEvents(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, sec.HomePath)
	h.resolver.Start(ctx)
	h.register(t, "pupil@school.edu")

	h.resolver.Close()

	var changes atomic.Int32
	unsubscribe := h.resolver.Subscribe(func(session.State) { changes.Add(1) })
	defer unsubscribe()

	_, err := h.client.SignInWithPassword(ctx, "pupil@school.edu", password)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, session.PhaseUnauthenticated, h.resolver.State().Phase)
	assert.Zero(t, changes.Load())
	assert.Empty(t, h.browser.navigations())
}

/*
TestResolver_SubscribeObservesPhases records the state machine on sign-in.
*/
func TestResolver_SubscribeObservesPhases(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "/courses/1")

	var (
		mu     sync.Mutex
		phases []session.Phase
	)
	h.resolver.Subscribe(func(state session.State) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, state.Phase)
	})

	h.resolver.Start(ctx)
	h.register(t, "pupil@school.edu")
	require.NoError(t, h.resolver.SignIn(ctx, "pupil@school.edu", password))
	h.awaitRole(t, sec.RoleStudent)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []session.Phase{
		session.PhaseUnauthenticated, // initial read
		session.PhaseUnauthenticated, // INITIAL_SESSION
		session.PhaseAuthenticatingRole,
		session.PhaseAuthenticated,
	}, phases)
}
