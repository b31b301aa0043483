// Copyright (c) 2026 SafHub. All rights reserved.

package identitytest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/safhub/safhub/internal/api"
	"github.com/safhub/safhub/internal/identity"
	"github.com/safhub/safhub/internal/platform/config"
	"github.com/safhub/safhub/internal/platform/constants"
	"github.com/safhub/safhub/internal/platform/sec"
)

// Backend is a running identity API over in-memory storage.
type Backend struct {
	URL string

	Users    *MemoryUsers
	Sessions *MemorySessions
	Roles    *MemoryRoles
	Verify   *MemoryVerificationTokens

	Service      *identity.Service
	TokenService *sec.TokenService
}

// NewBackend starts a backend with the production router and middleware.
// The server is closed when the test ends.
func NewBackend(t testing.TB, options identity.Options) *Backend {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("identitytest: generate key: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokenService := sec.NewTokenServiceFromKey(key, &key.PublicKey, constants.AuthIssuer)

	backend := &Backend{
		Users:        NewMemoryUsers(),
		Sessions:     NewMemorySessions(),
		Roles:        NewMemoryRoles(),
		Verify:       NewMemoryVerificationTokens(),
		TokenService: tokenService,
	}

	backend.Service = identity.NewService(
		backend.Users,
		backend.Sessions,
		backend.Roles,
		backend.Verify,
		tokenService,
		sec.NewPasswordHasher(bcrypt.MinCost),
		options,
		logger,
	)

	context, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{ServerPort: "0", Environment: "test"}
	server := api.NewServer(context, cfg, logger, tokenService, api.Handlers{
		Liveness:  func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
		Readiness: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
		Identity:  identity.NewHandler(backend.Service),
		Roles:     identity.NewRoleHandler(identity.NewRoleService(backend.Roles, logger)),
	})

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	backend.URL = httpServer.URL

	return backend
}
