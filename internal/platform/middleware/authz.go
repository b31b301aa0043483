// Copyright (c) 2026 SafHub. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/ctxutil"
	"github.com/safhub/safhub/internal/platform/respond"
	"github.com/safhub/safhub/internal/platform/sec"
)

// TokenVerifier checks a bearer access token. [*sec.TokenService]
// satisfies it.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// identityProbe lets [StructuredLogger] learn who the caller was after the
// inner handlers have run.
type identityProbe struct {
	userID string
}

type probeKey struct{}

func withIdentityProbe(ctx context.Context, probe *identityProbe) context.Context {
	return context.WithValue(ctx, probeKey{}, probe)
}

/*
Authenticate verifies an optional "Authorization: Bearer" header.

Description: Requests without the header continue anonymously; sign-up and
sign-in need that. A malformed header or a bad token is rejected with 401
so the client can tell an expired session from a missing one.
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			if probe, ok := request.Context().Value(probeKey{}).(*identityProbe); ok {
				probe.userID = claims.UserID
			}
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithClaims(request.Context(), claims)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.Claims(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole rejects callers whose token role ranks below role.
//
// The claim is the role minted at sign-in, so a demotion only shows up
// here after the next refresh. Handlers that must see the current role
// re-read it from user_roles.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.Claims(request.Context())
			switch {
			case claims == nil:
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			case !sec.UserRole(claims.Role).AtLeast(role):
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
			default:
				next.ServeHTTP(writer, request)
			}
		})
	}
}
