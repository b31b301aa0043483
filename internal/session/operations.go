// Copyright (c) 2026 SafHub. All rights reserved.

package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/platform/sec"
)

// Profile holds the sign-up form fields. Role is an optional hint.
type Profile struct {
	FirstName string
	LastName  string
	School    string
	Grade     string
	Role      string
}

/*
SignUp registers an account.

Description: Sweeps stale auth storage, embeds the inferred role in the user
metadata and notifies the outcome. When the backend requires email
confirmation the response carries no session and the user stays signed out.

Returns:
  - *client.SignUpResponse: The new user, plus a session when active
  - err: The backend error, after it has been shown to the user
*/
func (resolver *Resolver) SignUp(context context.Context, email, password string, profile Profile) (*client.SignUpResponse, error) {
	resolver.purgeStorage(context)

	role := resolver.signUpRole(context, email, profile.Role)

	response, err := resolver.auth.SignUp(context, client.SignUpParams{
		Email:    email,
		Password: password,
		Data: client.Metadata{
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			School:    profile.School,
			Grade:     profile.Grade,
			Role:      string(role),
		},
	})
	if err != nil {
		resolver.notifier.Error("Sign up failed", err.Error())
		return nil, err
	}

	if response.Session == nil {
		resolver.notifier.Success("Check your email", "Confirm your email address to finish signing up.")
	} else {
		resolver.notifier.Success("Account created", "Welcome to SafHub!")
	}

	return response, nil
}

// signUpRole picks the metadata role: a storable hint wins over the email
// heuristic. A parent hint cannot be stored and is only logged.
func (resolver *Resolver) signUpRole(context context.Context, email, hint string) sec.UserRole {
	inferred := sec.InferRole(email)

	role, ok := sec.ParseRole(strings.TrimSpace(hint))
	if !ok {
		return inferred
	}
	if !role.IsStorable() {
		resolver.logger.WarnContext(context, "role_hint_not_storable",
			slog.String("hint", string(role)),
			slog.String("fallback", string(inferred)),
		)
		return inferred
	}
	return role
}

// SignIn sweeps stale auth storage and signs in with a password. Role
// resolution and the redirect follow from the SIGNED_IN event.
func (resolver *Resolver) SignIn(context context.Context, email, password string) error {
	resolver.purgeStorage(context)

	if _, err := resolver.auth.SignInWithPassword(context, email, password); err != nil {
		resolver.notifier.Error("Sign in failed", err.Error())
		return err
	}

	resolver.notifier.Success("Welcome back", "Signed in successfully.")
	return nil
}

/*
SignOut signs the user out everywhere.

Description: Local state is cleared first so the UI reflects the sign-out at
once. Storage is then swept and the backend asked to revoke every session.
A missing session counts as success. The user always lands on "/".
*/
func (resolver *Resolver) SignOut(context context.Context) {
	resolver.reset()

	resolver.purgeStorage(context)

	err := resolver.auth.SignOut(context, client.ScopeGlobal)
	switch {
	case err == nil, client.IsSessionMissing(err):
		resolver.notifier.Success("Signed out", "You have been signed out.")
	default:
		resolver.logger.WarnContext(context, "sign_out_remote_failed", slog.Any("error", err))
		resolver.notifier.Error("Sign out failed", err.Error())
	}

	resolver.navigator.Navigate(Navigation{To: sec.HomePath, Replace: true})
}

/*
RefreshUserRole re-resolves the current user's role and re-runs the redirect
decision, so a role changed elsewhere reaches this instance.

Returns:
  - sec.UserRole: The resolved role, or "" when nobody is signed in
*/
func (resolver *Resolver) RefreshUserRole(context context.Context) sec.UserRole {
	current := resolver.State()
	if current.User == nil || current.Session == nil {
		return ""
	}

	resolver.apply(context, current.Session, "", triggerRefresh)
	return resolver.State().Role
}

// purgeStorage removes every key under the auth namespace. Failures are
// logged; the sweep is best effort.
func (resolver *Resolver) purgeStorage(context context.Context) {
	keys, err := resolver.storage.Keys(context, resolver.namespace)
	if err != nil {
		resolver.logger.WarnContext(context, "auth_storage_scan_failed", slog.Any("error", err))
		return
	}

	for _, key := range keys {
		if err := resolver.storage.Remove(context, key); err != nil {
			resolver.logger.WarnContext(context, "auth_storage_remove_failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}

	if len(keys) > 0 {
		resolver.logger.DebugContext(context, "auth_storage_purged", slog.Int("keys", len(keys)))
	}
}
