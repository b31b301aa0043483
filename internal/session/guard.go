// Copyright (c) 2026 SafHub. All rights reserved.

package session

import (
	"slices"

	"github.com/safhub/safhub/internal/platform/sec"
)

// GuardDecision is the outcome of a protected-route check.
type GuardDecision struct {
	// Wait is true while the resolver is still loading.
	Wait bool
	// Allow is true when the route may render.
	Allow bool
	// Redirect is the route to go to instead, when neither waiting nor allowed.
	Redirect string
}

/*
Guard checks whether state may view a route restricted to allowed roles. An
empty allowed list admits any signed-in user.

  - loading                -> wait
  - signed out             -> "/"
  - role not in allowed    -> the role's own dashboard
  - otherwise              -> allow
*/
func Guard(state State, allowed ...sec.UserRole) GuardDecision {
	if state.Loading {
		return GuardDecision{Wait: true}
	}
	if state.User == nil {
		return GuardDecision{Redirect: sec.HomePath}
	}
	if len(allowed) > 0 && !slices.Contains(allowed, state.Role) {
		return GuardDecision{Redirect: sec.DashboardPath(state.Role)}
	}
	return GuardDecision{Allow: true}
}
