// Copyright (c) 2026 SafHub. All rights reserved.

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/safhub/safhub/internal/client"
	"github.com/safhub/safhub/internal/platform/sec"
)

/*
resolveRole returns the role of user, assigning one on first login.

Description: Lookup failures never surface. They degrade to student.

  - stored row        -> adopt it
  - no row (PGRST116) -> infer from the email, insert, adopt
  - insert hits 23505 -> a concurrent resolution inserted first; re-read it
  - insert fails      -> student, no retry
  - lookup fails      -> student
*/
func (resolver *Resolver) resolveRole(context context.Context, user *client.User) sec.UserRole {
	row, err := resolver.roles.Get(context, user.ID)
	if err == nil {
		return row.Role
	}

	if !errors.Is(err, client.ErrRoleNotFound) {
		resolver.logger.WarnContext(context, "role_lookup_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return sec.RoleStudent
	}

	inferred := sec.InferRole(user.Email)

	row, err = resolver.roles.Insert(context, user.ID, inferred)
	if err == nil {
		resolver.logger.InfoContext(context, "role_assigned",
			slog.String("user_id", user.ID),
			slog.String("role", string(row.Role)),
		)
		return row.Role
	}

	if client.IsUniqueViolation(err) {
		if row, rereadErr := resolver.roles.Get(context, user.ID); rereadErr == nil {
			return row.Role
		}
	}

	resolver.logger.ErrorContext(context, "role_assign_failed",
		slog.String("user_id", user.ID),
		slog.String("role", string(inferred)),
		slog.Any("error", err),
	)
	return sec.RoleStudent
}

/*
RedirectFor decides where a user with role should go from path.

  - "/"                              -> the role's dashboard
  - another role's "-dashboard" path -> the role's dashboard
  - anything else                    -> stay (ok is false)
*/
func RedirectFor(path string, role sec.UserRole) (navigation Navigation, ok bool) {
	target := sec.DashboardPath(role)

	switch {
	case path == sec.HomePath:
		return Navigation{To: target}, true
	case strings.Contains(path, sec.DashboardMarker) && path != target:
		return Navigation{To: target}, true
	default:
		return Navigation{}, false
	}
}
