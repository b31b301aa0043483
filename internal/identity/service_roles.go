// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safhub/safhub/internal/platform/apperr"
	"github.com/safhub/safhub/internal/platform/sec"
	"github.com/safhub/safhub/internal/platform/validate"
	"github.com/safhub/safhub/pkg/uuid"
)

// RoleService guards access to the user_roles table.
//
// Row-level policy:
//   - a user may read and insert only their own row, once;
//   - an admin may read any row and replace any row;
//   - nobody may store "parent", which is not in the app_role enum.
type RoleService struct {
	roleRepository RoleRepository
	logger         *slog.Logger
}

// NewRoleService constructs a new [RoleService].
func NewRoleService(roleRepo RoleRepository, logger *slog.Logger) *RoleService {
	return &RoleService{roleRepository: roleRepo, logger: logger}
}

// GetRole returns the stored role row for userID.
func (service *RoleService) GetRole(context context.Context, actorID, userID string) (*RoleAssignment, error) {
	if actorID != userID && !service.isAdmin(context, actorID) {
		return nil, apperr.Forbidden("Cannot read another user's role")
	}
	if !uuid.Valid(userID) {
		return nil, apperr.RowNotFound("Role")
	}
	return service.roleRepository.FindByUserID(context, userID)
}

/*
InsertRole creates the caller's own role row.

Returns:
  - *RoleAssignment: The created row
  - err: 403 for other users, 400 for non-storable roles, 23505 if a row exists
*/
func (service *RoleService) InsertRole(context context.Context, actorID, userID string, role sec.UserRole) (*RoleAssignment, error) {
	if actorID != userID {
		return nil, apperr.Forbidden("Cannot assign a role to another user")
	}

	if err := validate.New("Invalid role").StorableRole(FieldRole, role).Err(); err != nil {
		return nil, err
	}

	assignment, err := service.roleRepository.Insert(context, userID, role)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "role_assigned",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	return assignment, nil
}

// SetRole replaces another user's role. Admin only.
func (service *RoleService) SetRole(context context.Context, actorID, userID string, role sec.UserRole) (*RoleAssignment, error) {
	if !service.isAdmin(context, actorID) {
		return nil, apperr.Forbidden("Only admins can change roles")
	}
	validator := validate.New("Invalid role assignment")
	validator.UUID(FieldUserID, userID).StorableRole(FieldRole, role)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	assignment, err := service.roleRepository.Upsert(context, userID, role)
	if err != nil {
		return nil, fmt.Errorf("identity_role_service_set_failed: %w", err)
	}

	service.logger.InfoContext(context, "role_changed",
		slog.String("actor_id", actorID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	return assignment, nil
}

/*
ListRoles returns a page of role rows, oldest first.

Returns:
  - []*RoleAssignment: The page, never nil
  - int: Rows matching filter across all pages
  - err: 403 unless the actor is an admin, 400 for a non-storable role filter
*/
func (service *RoleService) ListRoles(context context.Context, actorID string, filter RoleFilter, limit, offset int) ([]*RoleAssignment, int, error) {
	if !service.isAdmin(context, actorID) {
		return nil, 0, apperr.Forbidden("Only admins can list roles")
	}
	validator := validate.New("Invalid role filter")
	for _, role := range filter.Roles {
		validator.StorableRole(FieldRole, role)
	}
	if err := validator.Err(); err != nil {
		return nil, 0, err
	}

	assignments, total, err := service.roleRepository.List(context, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("identity_role_service_list_failed: %w", err)
	}
	if assignments == nil {
		assignments = []*RoleAssignment{}
	}
	return assignments, total, nil
}

// isAdmin checks the actor's stored role rather than the token claim, which
// may predate a role change.
func (service *RoleService) isAdmin(context context.Context, actorID string) bool {
	assignment, err := service.roleRepository.FindByUserID(context, actorID)
	return err == nil && assignment.Role == sec.RoleAdmin
}
