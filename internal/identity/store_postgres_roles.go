// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safhub/safhub/internal/platform/dberr"
	"github.com/safhub/safhub/internal/platform/sec"
)

// PostgresRoleRepository implements RoleRepository over public.user_roles.
type PostgresRoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new PostgreSQL implementation of the RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

// FindByUserID returns the role row of a user, PGRST116 when absent.
func (repository *PostgresRoleRepository) FindByUserID(context context.Context, userID string) (*RoleAssignment, error) {
	const query = `
		SELECT user_id, role, created_at, updated_at
		FROM public.user_roles
		WHERE user_id = $1`

	assignment := &RoleAssignment{}
	err := repository.pool.QueryRow(context, query, userID).Scan(
		&assignment.UserID,
		&assignment.Role,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "postgres_role_repo_find_failed")
	}
	return assignment, nil
}

/*
Insert creates the role row of a user.

Description: The primary key on user_id makes this insert-once; a concurrent
second insert for the same user surfaces as 23505.
*/
func (repository *PostgresRoleRepository) Insert(context context.Context, userID string, role sec.UserRole) (*RoleAssignment, error) {
	const query = `
		INSERT INTO public.user_roles (user_id, role)
		VALUES ($1, $2)
		RETURNING user_id, role, created_at, updated_at`

	assignment := &RoleAssignment{}
	err := repository.pool.QueryRow(context, query, userID, string(role)).Scan(
		&assignment.UserID,
		&assignment.Role,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "postgres_role_repo_insert_failed")
	}
	return assignment, nil
}

// Upsert replaces the role row of a user, creating it when absent.
func (repository *PostgresRoleRepository) Upsert(context context.Context, userID string, role sec.UserRole) (*RoleAssignment, error) {
	const query = `
		INSERT INTO public.user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
		RETURNING user_id, role, created_at, updated_at`

	assignment := &RoleAssignment{}
	err := repository.pool.QueryRow(context, query, userID, string(role)).Scan(
		&assignment.UserID,
		&assignment.Role,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Role", "postgres_role_repo_upsert_failed")
	}
	return assignment, nil
}

// List pages through user_roles. COUNT(*) OVER() carries the filtered total
// on every row.
func (repository *PostgresRoleRepository) List(context context.Context, filter RoleFilter, limit, offset int) ([]*RoleAssignment, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT user_id, role, created_at, updated_at, COUNT(*) OVER() AS total
		FROM public.user_roles
		WHERE 1 = 1`)

	args := []any{}
	argID := 1

	if len(filter.Roles) > 0 {
		roles := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			roles[i] = string(role)
		}
		queryBuilder.WriteString(fmt.Sprintf(" AND role::text = ANY($%d)", argID))
		args = append(args, roles)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY created_at ASC, user_id ASC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Role", "postgres_role_repo_list_failed")
	}
	defer rows.Close()

	var (
		assignments []*RoleAssignment
		total       int
	)
	for rows.Next() {
		assignment := &RoleAssignment{}
		if err := rows.Scan(
			&assignment.UserID,
			&assignment.Role,
			&assignment.CreatedAt,
			&assignment.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "Role", "postgres_role_repo_scan_failed")
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Role", "postgres_role_repo_list_failed")
	}

	return assignments, total, nil
}
