// Copyright (c) 2026 SafHub. All rights reserved.

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safhub/safhub/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, passwordhash, firstname, lastname, school, grade, rolehint, isverified, createdat, updatedat`

// scanUser hydrates a User from a row selected with userColumns.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Metadata.FirstName,
		&user.Metadata.LastName,
		&user.Metadata.School,
		&user.Metadata.Grade,
		&user.Metadata.Role,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Returns:
  - error: 23505 when the email is taken, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Metadata.FirstName,
		user.Metadata.LastName,
		user.Metadata.School,
		user.Metadata.Grade,
		user.Metadata.Role,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return dberr.Wrap(err, "User", "postgres_user_repo_create_failed")
}

// FindByEmail retrieves a user record by email, ignoring case.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE lower(email) = lower($1)`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_email_failed")
	}
	return user, nil
}

// FindByID retrieves a user record by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_id_failed")
	}
	return user, nil
}

// MarkVerified flags the account's email as confirmed.
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = `UPDATE users.account SET isverified = TRUE, updatedat = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return dberr.Wrap(err, "User", "postgres_user_repo_mark_verified_failed")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User", "postgres_user_repo_mark_verified_failed")
	}
	return nil
}

// # Session Repository

// PostgresSessionRepository implements SessionRepository using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

const sessionColumns = `id, userid, tokenhash, useragent, ipaddress, expiresat, isrevoked, createdat`

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.IsRevoked,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Create persists a new refresh session.
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.IsRevoked,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}
	return nil
}

// FindByID returns a session by primary key, revoked or not.
func (repository *PostgresSessionRepository) FindByID(context context.Context, sessionID string) (*Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM users.session WHERE id = $1`

	session, err := scanSession(repository.pool.QueryRow(context, query, sessionID))
	if err != nil {
		return nil, dberr.Wrap(err, "Session", "postgres_session_repo_find_by_id_failed")
	}
	return session, nil
}

// FindByTokenHash returns the session owning the given refresh token hash.
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM users.session WHERE tokenhash = $1`

	session, err := scanSession(repository.pool.QueryRow(context, query, tokenHash))
	if err != nil {
		return nil, dberr.Wrap(err, "Session", "postgres_session_repo_find_by_token_failed")
	}
	return session, nil
}

// Revoke invalidates one session.
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	const query = `UPDATE users.session SET isrevoked = TRUE WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, sessionID); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return nil
}

// RevokeAll invalidates every active session of a user.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	const query = `UPDATE users.session SET isrevoked = TRUE WHERE userid = $1 AND NOT isrevoked`

	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}

// RevokeOthers invalidates every active session of a user but the current one.
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, userID, currentSessionID string) error {
	const query = `UPDATE users.session SET isrevoked = TRUE WHERE userid = $1 AND id <> $2 AND NOT isrevoked`

	if _, err := repository.pool.Exec(context, query, userID, currentSessionID); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_others_failed: %w", err)
	}
	return nil
}
