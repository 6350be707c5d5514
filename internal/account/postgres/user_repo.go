// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

// Package postgres provides the PostgreSQL implementation of the
// account repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/kurulus/authd/internal/account"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock's
// PgxPoolIface satisfies it, which keeps unit tests off the network.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements account.UserRepository using PostgreSQL.
// Every write is a single-statement, single-row update; per-document
// atomicity is all the reset flow relies on.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user. A unique violation on the email column is
// reported as account.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *account.User) error {
	var codeHash *string
	var expiresAt *time.Time
	if user.Reset != nil {
		codeHash = &user.Reset.CodeHash
		expiresAt = &user.Reset.ExpiresAt
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (
			id, name, email, password_hash,
			reset_code_hash, reset_expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		user.ID.String(),
		user.Name,
		user.Email,
		user.PasswordHash,
		codeHash,
		expiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("USER_DUPLICATE_EMAIL").
				With("email", user.Email).
				Wrap(account.ErrDuplicateEmail)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash,
		       reset_code_hash, reset_expires_at,
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, matched exactly as stored.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash,
		       reset_code_hash, reset_expires_at,
		       created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// SetPendingReset overwrites the pending reset columns for a user.
// Concurrent requests race here; last writer wins by design.
func (r *UserRepository) SetPendingReset(ctx context.Context, id ulid.ULID, reset account.PendingReset) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET reset_code_hash = $2, reset_expires_at = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), reset.CodeHash, reset.ExpiresAt, time.Now())
	if err != nil {
		return oops.Code("USER_SET_RESET_FAILED").
			With("operation", "set pending reset").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// ApplyPasswordReset sets the password hash and clears the pending
// reset in one statement. The WHERE clause re-checks the code hash and
// expiry so a confirmation racing a fresh request cannot apply against
// a stale code; zero matched rows means invalid or expired.
func (r *UserRepository) ApplyPasswordReset(ctx context.Context, id ulid.ULID, codeHash, passwordHash string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, reset_code_hash = NULL, reset_expires_at = NULL, updated_at = $4
		WHERE id = $1 AND reset_code_hash = $3 AND reset_expires_at > $4
	`, id.String(), passwordHash, codeHash, time.Now())
	if err != nil {
		return oops.Code("USER_APPLY_RESET_FAILED").
			With("operation", "apply password reset").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("RESET_CODE_INVALID").
			With("id", id.String()).
			Wrap(account.ErrCodeInvalidOrExpired)
	}
	return nil
}

// scanUser scans a single row into a User. Callers are responsible for
// handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*account.User, error) {
	var (
		idStr     string
		user      account.User
		codeHash  *string
		expiresAt *time.Time
	)

	err := row.Scan(
		&idStr,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&codeHash,
		&expiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}

	// The schema enforces that both reset columns are set together.
	if codeHash != nil && expiresAt != nil {
		user.Reset = &account.PendingReset{CodeHash: *codeHash, ExpiresAt: *expiresAt}
	}

	return &user, nil
}

// Compile-time interface check.
var _ account.UserRepository = (*UserRepository)(nil)
