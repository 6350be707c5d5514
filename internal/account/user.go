// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package account

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Name validation constraints.
const (
	MinNameLength = 1
	MaxNameLength = 100
)

// emailRegex is deliberately lax: one non-empty local part, one @, one
// non-empty domain. Real validation happens by delivering mail there.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// User represents a credential account.
type User struct {
	ID           ulid.ULID
	Name         string
	Email        string
	PasswordHash string
	Reset        *PendingReset // nil unless a password reset is pending
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the assertion returned by successful authentication.
// It carries only the fields downstream consumers may see.
type Identity struct {
	ID    ulid.ULID
	Email string
	Name  string
}

// Identity returns the identity assertion for the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

// HasPendingReset returns true if a reset is pending and not yet
// expired at the given instant.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.Reset != nil && !u.Reset.ExpiredAt(now)
}

// NewUser creates a validated User with a fresh ULID. The password
// hash must already be computed; this package never stores plaintext.
func NewUser(name, email, passwordHash string) (*User, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Wrap(ErrInvalidInput)
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateName validates a display name.
func ValidateName(name string) error {
	if len(name) < MinNameLength {
		return oops.Code("ACCOUNT_INVALID_NAME").
			Wrapf(ErrInvalidInput, "name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return oops.Code("ACCOUNT_INVALID_NAME").
			With("max", MaxNameLength).
			Wrapf(ErrInvalidInput, "name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ValidateEmail validates an email address shape.
func ValidateEmail(email string) error {
	if email == "" || !emailRegex.MatchString(email) {
		return oops.Code("ACCOUNT_INVALID_EMAIL").
			Wrapf(ErrInvalidInput, "invalid email address")
	}
	return nil
}

// UserRepository manages account persistence. The email column is the
// unique lookup key for every flow.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicateEmail if the email
	// is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-sensitive, as stored).
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetPendingReset overwrites the pending reset for a user. A prior
	// pending reset, if any, is replaced; last writer wins.
	SetPendingReset(ctx context.Context, id ulid.ULID, reset PendingReset) error

	// ApplyPasswordReset sets the password hash and clears the pending
	// reset in a single atomic update, guarded by the stored code hash
	// and an unexpired expiry. Returns ErrCodeInvalidOrExpired if the
	// guard does not match any row.
	ApplyPasswordReset(ctx context.Context, id ulid.ULID, codeHash, passwordHash string) error
}
