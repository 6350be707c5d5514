// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package account

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

// Service provides signup and credential authentication.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
}

// NewService creates a new Service.
func NewService(users UserRepository, hasher PasswordHasher) (*Service, error) {
	if users == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("ACCOUNT_SERVICE_INVALID").Errorf("password hasher is required")
	}
	return &Service{users: users, hasher: hasher}, nil
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing
// attacks. We still run password verification to make response time
// consistent. This is NOT a real credential - it's a fake hash that
// will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Signup creates a new account. Returns ErrDuplicateEmail if the email
// is already registered and ErrInvalidInput for missing or malformed
// fields.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*User, error) {
	if password == "" {
		return nil, oops.Code("ACCOUNT_INVALID_PASSWORD").
			Wrapf(ErrInvalidInput, "password cannot be empty")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("ACCOUNT_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(name, email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, err //nolint:wrapcheck // Repository already wraps with context
		}
		return nil, oops.Code("ACCOUNT_SIGNUP_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	return user, nil
}

// Authenticate verifies email and password and returns an identity
// assertion on success. Read-only: no account state is mutated.
// Both "no such account" and "wrong password" collapse into
// ErrInvalidCredentials; callers must not be able to tell them apart.
// Uses constant-time operations to prevent timing-based enumeration.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	// Determine which hash to verify against (real or dummy for timing
	// attack prevention).
	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return Identity{}, oops.Code("ACCOUNT_AUTH_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify, even against the dummy hash.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return Identity{}, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return Identity{}, oops.Code("ACCOUNT_AUTH_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return Identity{}, oops.Code("ACCOUNT_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	return user.Identity(), nil
}
