// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/oops"
)

// Notifier delivers a message to an email address. Delivery either
// succeeds or fails; there are no retries.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ResetService runs the OTP password-reset flow.
type ResetService struct {
	users    UserRepository
	hasher   PasswordHasher
	notifier Notifier
	now      func() time.Time
}

// NewResetService creates a new ResetService.
func NewResetService(users UserRepository, hasher PasswordHasher, notifier Notifier) (*ResetService, error) {
	if users == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if notifier == nil {
		return nil, oops.Code("RESET_SERVICE_INVALID").Errorf("notifier is required")
	}
	return &ResetService{
		users:    users,
		hasher:   hasher,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// Request generates a fresh reset code for the account, persists it
// with a 15-minute expiry, and mails it. Returns ErrNotFound if no
// account has the email; this leaks account existence and is kept as
// the documented behavior of the flow rather than silently hardened.
//
// The code is persisted before the send attempt and is NOT rolled back
// on delivery failure, so a valid-but-unsent code can remain pending.
// Delivery failure surfaces as ErrDeliveryFailed.
func (s *ResetService) Request(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err //nolint:wrapcheck // Repository already wraps with context
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	return s.issueAndSend(ctx, user, "Your reset code", requestBody)
}

// Resend issues a new code for an account that may already have one
// pending. Refuses with ErrResendCooldown when the pending code still
// has more than validity-minus-cooldown remaining, which enforces at
// least 60 seconds between sends. The new code replaces the old one.
func (s *ResetService) Resend(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err //nolint:wrapcheck // Repository already wraps with context
		}
		return oops.Code("RESET_RESEND_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	if user.Reset != nil && user.Reset.InCooldownAt(s.now()) {
		return oops.Code("RESET_COOLDOWN").Wrap(ErrResendCooldown)
	}

	return s.issueAndSend(ctx, user, "Your new reset code", resendBody)
}

// Confirm finalizes a reset: validates the code against the pending
// state, hashes the new password, and applies it while clearing the
// pending reset in a single atomic update. A wrong or expired code
// never mutates the stored password hash.
func (s *ResetService) Confirm(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return oops.Code("RESET_INVALID_PASSWORD").
			Wrapf(ErrInvalidInput, "new password cannot be empty")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err //nolint:wrapcheck // Repository already wraps with context
		}
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	if user.Reset == nil || user.Reset.ExpiredAt(s.now()) || !VerifyResetCode(code, user.Reset.CodeHash) {
		return oops.Code("RESET_CODE_INVALID").Wrap(ErrCodeInvalidOrExpired)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	// The repository guards on the code hash and expiry again, so a
	// Confirm racing a fresh Request loses cleanly instead of applying
	// against a stale code.
	if err := s.users.ApplyPasswordReset(ctx, user.ID, user.Reset.CodeHash, hash); err != nil {
		if errors.Is(err, ErrCodeInvalidOrExpired) {
			return err //nolint:wrapcheck // Repository already wraps with context
		}
		return oops.Code("RESET_CONFIRM_FAILED").
			With("operation", "apply password reset").
			Wrap(err)
	}

	return nil
}

// issueAndSend generates a code, persists the pending reset, then
// mails the code. Persist-then-send: the pending state stays in place
// even when delivery fails.
func (s *ResetService) issueAndSend(ctx context.Context, user *User, subject string, body func(code string) string) error {
	code, hash, err := GenerateResetCode()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset code").
			Wrap(err)
	}

	reset, err := NewPendingReset(hash, s.now().Add(ResetCodeValidity))
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "new pending reset").
			Wrap(err)
	}

	if err := s.users.SetPendingReset(ctx, user.ID, reset); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "persist pending reset").
			Wrap(err)
	}

	if err := s.notifier.Send(ctx, user.Email, subject, body(code)); err != nil {
		return oops.Code("RESET_DELIVERY_FAILED").
			With("operation", "send reset code").
			Wrapf(ErrDeliveryFailed, "sending reset code: %s", err)
	}

	return nil
}

func requestBody(code string) string {
	return fmt.Sprintf("Your verification code: %s\nExpires in 15 minutes.", code)
}

func resendBody(code string) string {
	return fmt.Sprintf("Your new verification code: %s\nExpires in 15 minutes.", code)
}
