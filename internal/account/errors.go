// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package account

import "errors"

// Sentinel errors for the failure taxonomy. Services and repositories
// wrap these with oops codes and context; the HTTP boundary maps them
// to status codes with errors.Is.
var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned for any authentication failure.
	// It deliberately does not distinguish "no such account" from
	// "wrong password" to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrDuplicateEmail is returned when signing up with an email that
	// already has an account.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrCodeInvalidOrExpired is returned when a reset code does not
	// match the pending reset, no reset is pending, or the code has
	// reached its expiry instant.
	ErrCodeInvalidOrExpired = errors.New("reset code invalid or expired")

	// ErrResendCooldown is returned when a resend is attempted less
	// than the cooldown interval after the previous send.
	ErrResendCooldown = errors.New("resend cooldown active")

	// ErrDeliveryFailed is returned when the reset notification could
	// not be sent.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrInvalidInput is returned for missing or malformed fields.
	ErrInvalidInput = errors.New("invalid input")
)
