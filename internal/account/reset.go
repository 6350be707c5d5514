// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package account

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/samber/oops"
)

// Reset code configuration.
const (
	// ResetCodeMin and ResetCodeMax bound the 6-digit code range.
	// Codes are uniform over the closed range and never shorter than
	// six digits.
	ResetCodeMin = 100000
	ResetCodeMax = 999999

	// ResetCodeValidity is how long a code stays usable after issue.
	ResetCodeValidity = 15 * time.Minute

	// ResendCooldown is the minimum interval between sends for the
	// same account.
	ResendCooldown = time.Minute
)

// PendingReset is the reset state attached to a User while a password
// reset is in flight. The code hash and expiry are a single joint
// value: both present, or the whole struct absent.
type PendingReset struct {
	CodeHash  string
	ExpiresAt time.Time
}

// NewPendingReset creates a validated PendingReset.
func NewPendingReset(codeHash string, expiresAt time.Time) (PendingReset, error) {
	if codeHash == "" {
		return PendingReset{}, oops.Code("RESET_INVALID_HASH").Errorf("code hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return PendingReset{}, oops.Code("RESET_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}
	return PendingReset{CodeHash: codeHash, ExpiresAt: expiresAt}, nil
}

// ExpiredAt returns true if the code is no longer valid at the given
// instant. A code is valid strictly before its expiry and invalid at
// or after it.
func (r PendingReset) ExpiredAt(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}

// InCooldownAt returns true if a resend at the given instant would
// arrive less than ResendCooldown after the previous send. Derived
// from the expiry: a fresh code has the full validity remaining, so
// anything above validity minus cooldown means the last send was under
// a minute ago.
func (r PendingReset) InCooldownAt(t time.Time) bool {
	return r.ExpiresAt.Sub(t) > ResetCodeValidity-ResendCooldown
}

// GenerateResetCode creates a uniformly random 6-digit code and its
// hash. Returns (plaintext_code, sha256_hash, error). The plaintext
// code is mailed to the user; only the hash is stored.
func GenerateResetCode() (code, hash string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(ResetCodeMax-ResetCodeMin+1))
	if err != nil {
		return "", "", oops.Code("RESET_CODE_GENERATE_FAILED").Wrap(err)
	}

	code = (&big.Int{}).Add(n, big.NewInt(ResetCodeMin)).String()
	hash = HashResetCode(code)

	return code, hash, nil
}

// HashResetCode computes the SHA256 hash of a reset code.
func HashResetCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// VerifyResetCode checks if the plaintext code matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
func VerifyResetCode(code, hash string) bool {
	if code == "" || hash == "" {
		return false
	}
	computed := HashResetCode(code)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
