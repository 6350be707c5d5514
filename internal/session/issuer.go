// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

// Package session issues and verifies stateless signed session tokens.
//
// A session is a self-contained HS256 JWT carrying the account ID as
// its subject plus the email and name. There is no server-side session
// store and no revocation list; logout is purely a client-side state
// clear. That is an accepted property of stateless tokens here.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/kurulus/authd/internal/account"
)

// DefaultTokenTTL is the session lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail signature,
// structure, or expiry checks.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the JWT claims embedded in a session token. The subject
// is the account ID; email and name are mirrored so pages can render
// the user without a further lookup.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. A zero ttl falls back to DefaultTokenTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, oops.Code("SESSION_SECRET_REQUIRED").Errorf("session signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue wraps an authenticated identity into a signed session token.
func (i *Issuer) Issue(identity account.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: identity.Email,
		Name:  identity.Name,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", oops.Code("SESSION_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses a session token and returns the identity it asserts.
// The ID claim is always copied back into the identity so downstream
// consumers can address the account directly.
func (i *Issuer) Verify(tokenString string) (account.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Code("SESSION_BAD_ALG").Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return account.Identity{}, oops.Code("SESSION_INVALID").Wrapf(ErrInvalidToken, "parse session token: %s", err)
	}
	if !token.Valid {
		return account.Identity{}, oops.Code("SESSION_INVALID").Wrap(ErrInvalidToken)
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return account.Identity{}, oops.Code("SESSION_INVALID").Wrapf(ErrInvalidToken, "parse subject: %s", err)
	}

	return account.Identity{ID: id, Email: claims.Email, Name: claims.Name}, nil
}
