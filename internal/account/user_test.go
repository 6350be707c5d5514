// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package account_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurulus/authd/internal/account"
)

func TestNewUser(t *testing.T) {
	t.Run("valid user gets an ID and timestamps", func(t *testing.T) {
		user, err := account.NewUser("Ada", "ada@x.com", "somehash")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, "ada@x.com", user.Email)
		assert.Equal(t, "somehash", user.PasswordHash)
		assert.Nil(t, user.Reset)
		assert.False(t, user.CreatedAt.IsZero())
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)
	})

	t.Run("IDs are unique", func(t *testing.T) {
		u1, err := account.NewUser("A", "a@x.com", "h")
		require.NoError(t, err)
		u2, err := account.NewUser("A", "a@x.com", "h")
		require.NoError(t, err)
		assert.NotEqual(t, u1.ID, u2.ID)
	})

	t.Run("empty password hash rejected", func(t *testing.T) {
		_, err := account.NewUser("Ada", "ada@x.com", "")
		assert.ErrorIs(t, err, account.ErrInvalidInput)
	})
}

func TestValidateName(t *testing.T) {
	t.Run("accepts normal names", func(t *testing.T) {
		assert.NoError(t, account.ValidateName("Ada"))
		assert.NoError(t, account.ValidateName("a"))
		assert.NoError(t, account.ValidateName(strings.Repeat("x", account.MaxNameLength)))
	})

	t.Run("rejects empty", func(t *testing.T) {
		assert.ErrorIs(t, account.ValidateName(""), account.ErrInvalidInput)
	})

	t.Run("rejects too long", func(t *testing.T) {
		err := account.ValidateName(strings.Repeat("x", account.MaxNameLength+1))
		assert.ErrorIs(t, err, account.ErrInvalidInput)
	})
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b", "ada@example.com", "first.last+tag@sub.example.org"}
	for _, email := range valid {
		assert.NoError(t, account.ValidateEmail(email), "email %q", email)
	}

	invalid := []string{"", "plain", "@x.com", "a@", "a b@x.com", "a@x .com", "a@@x.com"}
	for _, email := range invalid {
		assert.ErrorIs(t, account.ValidateEmail(email), account.ErrInvalidInput, "email %q", email)
	}
}

func TestUser_HasPendingReset(t *testing.T) {
	now := time.Now()

	t.Run("nil reset", func(t *testing.T) {
		user := &account.User{}
		assert.False(t, user.HasPendingReset(now))
	})

	t.Run("unexpired reset", func(t *testing.T) {
		user := &account.User{Reset: &account.PendingReset{CodeHash: "h", ExpiresAt: now.Add(time.Minute)}}
		assert.True(t, user.HasPendingReset(now))
	})

	t.Run("expired reset", func(t *testing.T) {
		user := &account.User{Reset: &account.PendingReset{CodeHash: "h", ExpiresAt: now}}
		assert.False(t, user.HasPendingReset(now))
	})
}

func TestUser_Identity(t *testing.T) {
	user, err := account.NewUser("Ada", "ada@x.com", "somehash")
	require.NoError(t, err)

	identity := user.Identity()
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, "ada@x.com", identity.Email)
	assert.Equal(t, "Ada", identity.Name)
}
