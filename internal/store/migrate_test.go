// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrate struct {
	upErr      error
	version    uint
	dirty      bool
	versionErr error
	sourceErr  error
	dbErr      error

	upCalls int
}

func (f *fakeMigrate) Up() error {
	f.upCalls++
	return f.upErr
}

func (f *fakeMigrate) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}

func (f *fakeMigrate) Close() (error, error) {
	return f.sourceErr, f.dbErr
}

func TestMigrator_Up(t *testing.T) {
	t.Run("applies pending migrations", func(t *testing.T) {
		fake := &fakeMigrate{}
		m := &Migrator{m: fake}

		require.NoError(t, m.Up())
		assert.Equal(t, 1, fake.upCalls)
	})

	t.Run("no change is not an error", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{upErr: migrate.ErrNoChange}}
		assert.NoError(t, m.Up())
	})

	t.Run("real failures propagate", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{upErr: errors.New("dirty database")}}
		err := m.Up()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dirty database")
	})
}

func TestMigrator_Version(t *testing.T) {
	t.Run("reports current version", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 3, dirty: true}}

		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(3), version)
		assert.True(t, dirty)
	})

	t.Run("no applied migrations is version zero", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}

		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), version)
		assert.False(t, dirty)
	})

	t.Run("failures propagate", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: errors.New("connection lost")}}

		_, _, err := m.Version()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection lost")
	})
}

func TestMigrator_Close(t *testing.T) {
	t.Run("clean close", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{}}
		assert.NoError(t, m.Close())
	})

	t.Run("source error surfaces", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{sourceErr: errors.New("source close failed")}}
		err := m.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source close failed")
	})

	t.Run("database error surfaces", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{dbErr: errors.New("db close failed")}}
		err := m.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db close failed")
	})
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://localhost:5432/authd", "pgx5://localhost:5432/authd"},
		{"postgresql://user:pass@db/authd?sslmode=disable", "pgx5://user:pass@db/authd?sslmode=disable"},
		{"pgx5://localhost/authd", "pgx5://localhost/authd"},
		{"sqlite://file.db", "sqlite://file.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, migrateURL(tt.in), "url %q", tt.in)
	}
}

func TestNewMigrator_UnsupportedScheme(t *testing.T) {
	// Driver lookup fails before any connection is attempted.
	_, err := NewMigrator("bogus://nowhere")
	assert.Error(t, err)
}
