// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authd Contributors

// Package store owns the PostgreSQL connection pool and schema
// migrations.
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// New creates a connection pool for the given DSN. The pool is the one
// piece of process-wide shared state: main constructs it once at
// startup and hands it to every repository. It is safe for concurrent
// use across request handlers.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}
	return pool, nil
}

// Ping verifies the pool can reach the database. Used as the readiness
// check.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	if err := pool.Ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}
