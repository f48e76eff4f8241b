// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Querier is the subset of *pgxpool.Pool used by repositories. pgxmock
// pools satisfy it in unit tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnectOptions controls how Connect retries an unreachable database.
type ConnectOptions struct {
	// Attempts is the number of retries after the first failure.
	Attempts uint64
	// Backoff is the initial wait between attempts. It doubles each retry.
	Backoff time.Duration
	Logger  *slog.Logger
}

// DefaultConnectOptions retries for roughly half a minute.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{Attempts: 5, Backoff: time.Second, Logger: slog.Default()}
}

// Connect opens a pool for databaseURL and pings it, retrying with
// exponential backoff while the server is unreachable. Malformed URLs fail
// immediately.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}

	var pool *pgxpool.Pool
	attempt := 0
	backoff := retry.WithMaxRetries(opts.Attempts, retry.NewExponential(opts.Backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return oops.With("attempt", attempt).Wrap(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			opts.Logger.WarnContext(ctx, "database not reachable, retrying",
				"attempt", attempt,
				"error", err)
			return retry.RetryableError(oops.With("attempt", attempt).Wrap(err))
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("attempts", attempt).Wrap(err)
	}
	return pool, nil
}
