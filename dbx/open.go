package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

type openOptions struct {
	maxOpenConns int
	maxIdleConns int
	maxRetries   uint64
	baseDelay    time.Duration
}

// OpenOption customizes Open.
type OpenOption func(*openOptions)

// WithMaxOpenConns caps the pool size.
func WithMaxOpenConns(n int) OpenOption {
	return func(o *openOptions) { o.maxOpenConns = n }
}

// WithMaxIdleConns caps idle connections kept in the pool.
func WithMaxIdleConns(n int) OpenOption {
	return func(o *openOptions) { o.maxIdleConns = n }
}

// WithPingRetries sets how many times the startup ping is retried.
func WithPingRetries(n uint64) OpenOption {
	return func(o *openOptions) { o.maxRetries = n }
}

// Open opens a pgx-backed *sql.DB for the given DSN and verifies connectivity
// with a fibonacci-backoff ping. The database coming up slightly after the
// application is the normal case in containerized deployments, so the ping is
// retried a bounded number of times before giving up.
func Open(ctx context.Context, dsn string, opts ...OpenOption) (*sql.DB, error) {
	o := &openOptions{
		maxOpenConns: 10,
		maxIdleConns: 5,
		maxRetries:   5,
		baseDelay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxIdleConns)

	b := retry.WithMaxRetries(o.maxRetries, retry.NewFibonacci(o.baseDelay))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
