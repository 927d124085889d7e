// Package db owns the process-wide connection provider: one pooled
// database handle opened at startup, passed by reference into every
// service, and closed on shutdown.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// A small warm pool is enough: units of work are short-lived and the
// relay adds only one polling connection.
const (
	DefaultMaxOpenConns = 5
	DefaultMaxIdleConns = 1
)

// Provider wraps the pooled *sql.DB with an explicit open/close lifecycle.
type Provider struct {
	db *sql.DB
}

// Open creates the pool. maxOpen/maxIdle values <= 0 fall back to the
// defaults above.
func Open(dsn string, maxOpen, maxIdle int) (*Provider, error) {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConns
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	return &Provider{db: db}, nil
}

// DB returns the pooled handle. Acquisition and release of individual
// connections is scoped by database/sql itself on every exit path.
func (p *Provider) DB() *sql.DB {
	return p.db
}

// Ping verifies the store is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the pool.
func (p *Provider) Close() error {
	return p.db.Close()
}
