package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"clickstream/internal/adapters/config"
	"clickstream/pkg/errors"
)

const connectTimeout = 10 * time.Second

// Client owns the sink's connection pool: schema setup, bulk inserts and health
type Client struct {
	db *sqlx.DB
}

// NewClient opens the pool and verifies it within a bounded time
func NewClient(ctx context.Context, cfg config.PostgresConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrapf(err, "connect to postgres %s:%d", cfg.Host, cfg.Port)
	}

	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	return &Client{db: db}, nil
}

// NewFromDB wraps an open handle
func NewFromDB(db *sqlx.DB) *Client {
	return &Client{db: db}
}

// Migrate applies statements in order inside one transaction
func (c *Client) Migrate(ctx context.Context, statements ...string) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "migration statement %d", i+1)
		}
	}

	return errors.Wrap(tx.Commit(), "commit migration")
}

// InsertNamed runs a named multi-row INSERT bound to rows, a slice of db-tagged structs.
// It returns the number of rows the database reports as written.
func (c *Client) InsertNamed(ctx context.Context, query string, rows interface{}) (int64, error) {
	res, err := c.db.NamedExecContext(ctx, query, rows)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

// Close closes the pool
func (c *Client) Close() error {
	return c.db.Close()
}

// Health checks database connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
