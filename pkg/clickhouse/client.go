package clickhouse

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Client owns the pool behind the bar archive.
type Client struct {
	db       *sql.DB
	database string
}

// Open connects with s, sizes the pool and pings once within the dial timeout.
func Open(ctx context.Context, s Settings) (*Client, error) {
	s = s.withDefaults()
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("clickhouse settings: %w", err)
	}

	db, err := sql.Open("clickhouse", s.DSN())
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(s.Pool.MaxOpen)
	db.SetMaxIdleConns(s.Pool.MaxIdle)
	db.SetConnMaxLifetime(s.Pool.MaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, s.DialTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s:%d: %w", s.Host, s.Port, err)
	}
	return &Client{db: db, database: s.Database}, nil
}

// NewClientFromDB wraps an already opened pool.
func NewClientFromDB(db *sql.DB, database string) *Client {
	return &Client{db: db, database: database}
}

func (c *Client) DB() *sql.DB { return c.db }

// Database is the schema the archive tables live in.
func (c *Client) Database() string { return c.database }

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// EnsureBarSchema creates the database and the bar table when missing.
func (c *Client) EnsureBarSchema(ctx context.Context) error {
	return c.InitSchema(ctx, BarSchema(c.database))
}

// InitSchema runs the DDL statements in order; each must be idempotent.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema step %d: %w", i+1, err)
		}
	}
	return nil
}
