// Package sqldb runs assembled statements through database/sql. The MySQL
// driver is registered here; any other registered driver (SQLite in tests)
// works the same way.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"tableq/internal/query"
)

// DefaultDriver is used when Options.Driver is empty.
const DefaultDriver = "mysql"

// Options describe how to reach the database.
type Options struct {
	Driver string
	DSN    string
	Logger *slog.Logger
}

// Client executes statements and returns rows keyed by column label. It
// implements query.Executor.
type Client struct {
	db     *sql.DB
	logger *slog.Logger
}

// New wraps an already opened handle. The caller keeps ownership of db.
func New(db *sql.DB, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{db: db, logger: logger}
}

// Open establishes a connection and pings it to test the connection.
func Open(ctx context.Context, options Options) (*Client, error) {
	driver := options.Driver
	if driver == "" {
		driver = DefaultDriver
	}

	db, err := sql.Open(driver, options.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return New(db, options.Logger), nil
}

// DB returns the underlying handle.
func (c *Client) DB() *sql.DB { return c.db }

// Close closes the connection. Closing a client without a handle is safe.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Execute runs statement and scans every row into a map keyed by column
// label. When two columns share a label the last one wins.
func (c *Client) Execute(ctx context.Context, statement string) ([]query.Row, error) {
	rows, err := c.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			c.logger.Warn("failed to close rows", "error", closeErr)
		}
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := make([]query.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(query.Row, len(columns))
		for i, col := range columns {
			row[col] = copyBytes(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	c.logger.Debug("statement executed", "rows", len(out))
	return out, nil
}

// Drivers may reuse the memory behind []byte values after the next scan.
func copyBytes(v any) any {
	if b, ok := v.([]byte); ok {
		return append([]byte(nil), b...)
	}
	return v
}
