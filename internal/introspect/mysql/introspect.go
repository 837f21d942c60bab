// Package mysql contains introspect implementation for MySQL, MariaDB and TiDB,
// since they share the information_schema layout. It detects which flavor it
// talks to and turns every table into a schema.Definition.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"tableq/internal/dialect"
	"tableq/internal/introspect"
)

func init() {
	introspect.Register(dialect.MySQL, New)
}

type introspecter struct{}

type introspectCtx struct {
	db  *sql.DB
	ctx context.Context
}

func New() introspect.Introspecter {
	return &introspecter{}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB, tables ...string) (*introspect.Result, error) {
	r := new(introspect.Result)
	var name sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return nil, fmt.Errorf("failed to read current database: %w", err)
	}
	if !name.Valid {
		return nil, fmt.Errorf("no database selected")
	}
	r.Database = name.String

	flavor, version, err := detectFlavor(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to detect server flavor: %w", err)
	}
	r.Flavor, r.Version = flavor, version

	ic := &introspectCtx{db: db, ctx: ctx}
	if err := introspectTables(ic, r, tables); err != nil {
		return nil, err
	}
	return r, nil
}
