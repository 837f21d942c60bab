// Package introspect contains a main introspecter interface which lets you read
// table definitions back from a live database. It returns schema.Definition
// values ready for registration, or an error if connection/queries were
// unsuccessful.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"tableq/internal/dialect"
	"tableq/internal/schema"
)

// Result is what an introspecter found in the current database.
type Result struct {
	Database string
	Flavor   string
	Version  string
	Tables   []*schema.Definition
}

type Introspecter interface {
	// Introspect reads the named tables, or every base table when none are
	// given, in the order the database lists them.
	Introspect(ctx context.Context, db *sql.DB, tables ...string) (*Result, error)
}

var (
	registry = make(map[dialect.Type]func() Introspecter)
	mu       sync.RWMutex
)

func Register(d dialect.Type, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[d] = fn
}

func NewIntrospecter(d dialect.Type) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[d]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported dialect %v", d)
	}

	return fn(), nil
}
