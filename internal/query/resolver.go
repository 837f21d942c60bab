package query

import (
	"tableq/internal/core"
	"tableq/internal/dialect"
)

// Mode selects how keys and projections are named.
type Mode int

const (
	// ModeRaw addresses fields by physical name.
	ModeRaw Mode = iota
	// ModeMapped addresses fields by display name.
	ModeMapped
)

func (m Mode) String() string {
	if m == ModeMapped {
		return "mapped"
	}
	return "raw"
}

// Resolver turns caller keys into physical columns of one table. Mapped mode
// falls back to raw names when the table declares no mapping.
type Resolver struct {
	table     *core.Table
	mode      Mode
	qualifier string
}

// NewResolver creates a resolver qualifying columns with the quoted object name.
func NewResolver(t *core.Table, mode Mode, d dialect.Dialect) Resolver {
	if mode == ModeMapped && !t.HasMapping() {
		mode = ModeRaw
	}
	return Resolver{table: t, mode: mode, qualifier: d.QuoteIdentifier(t.Object)}
}

func (r Resolver) Mode() Mode { return r.mode }
func (r Resolver) Table() *core.Table { return r.table }
func (r Resolver) Qualifier() string { return r.qualifier }

// Resolve returns the physical field a key names.
func (r Resolver) Resolve(key string) (*core.Field, bool) {
	name := key
	if r.mode == ModeMapped {
		m := r.table.FindAlias(key)
		if m == nil {
			return nil, false
		}
		name = m.Field
	}
	f := r.table.FindField(name)
	return f, f != nil
}

// Column returns the qualified column expression for a field.
func (r Resolver) Column(f *core.Field) string {
	return r.qualifier + "." + f.Name
}

func (r Resolver) keyError(key string) error {
	msg := "wrong raw key"
	if r.mode == ModeMapped {
		msg = "wrong mapped key"
	}
	return &core.ValidationError{Entity: "filter", Name: r.table.Name, Field: key, Message: msg}
}
