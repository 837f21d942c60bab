// Package dialect provides a unified interface for the SQL dialects the query
// engine can target. Every dialect-specific fragment the engine emits
// (identifier quoting, parameter escaping, date truncation, JSON casting and
// random ordering) goes through this interface.
package dialect

import (
	"sort"

	"tableq/internal/core"
)

type Type string

const (
	MySQL    Type = "mysql"
	BigQuery Type = "bigquery"
)

// Granularity is the precision a date bound is truncated to before comparison.
type Granularity int

const (
	GranularityYear Granularity = iota
	GranularityMonth
	GranularityDay
)

// GranularityForBound selects the truncation for a date bound by its length:
// 4 (2021), 7 (2021-06) or 10 (2021-06-30) characters.
func GranularityForBound(bound string) (Granularity, bool) {
	switch len(bound) {
	case 4:
		return GranularityYear, true
	case 7:
		return GranularityMonth, true
	case 10:
		return GranularityDay, true
	default:
		return 0, false
	}
}

func (g Granularity) String() string {
	switch g {
	case GranularityYear:
		return "year"
	case GranularityMonth:
		return "month"
	case GranularityDay:
		return "day"
	default:
		return "unknown"
	}
}

// Dialect interface creates a way to emit statements for a specific SQL engine.
type Dialect interface {
	Name() Type
	QuoteIdentifier(name string) string
	QuoteString(value string) string
	// EscapeString escapes value for use inside an already quoted literal.
	EscapeString(value string) string
	// FormatDate wraps an already qualified column in a truncating expression.
	FormatDate(column string, g Granularity) string
	// JSONAsText casts a JSON column to a string the driver can scan.
	JSONAsText(column string) string
	Random() string
	// CreateTable renders DDL for a resolved table, used for fixtures and
	// the CLI's ddl command.
	CreateTable(t *core.Table) string
}

var registry = map[Type]func() Dialect{}

// RegisterDialect creates a new registry entry for the specified dialect.
func RegisterDialect(d Type, ctor func() Dialect) {
	registry[d] = ctor
}

// GetDialect returns the dialect for the specified type from the registry
func GetDialect(d Type) Dialect {
	if ctor, ok := registry[d]; ok {
		return ctor()
	}
	if ctor, ok := registry[MySQL]; ok {
		return ctor()
	}
	return nil
}

// Registered returns the registered dialect names in sorted order.
func Registered() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
