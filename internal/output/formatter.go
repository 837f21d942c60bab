// Package output provides a set of formatters for compiled queries, result
// rows and lint findings. It is extendable and for now provides three
// formats: SQL, JSON and a compact summary.
package output

import (
	"fmt"
	"sort"
	"strings"

	"tableq/internal/lint"
	"tableq/internal/query"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter is an interface for formatting what the CLI produces.
type Formatter interface {
	FormatCompiled(*query.Compiled) (string, error)
	FormatRows([]query.Row) (string, error)
	FormatLint([]*lint.Result) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to SQL format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'sql', 'json', or 'summary'", name)
	}
}

// IsJSON reports whether name selects the JSON format.
func IsJSON(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), string(FormatJSON))
}

func normalizeStatement(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return ""
	}
	if !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	return stmt
}

// columns returns the union of row keys in sorted order.
func columns(rows []query.Row) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

func countWarnings(results []*lint.Result) (warnings, errs int) {
	for _, r := range results {
		warnings += len(r.Warnings)
		errs += len(r.Errors)
	}
	return warnings, errs
}
