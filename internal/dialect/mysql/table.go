package mysql

import (
	"fmt"
	"strings"

	"tableq/internal/core"
)

// Declared type tokens that are not MySQL column types.
var typeAliases = map[string]string{
	"datetimeiso": "datetime",
	"string":      "varchar(255)",
	"number":      "double",
}

// CreateTable renders a CREATE TABLE statement for the physical object of a
// resolved table. Key fields are NOT NULL and form the primary key.
func (d *Dialect) CreateTable(t *core.Table) string {
	lines := make([]string, 0, len(t.Fields)+1)
	for _, f := range t.Fields {
		lines = append(lines, "  "+d.columnDefinition(f))
	}

	keys := t.Keys()
	if len(keys) > 0 {
		quoted := make([]string, 0, len(keys))
		for _, k := range keys {
			quoted = append(quoted, d.QuoteIdentifier(k.Name))
		}
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", d.QuoteIdentifier(t.Object), strings.Join(lines, ",\n"))
}

func (d *Dialect) columnDefinition(f *core.Field) string {
	parts := []string{d.QuoteIdentifier(f.Name), columnType(f)}
	if f.Key {
		parts = append(parts, "NOT NULL")
	} else {
		parts = append(parts, "NULL")
	}
	return strings.Join(parts, " ")
}

func columnType(f *core.Field) string {
	raw := strings.ToLower(strings.TrimSpace(f.Type))
	if alias, ok := typeAliases[raw]; ok {
		return alias
	}
	if raw == "" {
		return "text"
	}
	return raw
}
