// Package bigquery provides the BigQuery Standard SQL dialect.
package bigquery

import (
	"fmt"
	"strings"

	"tableq/internal/core"
	"tableq/internal/dialect"
)

func init() {
	dialect.RegisterDialect(dialect.BigQuery, func() dialect.Dialect {
		return NewBigQueryDialect()
	})
}

var dateFormats = map[dialect.Granularity]string{
	dialect.GranularityYear:  "%Y",
	dialect.GranularityMonth: "%Y-%m",
	dialect.GranularityDay:   "%Y-%m-%d",
}

// Type tokens mapped onto BigQuery column types by storage family.
var columnTypes = map[core.StorageType]string{
	core.StorageInteger: "NUMERIC",
	core.StorageText:    "STRING",
	core.StorageDate:    "DATE",
	core.StorageJSON:    "JSON",
	core.StorageOther:   "STRING",
}

// Dialect represents the BigQuery dialect. It is stateless.
type Dialect struct{}

// NewBigQueryDialect initializes a new BigQuery dialect instance.
func NewBigQueryDialect() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Name() dialect.Type {
	return dialect.BigQuery
}

// QuoteIdentifier wraps name in backticks; embedded backticks are
// backslash-escaped as BigQuery requires.
func (d *Dialect) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `\`, `\\`)
	name = strings.ReplaceAll(name, "`", "\\`")
	return "`" + name + "`"
}

func (d *Dialect) QuoteString(value string) string {
	return "'" + d.EscapeString(value) + "'"
}

// EscapeString applies BigQuery's backslash escapes for string literals.
func (d *Dialect) EscapeString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10)

	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\x00':
			b.WriteString(`\x00`)
		default:
			b.WriteRune(char)
		}
	}
	return b.String()
}

func (d *Dialect) FormatDate(column string, g dialect.Granularity) string {
	return fmt.Sprintf("FORMAT_DATE('%s', %s)", dateFormats[g], column)
}

func (d *Dialect) JSONAsText(column string) string {
	return fmt.Sprintf("TO_JSON_STRING(%s)", column)
}

func (d *Dialect) Random() string {
	return "RAND()"
}

// CreateTable renders BigQuery DDL. BigQuery has no enforced primary keys,
// so key fields are only marked NOT NULL.
func (d *Dialect) CreateTable(t *core.Table) string {
	lines := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		line := fmt.Sprintf("  %s %s", d.QuoteIdentifier(f.Name), columnTypes[f.Storage])
		if f.Key {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", d.QuoteIdentifier(t.Object), strings.Join(lines, ",\n"))
}
