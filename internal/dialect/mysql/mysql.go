// Package mysql provides MySQL dialect support: identifier and literal
// quoting, date truncation and the fixture DDL renderer.
package mysql

import (
	"fmt"
	"strings"

	"tableq/internal/dialect"
)

func init() {
	dialect.RegisterDialect(dialect.MySQL, func() dialect.Dialect {
		return NewMySQLDialect()
	})
}

var dateFormats = map[dialect.Granularity]string{
	dialect.GranularityYear:  "%Y",
	dialect.GranularityMonth: "%Y-%m",
	dialect.GranularityDay:   "%Y-%m-%d",
}

// Dialect represents the MySQL dialect. It is stateless.
type Dialect struct{}

// NewMySQLDialect initializes a new MySQL dialect instance.
func NewMySQLDialect() *Dialect {
	return &Dialect{}
}

// Name returns the name of the MySQL dialect.
func (d *Dialect) Name() dialect.Type {
	return dialect.MySQL
}

// QuoteIdentifier is a function used for quote identification inside an SQL dialect.
func (d *Dialect) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// QuoteString is a function used for quote string inside an SQL dialect.
func (d *Dialect) QuoteString(value string) string {
	return "'" + d.EscapeString(value) + "'"
}

// EscapeString escapes the characters MySQL treats specially inside a
// single-quoted literal.
func (d *Dialect) EscapeString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10)

	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString("''")
		case '\\': // Backslash escaped
			b.WriteString(`\\`)
		case '\x00': // NUL byte
			b.WriteString(`\0`)
		case '\n': // Newline
			b.WriteString(`\n`)
		case '\r': // Carriage return
			b.WriteString(`\r`)
		case '\x1A': // Ctrl+Z
			b.WriteString(`\Z`)
		default:
			b.WriteRune(char)
		}
	}
	return b.String()
}

// FormatDate truncates a date column with DATE_FORMAT.
func (d *Dialect) FormatDate(column string, g dialect.Granularity) string {
	return fmt.Sprintf("DATE_FORMAT(%s, '%s')", column, dateFormats[g])
}

// JSONAsText casts a JSON column to CHAR so it scans as a plain string.
func (d *Dialect) JSONAsText(column string) string {
	return fmt.Sprintf("CAST(%s AS CHAR)", column)
}

// Random returns the ordering expression for a random row order.
func (d *Dialect) Random() string {
	return "RAND()"
}
