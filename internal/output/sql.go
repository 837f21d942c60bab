package output

import (
	"fmt"
	"strconv"
	"strings"

	"tableq/internal/dialect/mysql"
	"tableq/internal/lint"
	"tableq/internal/query"
)

type sqlFormatter struct{}

// FormatCompiled writes the executable statement, terminated.
func (sqlFormatter) FormatCompiled(c *query.Compiled) (string, error) {
	if c == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "-- tableq query %s (%s)\n", c.ID, c.Table)
	sb.WriteString(normalizeStatement(c.Statement))
	sb.WriteString("\n")
	return sb.String(), nil
}

// FormatRows writes rows as a VALUES list with a column comment.
func (sqlFormatter) FormatRows(rows []query.Row) (string, error) {
	if len(rows) == 0 {
		return "-- 0 rows\n", nil
	}

	cols := columns(rows)
	d := mysql.NewMySQLDialect()

	var sb strings.Builder
	fmt.Fprintf(&sb, "-- %d rows\n", len(rows))
	fmt.Fprintf(&sb, "-- columns: %s\n", strings.Join(cols, ", "))
	for i, row := range rows {
		values := make([]string, 0, len(cols))
		for _, c := range cols {
			values = append(values, literal(d, row[c]))
		}
		sep := ","
		if i == len(rows)-1 {
			sep = ";"
		}
		fmt.Fprintf(&sb, "(%s)%s\n", strings.Join(values, ", "), sep)
	}
	return sb.String(), nil
}

// FormatLint writes findings as SQL comments above each statement.
func (sqlFormatter) FormatLint(results []*lint.Result) (string, error) {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "-- ERROR: %s\n", e)
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "-- [%s] %s\n", w.Level, w.Message)
		}
		if r.OK() && len(r.Warnings) == 0 {
			sb.WriteString("-- OK\n")
		}
		if stmt := normalizeStatement(r.SQL); stmt != "" {
			sb.WriteString(stmt)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

type quoter interface {
	QuoteString(string) string
}

func literal(q quoter, v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return q.QuoteString(x)
	default:
		return q.QuoteString(fmt.Sprint(x))
	}
}
