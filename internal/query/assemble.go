package query

import (
	"fmt"
	"strconv"
	"strings"

	"tableq/internal/core"
	"tableq/internal/dialect"
)

// Compiled is an assembled SELECT. It is not modified after compilation.
type Compiled struct {
	ID       string   `json:"id"`
	Table    string   `json:"table"`
	Distinct bool     `json:"distinct,omitempty"`
	Select   []string `json:"select"`
	From     string   `json:"from"`
	Where    string   `json:"where,omitempty"`
	GroupBy  string   `json:"groupBy,omitempty"`
	OrderBy  string   `json:"orderBy,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
	Params   []string `json:"params,omitempty"`
	// Template holds the statement with %s placeholders.
	Template string `json:"template"`
	// Statement holds the statement with parameters substituted.
	Statement string `json:"statement"`
}

func (c *Compiled) String() string { return c.Statement }

// Placeholders counts the %s slots in the template.
func (c *Compiled) Placeholders() int {
	return strings.Count(c.Template, placeholder)
}

func (c *Compiled) render() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if c.Distinct {
		b.WriteString(distinctPrefix)
	}
	b.WriteString(strings.Join(c.Select, ", "))
	b.WriteString(" FROM ")
	b.WriteString(c.From)
	if c.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(c.Where)
	}
	if c.GroupBy != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(c.GroupBy)
	}
	if c.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(c.OrderBy)
	}
	if c.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(c.Limit))
		if c.Offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(c.Offset))
		}
	}
	return b.String()
}

// Substitute replaces each %s in template with the next parameter, escaped
// for d. Substituted text is never rescanned.
func Substitute(template string, params []string, d dialect.Dialect) (string, error) {
	if n := strings.Count(template, placeholder); n != len(params) {
		return "", &core.ValidationError{
			Entity:  "statement",
			Name:    "select",
			Message: fmt.Sprintf("%d placeholders but %d parameters", n, len(params)),
		}
	}

	var b strings.Builder
	b.Grow(len(template))
	rest := template
	for _, p := range params {
		idx := strings.Index(rest, placeholder)
		b.WriteString(rest[:idx])
		b.WriteString(d.EscapeString(p))
		rest = rest[idx+len(placeholder):]
	}
	b.WriteString(rest)
	return b.String(), nil
}

// joinWhere AND-combines non-empty fragments.
func joinWhere(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " AND ")
}
