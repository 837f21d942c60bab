package query

import (
	"fmt"
	"strings"

	"tableq/internal/core"
)

// JoinType is the SQL join flavour.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
)

// Join describes one joined engine. Foreign is borrowed: its filter, field
// and view state is reused as-is when the base engine compiles.
type Join struct {
	Type         JoinType
	Foreign      *Table
	LocalField   string
	ForeignField string
	ExtraOn      string
}

func joinAlias(i int) string {
	return fmt.Sprintf("_j%d", i)
}

// joinPart is what one join contributes to a compiled statement.
type joinPart struct {
	from   string
	fields []string
	where  string
	params []string
}

// composeJoin resolves a join against both engines and rewrites the foreign
// engine's qualifier to the join alias.
func (t *Table) composeJoin(i int, j *Join) (joinPart, error) {
	f := j.Foreign
	if err := f.Err(); err != nil {
		return joinPart{}, fmt.Errorf("join %s with %q: %w", joinAlias(i), f.schema.Name, err)
	}

	local := t.resolver()
	foreign := f.resolver()
	alias := joinAlias(i)

	lf, ok := local.Resolve(j.LocalField)
	if !ok {
		return joinPart{}, t.invalid("join", j.LocalField, "unknown local join field")
	}
	ff, ok := foreign.Resolve(j.ForeignField)
	if !ok {
		return joinPart{}, &core.ValidationError{Entity: "join", Name: f.schema.Name, Field: j.ForeignField, Message: "unknown foreign join field"}
	}

	on := local.Column(lf) + " = " + alias + "." + ff.Name
	if extra := strings.TrimSpace(j.ExtraOn); extra != "" {
		on += " AND " + extra
	}

	part := joinPart{
		from: fmt.Sprintf("%s JOIN %s AS %s ON (%s)", j.Type, t.dialect.QuoteIdentifier(f.schema.Object), alias, on),
	}

	rewrite := strings.NewReplacer(foreign.Qualifier()+".", alias+".")
	for _, field := range f.selectFields(nil).fields {
		part.fields = append(part.fields, rewrite.Replace(field))
	}

	where, params, err := f.whereClause(f.where)
	if err != nil {
		return joinPart{}, fmt.Errorf("join %s with %q: %w", alias, f.schema.Name, err)
	}
	part.where = rewrite.Replace(joinWhere(where, f.extraWhere))
	part.params = params
	return part, nil
}

func (t *Table) validateJoin(j *Join) error {
	switch j.Type {
	case JoinInner, JoinLeft:
	default:
		return t.invalid("join", string(j.Type), "join type must be inner or left")
	}
	if j.Foreign == nil {
		return t.invalid("join", j.LocalField, "foreign table is nil")
	}
	if j.Foreign == t {
		return t.invalid("join", j.LocalField, "a table cannot join itself")
	}
	if len(j.Foreign.joins) > 0 {
		return t.invalid("join", j.Foreign.schema.Name, "joined table has joins of its own")
	}
	if strings.TrimSpace(j.LocalField) == "" || strings.TrimSpace(j.ForeignField) == "" {
		return t.invalid("join", j.Foreign.schema.Name, "join fields are required")
	}
	return nil
}
