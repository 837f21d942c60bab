package query

import (
	"regexp"
	"strings"

	"tableq/internal/core"
)

// fnCallRe matches a single-argument call such as SUM(Price) or
// COUNT(DISTINCT Id) so the argument can be qualified.
var fnCallRe = regexp.MustCompile(`^(\w+)\(\s*((?i:DISTINCT\s+)?)(\w+)\s*\)(.*)$`)

const distinctPrefix = "DISTINCT "

type virtualField struct {
	name string
	expr string
}

// selection is the projection of one engine before joins are merged in.
type selection struct {
	distinct bool
	fields   []string
}

// splitDistinct strips a leading "DISTINCT " from the first requested field.
func splitDistinct(requested []string) ([]string, bool) {
	if len(requested) == 0 {
		return requested, false
	}
	first := strings.TrimSpace(requested[0])
	if len(first) < len(distinctPrefix) || !strings.EqualFold(first[:len(distinctPrefix)], distinctPrefix) {
		return requested, false
	}
	out := append([]string(nil), requested...)
	out[0] = strings.TrimSpace(first[len(distinctPrefix):])
	if out[0] == "" {
		out = out[1:]
	}
	return out, true
}

// selectFields resolves the projection: explicit fields win over the fields
// set on the engine, which win over the schema defaults.
func (t *Table) selectFields(requested []string) selection {
	if len(requested) == 0 {
		requested = t.fields
	}
	requested, distinct := splitDistinct(requested)

	r := t.resolver()
	var out []string
	if r.Mode() == ModeMapped {
		out = t.mappedFields(r, requested)
	} else {
		if len(requested) == 0 {
			requested = t.schema.FieldNames()
		}
		for _, name := range requested {
			out = append(out, t.rawField(r, name))
		}
	}
	return selection{distinct: distinct, fields: out}
}

// mappedFields walks the mapping in declaration order, keeping entries that
// were requested (all when none were) and that belong to the active view.
// Requested entries that are not display names are appended in raw form.
func (t *Table) mappedFields(r Resolver, requested []string) []string {
	wanted := make(map[string]bool, len(requested))
	for _, name := range requested {
		wanted[strings.TrimSpace(name)] = true
	}

	var out []string
	for _, m := range t.schema.Mapping {
		if len(wanted) > 0 && !wanted[m.Alias] {
			continue
		}
		if !m.InView(t.view) {
			continue
		}
		f := t.schema.FindField(m.Field)
		out = append(out, t.fieldExpr(r, f)+" AS "+m.Alias)
	}

	for _, name := range requested {
		name = strings.TrimSpace(name)
		if t.schema.FindAlias(name) != nil {
			continue
		}
		out = append(out, t.rawField(r, name))
	}
	return out
}

func (t *Table) rawField(r Resolver, name string) string {
	name = strings.TrimSpace(name)
	if name == "*" {
		return r.Qualifier() + ".*"
	}
	if m := fnCallRe.FindStringSubmatch(name); m != nil {
		if f := t.schema.FindField(m[3]); f != nil {
			return m[1] + "(" + m[2] + r.Column(f) + ")" + m[4]
		}
		return name
	}
	f := t.schema.FindField(name)
	if f == nil {
		return name
	}
	if f.Storage == core.StorageJSON {
		return t.fieldExpr(r, f) + " AS " + f.Name
	}
	return r.Column(f)
}

// fieldExpr wraps JSON columns so drivers scan them as text.
func (t *Table) fieldExpr(r Resolver, f *core.Field) string {
	if f.Storage == core.StorageJSON {
		return t.dialect.JSONAsText(r.Column(f))
	}
	return r.Column(f)
}

func (t *Table) virtualFields() []string {
	out := make([]string, 0, len(t.virtual))
	for _, v := range t.virtual {
		out = append(out, v.expr+" AS "+v.name)
	}
	return out
}
