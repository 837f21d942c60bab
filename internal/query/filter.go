package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tableq/internal/core"
	"tableq/internal/dialect"
)

const placeholder = "%s"

// Numeric operator prefixes, longest first so ">=" wins over ">".
var numericOperators = []string{">=", "<=", "!=", ">", "<"}

// Compiler turns a filter specification into a WHERE fragment and the
// parameters its placeholders bind, in order.
type Compiler struct {
	Resolver Resolver
	Dialect  dialect.Dialect
}

// Compile compiles filters in order. Clauses are AND-joined.
func (c Compiler) Compile(filters Filters) (string, []string, error) {
	clauses := make([]string, 0, len(filters))
	var params []string

	for _, f := range filters {
		clause, p, err := c.compileOne(f)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		params = append(params, p...)
	}
	return strings.Join(clauses, " AND "), params, nil
}

func (c Compiler) compileOne(f Filter) (string, []string, error) {
	if IsRawFragment(f.Key) {
		return c.rawFragment(f)
	}

	field, ok := c.Resolver.Resolve(f.Key)
	if !ok {
		return "", nil, c.Resolver.keyError(f.Key)
	}
	col := c.Resolver.Column(field)

	if tok, ok := f.Value.token(); ok {
		return tokenClause(col, tok, field.Storage.IsDate()), nil, nil
	}

	switch f.Value.Kind() {
	case KindNone:
		return "", nil, c.invalid(f.Key, "filter has no value")
	case KindList:
		return c.listClause(f.Key, col, field, f.Value.Items())
	}

	switch {
	case field.Storage.IsDate():
		return c.dateClause(f.Key, col, f.Value.String())
	case field.Storage.IsNumeric():
		return c.numericClause(f.Key, col, f.Value.String())
	default:
		return textClause(col, f.Value.String())
	}
}

// IsRawFragment reports whether a filter key is a literal SQL condition
// rather than a field name.
//
// Every %s in a raw fragment is a placeholder, so a fragment cannot carry a
// literal LIKE pattern that contains one: pass the pattern as a parameter
// instead, as in Where("Customer LIKE '%s'", Scalar("%son%")).
func IsRawFragment(key string) bool {
	if strings.ContainsAny(key, "(%") {
		return true
	}
	lower := strings.ToLower(key)
	return strings.Contains(lower, " and ") || strings.Contains(lower, " or ")
}

func (c Compiler) rawFragment(f Filter) (string, []string, error) {
	want := strings.Count(f.Key, placeholder)
	params := f.Value.Params()
	if want != len(params) {
		return "", nil, c.invalid(f.Key, fmt.Sprintf("raw fragment has %d placeholders but %d parameters", want, len(params)))
	}
	return "(" + f.Key + ")", params, nil
}

func tokenClause(col, tok string, isDate bool) string {
	switch tok {
	case TokenNull:
		return col + " IS NULL"
	case TokenNotNull:
		return col + " IS NOT NULL"
	case TokenEmpty:
		if isDate {
			return col + " IS NULL"
		}
		return col + " = ''"
	default:
		if isDate {
			return col + " IS NOT NULL"
		}
		return col + " != ''"
	}
}

// dateClause handles "A", "A/", "/B" and "A/B"; each bound is truncated at
// the granularity its length selects.
func (c Compiler) dateClause(key, col, value string) (string, []string, error) {
	from, to, isRange := strings.Cut(value, "/")
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)

	bound := func(b string) (string, error) {
		g, ok := dialect.GranularityForBound(b)
		if !ok {
			return "", c.invalid(key, fmt.Sprintf("date bound %q must be YYYY, YYYY-MM or YYYY-MM-DD", b))
		}
		return c.Dialect.FormatDate(col, g), nil
	}

	if !isRange {
		expr, err := bound(from)
		if err != nil {
			return "", nil, err
		}
		return expr + " = '" + placeholder + "'", []string{from}, nil
	}

	var parts []string
	var params []string
	if from != "" {
		expr, err := bound(from)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, expr+" >= '"+placeholder+"'")
		params = append(params, from)
	}
	if to != "" {
		expr, err := bound(to)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, expr+" <= '"+placeholder+"'")
		params = append(params, to)
	}

	switch len(parts) {
	case 0:
		return "", nil, c.invalid(key, "date range has no bounds")
	case 1:
		return parts[0], params, nil
	default:
		return "(" + strings.Join(parts, " AND ") + ")", params, nil
	}
}

func (c Compiler) numericClause(key, col, value string) (string, []string, error) {
	op := "="
	value = strings.TrimSpace(value)
	for _, candidate := range numericOperators {
		if strings.HasPrefix(value, candidate) {
			op = candidate
			value = strings.TrimSpace(value[len(candidate):])
			break
		}
	}
	if !isNumber(value) {
		return "", nil, c.invalid(key, fmt.Sprintf("value %q is not a number", value))
	}
	return col + " " + op + " " + placeholder, []string{value}, nil
}

func textClause(col, value string) (string, []string, error) {
	negate := strings.HasPrefix(value, "!=")
	if negate {
		value = value[2:]
	}

	var op string
	switch like := strings.Contains(value, "%"); {
	case like && negate:
		op = "NOT LIKE"
	case like:
		op = "LIKE"
	case negate:
		op = "!="
	default:
		op = "="
	}
	return col + " " + op + " '" + placeholder + "'", []string{value}, nil
}

// listClause emits one placeholder per element for every storage family.
func (c Compiler) listClause(key, col string, field *core.Field, items []string) (string, []string, error) {
	if len(items) == 0 {
		return "", nil, c.invalid(key, "list filter is empty")
	}

	slot := "'" + placeholder + "'"
	if field.Storage.IsNumeric() {
		slot = placeholder
	}

	slots := make([]string, len(items))
	params := make([]string, len(items))
	for i, item := range items {
		if field.Storage.IsNumeric() {
			item = strings.TrimSpace(item)
			if !isNumber(item) {
				return "", nil, c.invalid(key, fmt.Sprintf("list element %q is not a number", item))
			}
		}
		slots[i] = slot
		params[i] = item
	}
	return col + " IN (" + strings.Join(slots, ", ") + ")", params, nil
}

func (c Compiler) invalid(key, msg string) error {
	return &core.ValidationError{Entity: "filter", Name: c.Resolver.Table().Name, Field: key, Message: msg}
}

// isNumber accepts decimal literals only. ParseFloat also reads hex floats
// such as 0x1p3, which are emitted unquoted and mean something else to SQL.
func isNumber(s string) bool {
	if strings.ContainsAny(s, "xX") {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}
