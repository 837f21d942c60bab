package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"tableq/internal/core"
)

// FetchOptions holds per-call settings for the terminal operations.
type FetchOptions struct {
	// Fields overrides the projection for this call. A leading "DISTINCT "
	// on the first entry selects DISTINCT.
	Fields   []string
	Distinct bool
	// Params binds placeholders that appear in the SELECT list, such as
	// those inside virtual field expressions. They precede WHERE params.
	Params []string
}

// FetchOption configures a single fetch.
type FetchOption func(*FetchOptions)

func WithFields(fields ...string) FetchOption {
	return func(o *FetchOptions) { o.Fields = append(o.Fields, fields...) }
}

func Distinct() FetchOption {
	return func(o *FetchOptions) { o.Distinct = true }
}

func WithParams(params ...string) FetchOption {
	return func(o *FetchOptions) { o.Params = append(o.Params, params...) }
}

func buildOptions(opts []FetchOption) FetchOptions {
	var o FetchOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Key is one positional key tuple, matching the table's key fields in
// declaration order.
type Key []string

// Keys builds single-field keys.
func Keys(values ...string) []Key {
	out := make([]Key, 0, len(values))
	for _, v := range values {
		out = append(out, Key{v})
	}
	return out
}

// Fetch compiles and runs a SELECT. Non-empty filters are used for this call
// in place of the stored query where.
func (t *Table) Fetch(ctx context.Context, filters Filters, opts ...FetchOption) ([]Row, error) {
	c, err := t.Compile(filters, opts...)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, c)
}

// FetchOne runs Fetch with LIMIT 1 and returns the first row, or nil.
func (t *Table) FetchOne(ctx context.Context, filters Filters, opts ...FetchOption) (Row, error) {
	if err := t.Err(); err != nil {
		return nil, err
	}
	limit := t.limit
	t.limit = 1
	rows, err := t.Fetch(ctx, filters, opts...)
	t.limit = limit
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Compile assembles the statement Fetch would run without executing it.
func (t *Table) Compile(filters Filters, opts ...FetchOption) (*Compiled, error) {
	if err := t.Err(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	if len(filters) == 0 {
		filters = t.where
	}
	where, whereParams, err := t.whereClause(filters)
	if err != nil {
		return nil, t.fail(err)
	}

	c, joinParams, err := t.base(o)
	if err != nil {
		return nil, t.fail(err)
	}
	c.Where = joinWhere(where, c.Where, t.extraWhere)
	c.GroupBy = t.groupBy
	c.OrderBy = strings.Join(t.order, ", ")
	c.Limit = t.limit
	if t.limit > 0 {
		switch {
		case t.offsetSet:
			c.Offset = t.offset
		case t.page > 0 && t.limit > math.MaxInt/t.page:
			return nil, t.fail(t.invalid("page", "", fmt.Sprintf("offset for page %d with limit %d overflows", t.page, t.limit)))
		default:
			c.Offset = t.limit * t.page
		}
	}
	c.Params = concat(o.Params, whereParams, joinParams)

	if err := t.finish(c); err != nil {
		return nil, t.fail(err)
	}
	return c, nil
}

// FetchByKeys selects the rows whose key fields match the given tuples.
// Each key field gets its own IN list; composite keys are positional.
func (t *Table) FetchByKeys(ctx context.Context, keys []Key, opts ...FetchOption) ([]Row, error) {
	c, err := t.CompileByKeys(keys, opts...)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, c)
}

// FetchOneByKey returns the row for a single key tuple, or nil.
func (t *Table) FetchOneByKey(ctx context.Context, key Key, opts ...FetchOption) (Row, error) {
	rows, err := t.FetchByKeys(ctx, []Key{key}, opts...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// CompileByKeys assembles the statement FetchByKeys would run.
func (t *Table) CompileByKeys(keys []Key, opts ...FetchOption) (*Compiled, error) {
	if err := t.Err(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	where, params, err := t.keysClause(keys)
	if err != nil {
		return nil, t.fail(err)
	}

	c, _, err := t.base(o)
	if err != nil {
		return nil, t.fail(err)
	}
	c.Where = where
	c.Params = concat(o.Params, params)

	if err := t.finish(c); err != nil {
		return nil, t.fail(err)
	}
	return c, nil
}

func (t *Table) keysClause(keys []Key) (string, []string, error) {
	fields := t.schema.Keys()
	if len(fields) == 0 {
		return "", nil, t.invalid("keys", "", "table has no key fields")
	}
	if len(keys) == 0 {
		return "", nil, t.invalid("keys", "", "no keys given")
	}
	for i, k := range keys {
		if len(k) != len(fields) {
			return "", nil, t.invalid("keys", "", fmt.Sprintf("key %d has %d values, table has %d key fields", i, len(k), len(fields)))
		}
	}

	r := t.resolver()
	clauses := make([]string, 0, len(fields))
	var params []string
	for i, f := range fields {
		slot := "'" + placeholder + "'"
		if f.Storage.IsNumeric() {
			slot = placeholder
		}
		slots := make([]string, 0, len(keys))
		for _, k := range keys {
			v := strings.TrimSpace(k[i])
			if f.Storage.IsNumeric() && !isNumber(v) {
				return "", nil, t.invalid("keys", f.Name, fmt.Sprintf("key value %q is not a number", v))
			}
			slots = append(slots, slot)
			params = append(params, v)
		}
		clauses = append(clauses, fmt.Sprintf("%s IN ( %s )", r.Column(f), strings.Join(slots, ", ")))
	}
	return strings.Join(clauses, " AND "), params, nil
}

// whereClause compiles filters against this engine's resolver. Extra
// conditions are added by the caller.
func (t *Table) whereClause(filters Filters) (string, []string, error) {
	c := Compiler{Resolver: t.resolver(), Dialect: t.dialect}
	return c.Compile(filters)
}

// base builds the SELECT and FROM parts shared by Compile and CompileByKeys.
// The joined engines' WHERE fragments are returned in c.Where with their
// parameters.
func (t *Table) base(o FetchOptions) (*Compiled, []string, error) {
	requested, distinct := splitDistinct(o.Fields)
	sel := t.selectFields(requested)

	c := &Compiled{
		Table:    t.schema.Name,
		Distinct: distinct || o.Distinct || sel.distinct,
		Select:   sel.fields,
		From:     t.dialect.QuoteIdentifier(t.schema.Object),
	}

	var joinWheres []string
	var params []string
	for i, j := range t.joins {
		part, err := t.composeJoin(i, j)
		if err != nil {
			return nil, nil, err
		}
		c.From += " " + part.from
		c.Select = append(c.Select, part.fields...)
		joinWheres = append(joinWheres, part.where)
		params = append(params, part.params...)
	}
	c.Select = append(c.Select, t.virtualFields()...)

	if len(c.Select) == 0 {
		return nil, nil, t.invalid("fields", strings.Join(o.Fields, ","), "no fields to select found")
	}
	c.Where = joinWhere(joinWheres...)
	return c, params, nil
}

// RunQuery runs a caller-written statement through the engine. Each %s in
// template is replaced by the next parameter, escaped for the engine's
// dialect, and the counts must match. Dry run, Query, QueryTime, row
// normalization and sticky errors behave as they do for Fetch.
func (t *Table) RunQuery(ctx context.Context, template string, params ...string) ([]Row, error) {
	if err := t.Err(); err != nil {
		return nil, err
	}
	template = strings.TrimSpace(template)
	if template == "" {
		return nil, t.fail(t.invalid("statement", "", "statement is empty"))
	}

	c := &Compiled{
		Table:    t.schema.Name,
		Template: template,
		Params:   append([]string(nil), params...),
	}
	if err := t.record(c); err != nil {
		return nil, t.fail(err)
	}
	return t.run(ctx, c)
}

// finish renders the assembled clauses and records the statement.
func (t *Table) finish(c *Compiled) error {
	c.Template = c.render()
	return t.record(c)
}

// record substitutes the template and keeps the statement on the engine.
func (t *Table) record(c *Compiled) error {
	c.ID = uuid.NewString()
	stmt, err := Substitute(c.Template, c.Params, t.dialect)
	if err != nil {
		return err
	}
	c.Statement = stmt
	t.compiled = c
	t.lastQuery = stmt
	t.logger.Debug("query compiled", "table", t.schema.Name, "query_id", c.ID, "statement", stmt)
	return nil
}

func (t *Table) run(ctx context.Context, c *Compiled) ([]Row, error) {
	if t.dryRun {
		return []Row{}, nil
	}
	if t.executor == nil {
		return nil, t.fail(&core.ExecutionError{Table: t.schema.Name, Err: errors.New("no executor configured")})
	}

	start := time.Now()
	rows, err := t.executor.Execute(ctx, c.Statement)
	t.lastQueryTime = time.Since(start)
	if err != nil {
		return nil, t.fail(&core.ExecutionError{Table: t.schema.Name, Err: err})
	}

	conv, _ := t.executor.(ValueConverter)
	rows, err = NormalizeRows(t.schema.Name, rows, conv)
	if err != nil {
		return nil, t.fail(err)
	}
	t.logger.Debug("query executed", "table", t.schema.Name, "query_id", c.ID, "rows", len(rows), "duration", t.lastQueryTime)
	return rows, nil
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
