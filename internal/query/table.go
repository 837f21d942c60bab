// Package query implements the table engine: a mutable builder that compiles
// filter specifications into parameterized SELECT statements, hands them to
// an Executor and normalizes the returned rows.
//
// An engine is not safe for concurrent use. Errors are sticky: once an
// operation fails, every later operation on the same engine returns the
// recorded error without doing any work until a new engine is created.
package query

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"tableq/internal/core"
	"tableq/internal/dialect"
	"tableq/internal/dialect/mysql"
	"tableq/internal/schema"
)

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Option configures a Table.
type Option func(*Table)

// WithExecutor sets the adapter statements are sent to.
func WithExecutor(e Executor) Option { return func(t *Table) { t.executor = e } }

// WithDialect overrides the default MySQL dialect.
func WithDialect(d dialect.Dialect) Option { return func(t *Table) { t.dialect = d } }

// WithLogger sets the logger for compiled statements and recorded errors.
func WithLogger(l *slog.Logger) Option { return func(t *Table) { t.logger = l } }

// WithPersister sets the write adapter.
func WithPersister(p Persister) Option { return func(t *Table) { t.persister = p } }

// WithErrorSink forwards recorded errors to an external collector.
func WithErrorSink(s ErrorSink) Option { return func(t *Table) { t.sink = s } }

// WithMapping starts the engine in mapped mode.
func WithMapping() Option { return func(t *Table) { t.mode = ModeMapped } }

// Table is the query engine for one resolved table schema.
type Table struct {
	schema    *core.Table
	dialect   dialect.Dialect
	executor  Executor
	persister Persister
	logger    *slog.Logger
	sink      ErrorSink

	mode       Mode
	view       string
	where      Filters
	extraWhere string
	order      []string
	limit      int
	page       int
	offset     int
	offsetSet  bool
	groupBy    string
	fields     []string
	virtual    []virtualField
	joins      []*Join
	dryRun     bool

	errs []error

	compiled      *Compiled
	lastQuery     string
	lastQueryTime time.Duration
}

// New creates an engine for a resolved table.
func New(t *core.Table, opts ...Option) *Table {
	e := &Table{
		schema:  t,
		dialect: mysql.NewMySQLDialect(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := t.Validate(); err != nil {
		e.fail(err)
	}
	return e
}

// Open resolves name in the registry and creates an engine for it.
func Open(reg *schema.Registry, name string, opts ...Option) (*Table, error) {
	t, err := reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	e := New(t, opts...)
	return e, e.Err()
}

// Schema returns the resolved table the engine queries.
func (t *Table) Schema() *core.Table { return t.schema }

// Dialect returns the dialect statements are rendered for.
func (t *Table) Dialect() dialect.Dialect { return t.dialect }

// Err returns the recorded errors joined, or nil.
func (t *Table) Err() error {
	if len(t.errs) == 0 {
		return nil
	}
	return errors.Join(t.errs...)
}

// Errors returns the recorded error messages in order.
func (t *Table) Errors() []string {
	out := make([]string, 0, len(t.errs))
	for _, err := range t.errs {
		out = append(out, err.Error())
	}
	return out
}

func (t *Table) fail(err error) error {
	t.errs = append(t.errs, err)
	t.logger.Warn("table error", "table", t.schema.Name, "error", err)
	if t.sink != nil {
		t.sink.AddError(t.schema.Name, err.Error())
	}
	return t.Err()
}

func (t *Table) invalid(entity, field, msg string) error {
	return &core.ValidationError{Entity: entity, Name: t.schema.Name, Field: field, Message: msg}
}

func (t *Table) resolver() Resolver {
	return NewResolver(t.schema, t.mode, t.dialect)
}

// UseMapping switches between display names and physical names.
func (t *Table) UseMapping(on bool) *Table {
	if t.Err() != nil {
		return t
	}
	t.mode = ModeRaw
	if on {
		t.mode = ModeMapped
	}
	return t
}

// Mode returns the effective naming mode.
func (t *Table) Mode() Mode { return t.resolver().Mode() }

// SetView restricts mapped projections to entries tagged with view.
// An empty view selects every entry.
func (t *Table) SetView(view string) *Table {
	if t.Err() != nil {
		return t
	}
	t.view = strings.TrimSpace(view)
	return t
}

// SetQueryWhere replaces the stored filter specification.
func (t *Table) SetQueryWhere(filters Filters) *Table {
	if t.Err() != nil {
		return t
	}
	if len(filters) == 0 {
		t.fail(t.invalid("filter", "", "query where can not be empty"))
		return t
	}
	t.where = append(Filters(nil), filters...)
	return t
}

// AddQueryWhere merges filters into the stored specification. A key that
// is already present is replaced in place; new keys are appended.
func (t *Table) AddQueryWhere(filters Filters) *Table {
	if t.Err() != nil {
		return t
	}
	if len(filters) == 0 {
		t.fail(t.invalid("filter", "", "query where can not be empty"))
		return t
	}
	t.where = t.where.Merge(filters)
	return t
}

// QueryWhere returns a copy of the stored filter specification.
func (t *Table) QueryWhere() Filters { return append(Filters(nil), t.where...) }

// SetExtraWhere sets a condition AND-ed last into every fetch.
func (t *Table) SetExtraWhere(condition string) *Table {
	if t.Err() != nil {
		return t
	}
	t.extraWhere = strings.TrimSpace(condition)
	return t
}

// ExtraWhere returns the engine-wide condition.
func (t *Table) ExtraWhere() string { return t.extraWhere }

// SetOrder replaces the ORDER BY list.
func (t *Table) SetOrder(field string, dir Direction) *Table {
	if t.Err() != nil {
		return t
	}
	t.order = nil
	return t.AddOrder(field, dir)
}

// AddOrder appends to the ORDER BY list. "rand()" replaces the list with
// the dialect's random ordering. Expressions containing "." or "(" are used
// verbatim; plain names are resolved through the active mode.
func (t *Table) AddOrder(field string, dir Direction) *Table {
	if t.Err() != nil {
		return t
	}
	field = strings.TrimSpace(field)
	suffix := " " + string(Asc)
	if strings.EqualFold(strings.TrimSpace(string(dir)), string(Desc)) {
		suffix = " " + string(Desc)
	}

	switch {
	case strings.EqualFold(field, "rand()"):
		t.order = []string{t.dialect.Random()}
	case strings.ContainsAny(field, ".("):
		t.order = append(t.order, field+suffix)
	default:
		r := t.resolver()
		f, ok := r.Resolve(field)
		if !ok {
			t.fail(t.invalid("order", field, "field does not exist to order by"))
			return t
		}
		t.order = append(t.order, r.Column(f)+suffix)
	}
	return t
}

// SetLimit sets LIMIT; zero removes it.
func (t *Table) SetLimit(limit int) *Table {
	if t.Err() != nil {
		return t
	}
	if limit < 0 {
		t.fail(t.invalid("limit", "", "limit can not be negative"))
		return t
	}
	t.limit = limit
	return t
}

// SetPage sets the zero-based page; OFFSET becomes limit*page unless an
// explicit offset is set.
func (t *Table) SetPage(page int) *Table {
	if t.Err() != nil {
		return t
	}
	if page < 0 {
		t.fail(t.invalid("page", "", "page can not be negative"))
		return t
	}
	t.page = page
	return t
}

// SetOffset sets an explicit OFFSET, which wins over the page.
func (t *Table) SetOffset(offset int) *Table {
	if t.Err() != nil {
		return t
	}
	if offset < 0 {
		t.fail(t.invalid("offset", "", "offset can not be negative"))
		return t
	}
	t.offset = offset
	t.offsetSet = true
	return t
}

// SetGroupBy sets the GROUP BY expression verbatim.
func (t *Table) SetGroupBy(expr string) *Table {
	if t.Err() != nil {
		return t
	}
	t.groupBy = strings.TrimSpace(expr)
	return t
}

// SetFields sets the default projection used when a fetch names none.
func (t *Table) SetFields(fields ...string) *Table {
	if t.Err() != nil {
		return t
	}
	t.fields = append([]string(nil), fields...)
	return t
}

// SetVirtualField replaces all virtual fields with a single one.
func (t *Table) SetVirtualField(name, expr string) *Table {
	if t.Err() != nil {
		return t
	}
	t.virtual = nil
	return t.AddVirtualField(name, expr)
}

// AddVirtualField appends "expr AS name" to the projection; a name that is
// already declared has its expression replaced.
func (t *Table) AddVirtualField(name, expr string) *Table {
	if t.Err() != nil {
		return t
	}
	name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)
	if name == "" || expr == "" {
		t.fail(t.invalid("virtual field", name, "virtual field needs a name and an expression"))
		return t
	}
	for i := range t.virtual {
		if t.virtual[i].name == name {
			t.virtual[i].expr = expr
			return t
		}
	}
	t.virtual = append(t.virtual, virtualField{name: name, expr: expr})
	return t
}

// Join records a join with a foreign engine. Fields are resolved when the
// statement is compiled.
func (t *Table) Join(typ JoinType, foreign *Table, localField, foreignField string, extraOn ...string) *Table {
	if t.Err() != nil {
		return t
	}
	j := &Join{
		Type:         JoinType(strings.ToLower(strings.TrimSpace(string(typ)))),
		Foreign:      foreign,
		LocalField:   strings.TrimSpace(localField),
		ForeignField: strings.TrimSpace(foreignField),
		ExtraOn:      strings.Join(extraOn, " AND "),
	}
	if err := t.validateJoin(j); err != nil {
		t.fail(err)
		return t
	}
	t.joins = append(t.joins, j)
	return t
}

// Joins returns the recorded joins in order.
func (t *Table) Joins() []*Join { return append([]*Join(nil), t.joins...) }

// OnlyCreateQuery toggles dry-run: statements are compiled and retained but
// never executed, and fetches return an empty result.
func (t *Table) OnlyCreateQuery(on bool) *Table {
	t.dryRun = on
	return t
}

// Reset clears the builder state. Recorded errors, the extra condition and
// the dry-run flag are kept.
func (t *Table) Reset() *Table {
	t.mode = ModeRaw
	t.view = ""
	t.where = nil
	t.order = nil
	t.limit, t.page, t.offset, t.offsetSet = 0, 0, 0, false
	t.groupBy = ""
	t.fields = nil
	t.virtual = nil
	t.joins = nil
	return t
}

// Query returns the last assembled statement with parameters substituted.
// It is kept when execution fails.
func (t *Table) Query() string { return t.lastQuery }

// QueryTime returns how long the last execution took.
func (t *Table) QueryTime() time.Duration { return t.lastQueryTime }

// Compiled returns the last compiled statement, or nil.
func (t *Table) Compiled() *Compiled { return t.compiled }
