package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite" // registers the "sqlite" driver for local files

	"tableq/internal/dialect"
	"tableq/internal/executor/bigquery"
	"tableq/internal/executor/sqldb"
	"tableq/internal/query"
	"tableq/internal/schema"
)

// queryFlags are shared by compile and query.
type queryFlags struct {
	where      []string
	in         []string
	raw        []string
	fields     []string
	distinct   bool
	orders     []string
	limit      int
	page       int
	offset     int
	groupBy    string
	view       string
	mapping    bool
	extraWhere string
	keys       []string
	virtual    []string
	joins      []string
	params     []string
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.where, "where", "w", nil, "Filter as key=value; tokens such as __null__ are passed through")
	flags.StringArrayVar(&f.in, "in", nil, "List filter as key=a,b,c")
	flags.StringArrayVar(&f.raw, "raw", nil, "Raw condition fragment without parameters")
	flags.StringArrayVar(&f.fields, "field", nil, "Field to select; repeatable")
	flags.BoolVar(&f.distinct, "distinct", false, "Select DISTINCT rows")
	flags.StringArrayVar(&f.orders, "order", nil, "Order as field[:asc|desc]; rand() for random order")
	flags.IntVar(&f.limit, "limit", 0, "LIMIT; 0 for none")
	flags.IntVar(&f.page, "page", 0, "Zero-based page, used with --limit")
	flags.IntVar(&f.offset, "offset", -1, "Explicit OFFSET, wins over --page")
	flags.StringVar(&f.groupBy, "group-by", "", "GROUP BY expression")
	flags.StringVar(&f.view, "view", "", "Mapping view to project")
	flags.BoolVar(&f.mapping, "mapping", false, "Use display names from the table mapping")
	flags.StringVar(&f.extraWhere, "extra-where", "", "Condition AND-ed to every statement")
	flags.StringArrayVar(&f.keys, "key", nil, "Fetch by key; composite keys as a,b")
	flags.StringArrayVar(&f.virtual, "virtual", nil, "Virtual field as name=expression")
	flags.StringArrayVar(&f.joins, "join", nil, "Join as type:table:localField:foreignField")
	flags.StringArrayVar(&f.params, "param", nil, "Parameter for SELECT-list placeholders, or for --statement")
}

func (f *queryFlags) filters() (query.Filters, error) {
	var filters query.Filters
	for _, w := range f.where {
		key, value, ok := strings.Cut(w, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --where %q; use key=value", w)
		}
		filters = filters.Set(strings.TrimSpace(key), query.Scalar(value))
	}
	for _, in := range f.in {
		key, value, ok := strings.Cut(in, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --in %q; use key=a,b,c", in)
		}
		filters = filters.Set(strings.TrimSpace(key), query.List(strings.Split(value, ",")...))
	}
	for _, raw := range f.raw {
		filters = filters.Set(raw, query.None())
	}
	return filters, nil
}

func (f *queryFlags) fetchOptions() []query.FetchOption {
	var opts []query.FetchOption
	if len(f.fields) > 0 {
		opts = append(opts, query.WithFields(f.fields...))
	}
	if f.distinct {
		opts = append(opts, query.Distinct())
	}
	if len(f.params) > 0 {
		opts = append(opts, query.WithParams(f.params...))
	}
	return opts
}

func (f *queryFlags) parsedKeys() []query.Key {
	keys := make([]query.Key, 0, len(f.keys))
	for _, k := range f.keys {
		keys = append(keys, query.Key(strings.Split(k, ",")))
	}
	return keys
}

// configure applies the builder flags to e. Errors stay on the engine.
func (f *queryFlags) configure(e *query.Table, reg *schema.Registry, opts []query.Option) error {
	if f.view != "" {
		e.SetView(f.view)
	}
	if f.extraWhere != "" {
		e.SetExtraWhere(f.extraWhere)
	}
	for _, o := range f.orders {
		field, dir, _ := strings.Cut(o, ":")
		e.AddOrder(field, query.Direction(strings.ToUpper(dir)))
	}
	e.SetLimit(f.limit).SetPage(f.page)
	if f.offset >= 0 {
		e.SetOffset(f.offset)
	}
	if f.groupBy != "" {
		e.SetGroupBy(f.groupBy)
	}
	for _, v := range f.virtual {
		name, expr, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("invalid --virtual %q; use name=expression", v)
		}
		e.AddVirtualField(strings.TrimSpace(name), expr)
	}
	for _, j := range f.joins {
		parts := strings.Split(j, ":")
		if len(parts) != 4 {
			return fmt.Errorf("invalid --join %q; use type:table:localField:foreignField", j)
		}
		foreign, err := query.Open(reg, parts[1], opts...)
		if err != nil {
			return err
		}
		e.Join(query.JoinType(strings.ToLower(parts[0])), foreign, parts[2], parts[3])
	}
	return e.Err()
}

// backend is an opened execution adapter.
type backend struct {
	executor  query.Executor
	persister query.Persister
	close     func() error
}

// openBackend connects to the configured database. Without a DSN for SQL
// dialects no backend is opened and statements are only compiled.
func (a *app) openBackend(ctx context.Context) (*backend, error) {
	switch a.cfg.DialectType() {
	case dialect.BigQuery:
		client, err := bigquery.Open(ctx, bigquery.Options{
			ProjectID:       a.cfg.BigQuery.Project,
			Dataset:         a.cfg.BigQuery.Dataset,
			Location:        a.cfg.BigQuery.Location,
			CredentialsFile: a.cfg.BigQuery.CredentialsFile,
			Logger:          a.logger,
		})
		if err != nil {
			return nil, err
		}
		return &backend{executor: client, persister: client, close: client.Close}, nil
	default:
		if a.cfg.DSN == "" {
			return nil, fmt.Errorf("--dsn is required")
		}
		client, err := sqldb.Open(ctx, sqldb.Options{
			Driver: a.cfg.Driver,
			DSN:    a.cfg.DSN,
			Logger: a.logger,
		})
		if err != nil {
			return nil, err
		}
		return &backend{
			executor:  client,
			persister: sqldb.NewPersister(client.DB(), dialect.GetDialect(a.cfg.DialectType())),
			close:     client.Close,
		}, nil
	}
}

// engine opens the named table with the shared options.
func (a *app) engine(reg *schema.Registry, name string, f *queryFlags, b *backend) (*query.Table, error) {
	opts := []query.Option{
		query.WithDialect(dialect.GetDialect(a.cfg.DialectType())),
		query.WithLogger(a.logger),
	}
	if f.mapping || a.cfg.Mapping {
		opts = append(opts, query.WithMapping())
	}
	if b != nil {
		opts = append(opts, query.WithExecutor(b.executor), query.WithPersister(b.persister))
	}

	e, err := query.Open(reg, name, opts...)
	if err != nil {
		return nil, err
	}
	if err := f.configure(e, reg, opts); err != nil {
		return nil, err
	}
	return e, nil
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
