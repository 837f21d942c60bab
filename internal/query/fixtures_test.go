package query

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tableq/internal/core"
	"tableq/internal/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.Register("orders", &schema.Definition{
		Fields: []schema.FieldDef{
			{Name: "Id", Type: "int", Validation: "isKey"},
			{Name: "CustomerId", Type: "int"},
			{Name: "Customer", Type: "varchar(64)"},
			{Name: "Price", Type: "float"},
			{Name: "Status", Type: "varchar(16)"},
			{Name: "CreatedAt", Type: "date"},
			{Name: "Meta", Type: "json"},
		},
		Mapping: []schema.MappingDef{
			{Alias: "id", Field: "Id"},
			{Alias: "customer", Field: "Customer", Views: []string{"list"}},
			{Alias: "price", Field: "Price"},
			{Alias: "status", Field: "Status", Views: []string{"list", "detail"}},
			{Alias: "created", Field: "CreatedAt"},
		},
	}))
	require.NoError(t, r.Register("customers", &schema.Definition{
		Fields: []schema.FieldDef{
			{Name: "Id", Type: "int", Validation: "isKey"},
			{Name: "Name", Type: "varchar(64)"},
			{Name: "Country", Type: "char(2)"},
		},
	}))
	require.NoError(t, r.Register("stock", &schema.Definition{
		Fields: []schema.FieldDef{
			{Name: "Region", Type: "varchar(8)", Validation: "isKey"},
			{Name: "Sku", Type: "int", Validation: "isKey"},
			{Name: "Qty", Type: "int"},
		},
	}))
	r.MustRegister("log", &schema.Definition{
		Fields: []schema.FieldDef{{Name: "Message", Type: "text"}},
	})
	return r
}

func resolved(t *testing.T, name string) *core.Table {
	t.Helper()
	tbl, err := testRegistry(t).Resolve(name)
	require.NoError(t, err)
	return tbl
}

func dryRun(t *testing.T, name string, opts ...Option) *Table {
	t.Helper()
	e := New(resolved(t, name), opts...)
	require.NoError(t, e.Err())
	return e.OnlyCreateQuery(true)
}

// recordingExecutor returns fixed rows and remembers every statement.
type recordingExecutor struct {
	rows       []Row
	err        error
	statements []string
}

func (r *recordingExecutor) Execute(_ context.Context, statement string) ([]Row, error) {
	r.statements = append(r.statements, statement)
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

type write struct {
	op     string
	table  string
	record map[string]any
}

type recordingPersister struct {
	err    error
	writes []write
}

func (p *recordingPersister) record(op string, t *core.Table, rec map[string]any) error {
	p.writes = append(p.writes, write{op: op, table: t.Object, record: rec})
	return p.err
}

func (p *recordingPersister) Insert(_ context.Context, t *core.Table, rec map[string]any) error {
	return p.record("insert", t, rec)
}

func (p *recordingPersister) Update(_ context.Context, t *core.Table, rec map[string]any) error {
	return p.record("update", t, rec)
}

func (p *recordingPersister) Upsert(_ context.Context, t *core.Table, rec map[string]any) error {
	return p.record("upsert", t, rec)
}

func (p *recordingPersister) Delete(_ context.Context, t *core.Table, rec map[string]any) error {
	return p.record("delete", t, rec)
}

type collectingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *collectingSink) AddError(table, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, table+": "+message)
}
