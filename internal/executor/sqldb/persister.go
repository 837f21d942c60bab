package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tableq/internal/core"
	"tableq/internal/dialect"
	"tableq/internal/dialect/mysql"
)

// Persister writes records with positional ? arguments. It implements
// query.Persister.
type Persister struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// NewPersister returns a persister quoting identifiers with d, MySQL when
// d is nil.
func NewPersister(db *sql.DB, d dialect.Dialect) *Persister {
	if d == nil {
		d = mysql.NewMySQLDialect()
	}
	return &Persister{db: db, dialect: d}
}

// Insert adds record as a new row.
func (p *Persister) Insert(ctx context.Context, t *core.Table, record map[string]any) error {
	stmt, args, err := p.insertStatement("INSERT INTO", t, record)
	if err != nil {
		return err
	}
	return p.exec(ctx, stmt, args)
}

// Upsert replaces the row with the same primary key or inserts it.
func (p *Persister) Upsert(ctx context.Context, t *core.Table, record map[string]any) error {
	stmt, args, err := p.insertStatement("REPLACE INTO", t, record)
	if err != nil {
		return err
	}
	return p.exec(ctx, stmt, args)
}

// Update sets every non-key field of record on the row matching its keys.
func (p *Persister) Update(ctx context.Context, t *core.Table, record map[string]any) error {
	stmt, args, err := p.updateStatement(t, record)
	if err != nil {
		return err
	}
	return p.exec(ctx, stmt, args)
}

// Delete removes the row matching the key fields of record.
func (p *Persister) Delete(ctx context.Context, t *core.Table, record map[string]any) error {
	where, args, err := p.keyCondition(t, record)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", p.dialect.QuoteIdentifier(t.Object), where)
	return p.exec(ctx, stmt, args)
}

func (p *Persister) exec(ctx context.Context, stmt string, args []any) error {
	if _, err := p.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("statement failed: %w\n  Statement: %s", err, stmt)
	}
	return nil
}

// present returns the fields of t that record carries, in declaration order.
func present(t *core.Table, record map[string]any) ([]*core.Field, error) {
	fields := make([]*core.Field, 0, len(record))
	for _, f := range t.Fields {
		if _, ok := record[f.Name]; ok {
			fields = append(fields, f)
		}
	}
	if len(fields) != len(record) {
		for name := range record {
			if t.FindField(name) == nil {
				return nil, fmt.Errorf("unknown field %q", name)
			}
		}
	}
	if len(fields) == 0 {
		return nil, errors.New("record is empty")
	}
	return fields, nil
}

func (p *Persister) insertStatement(verb string, t *core.Table, record map[string]any) (string, []any, error) {
	fields, err := present(t, record)
	if err != nil {
		return "", nil, err
	}

	columns := make([]string, 0, len(fields))
	marks := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, p.dialect.QuoteIdentifier(f.Name))
		marks = append(marks, "?")
		args = append(args, record[f.Name])
	}

	stmt := fmt.Sprintf("%s %s (%s) VALUES (%s)",
		verb, p.dialect.QuoteIdentifier(t.Object), strings.Join(columns, ", "), strings.Join(marks, ", "))
	return stmt, args, nil
}

func (p *Persister) updateStatement(t *core.Table, record map[string]any) (string, []any, error) {
	fields, err := present(t, record)
	if err != nil {
		return "", nil, err
	}

	var sets []string
	var args []any
	for _, f := range fields {
		if f.Key {
			continue
		}
		sets = append(sets, p.dialect.QuoteIdentifier(f.Name)+" = ?")
		args = append(args, record[f.Name])
	}
	if len(sets) == 0 {
		return "", nil, errors.New("record has no fields to update")
	}

	where, keyArgs, err := p.keyCondition(t, record)
	if err != nil {
		return "", nil, err
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		p.dialect.QuoteIdentifier(t.Object), strings.Join(sets, ", "), where)
	return stmt, append(args, keyArgs...), nil
}

func (p *Persister) keyCondition(t *core.Table, record map[string]any) (string, []any, error) {
	keys := t.Keys()
	if len(keys) == 0 {
		return "", nil, errors.New("table has no key fields")
	}

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		v, ok := record[k.Name]
		if !ok {
			return "", nil, fmt.Errorf("record has no value for key field %q", k.Name)
		}
		parts = append(parts, p.dialect.QuoteIdentifier(k.Name)+" = ?")
		args = append(args, v)
	}
	return strings.Join(parts, " AND "), args, nil
}
