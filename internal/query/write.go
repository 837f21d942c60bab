package query

import (
	"context"
	"errors"
	"fmt"

	"tableq/internal/core"
)

type writeOp string

const (
	opInsert writeOp = "insert"
	opUpdate writeOp = "update"
	opUpsert writeOp = "upsert"
	opDelete writeOp = "delete"
)

// Insert stores a new record through the persister.
func (t *Table) Insert(ctx context.Context, record map[string]any) error {
	return t.write(ctx, opInsert, record)
}

// Update changes the record identified by its key fields.
func (t *Table) Update(ctx context.Context, record map[string]any) error {
	return t.write(ctx, opUpdate, record)
}

// Upsert inserts or replaces a record.
func (t *Table) Upsert(ctx context.Context, record map[string]any) error {
	return t.write(ctx, opUpsert, record)
}

// Delete removes the record identified by its key fields.
func (t *Table) Delete(ctx context.Context, record map[string]any) error {
	return t.write(ctx, opDelete, record)
}

func (t *Table) write(ctx context.Context, op writeOp, record map[string]any) error {
	if err := t.Err(); err != nil {
		return err
	}
	if len(record) == 0 {
		return t.fail(t.invalid(string(op), "", "record is empty"))
	}

	physical, err := t.physicalRecord(op, record)
	if err != nil {
		return t.fail(err)
	}
	if t.persister == nil {
		return t.fail(&core.ExecutionError{Table: t.schema.Name, Err: errors.New("no persister configured")})
	}

	t.logger.Debug("record write", "table", t.schema.Name, "op", string(op), "fields", len(physical))
	var werr error
	switch op {
	case opInsert:
		werr = t.persister.Insert(ctx, t.schema, physical)
	case opUpdate:
		werr = t.persister.Update(ctx, t.schema, physical)
	case opUpsert:
		werr = t.persister.Upsert(ctx, t.schema, physical)
	case opDelete:
		werr = t.persister.Delete(ctx, t.schema, physical)
	}
	if werr != nil {
		return t.fail(&core.ExecutionError{Table: t.schema.Name, Err: fmt.Errorf("%s: %w", op, werr)})
	}
	return nil
}

// physicalRecord translates display names to field names in mapped mode and
// checks every key names a known field.
func (t *Table) physicalRecord(op writeOp, record map[string]any) (map[string]any, error) {
	r := t.resolver()
	out := make(map[string]any, len(record))
	for key, v := range record {
		f, ok := r.Resolve(key)
		if !ok {
			msg := "record contains a wrong raw key"
			if r.Mode() == ModeMapped {
				msg = "record contains a wrong mapped key"
			}
			return nil, t.invalid(string(op), key, msg)
		}
		out[f.Name] = v
	}
	return out, nil
}
