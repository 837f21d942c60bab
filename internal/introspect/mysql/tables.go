package mysql

import (
	"fmt"

	"tableq/internal/introspect"
	"tableq/internal/schema"
)

func introspectTables(ic *introspectCtx, r *introspect.Result, only []string) error {
	names, err := listTables(ic)
	if err != nil {
		return err
	}
	names, err = selectTables(names, only)
	if err != nil {
		return err
	}

	for _, name := range names {
		def := &schema.Definition{Name: name, Object: name}
		if err := introspectColumns(ic, def); err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		r.Tables = append(r.Tables, def)
	}
	return nil
}

func listTables(ic *introspectCtx) ([]string, error) {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// selectTables keeps the requested tables in request order. Every requested
// table must exist.
func selectTables(all, only []string) ([]string, error) {
	if len(only) == 0 {
		return all, nil
	}
	known := make(map[string]bool, len(all))
	for _, name := range all {
		known[name] = true
	}
	out := make([]string, 0, len(only))
	for _, name := range only {
		if !known[name] {
			return nil, fmt.Errorf("table %q not found in database", name)
		}
		out = append(out, name)
	}
	return out, nil
}
