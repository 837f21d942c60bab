package mysql

import (
	"database/sql"
	"strings"

	"tableq/internal/schema"
)

// KeyValidation marks primary key columns.
const KeyValidation = "isKey"

func introspectColumns(ic *introspectCtx, def *schema.Definition) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.column_key
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE() AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, def.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, colType, colKey sql.NullString
		if err := rows.Scan(&name, &colType, &colKey); err != nil {
			return err
		}
		def.Fields = append(def.Fields, fieldFromColumn(name.String, colType.String, colKey.String))
	}

	return rows.Err()
}

func fieldFromColumn(name, colType, colKey string) schema.FieldDef {
	f := schema.FieldDef{Name: name, Type: strings.ToLower(colType)}
	if colKey == "PRI" {
		f.Validation = KeyValidation
	}
	return f
}
