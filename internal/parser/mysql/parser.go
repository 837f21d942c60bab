// Package mysql builds table definitions from MySQL CREATE TABLE statements.
package mysql

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations

	"tableq/internal/schema"
)

// KeyValidation is the validation token given to primary key columns.
const KeyValidation = "isKey"

type Parser struct {
	p *parser.Parser
}

func NewParser() *Parser {
	return &Parser{
		p: parser.New(),
	}
}

// ParseFile reads a SQL dump and parses it.
func (p *Parser) ParseFile(path string) ([]*schema.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mysql: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads every CREATE TABLE statement; other statements are skipped.
func (p *Parser) Parse(r io.Reader) ([]*schema.Definition, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mysql: read error: %w", err)
	}
	return p.ParseString(string(content))
}

// ParseString parses SQL text.
func (p *Parser) ParseString(sql string) ([]*schema.Definition, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL dump: %v", err)
	}

	defs := []*schema.Definition{}
	for _, stmtNode := range stmtNodes {
		if createStmt, ok := stmtNode.(*ast.CreateTableStmt); ok {
			defs = append(defs, convertCreateTable(createStmt))
		}
	}
	return defs, nil
}

func convertCreateTable(stmt *ast.CreateTableStmt) *schema.Definition {
	name := stmt.Table.Name.O
	def := &schema.Definition{
		Name:   name,
		Object: name,
		Fields: make([]schema.FieldDef, 0, len(stmt.Cols)),
	}

	keys := make(map[string]bool)
	for _, colDef := range stmt.Cols {
		for _, opt := range colDef.Options {
			if opt.Tp == ast.ColumnOptionPrimaryKey {
				keys[strings.ToLower(colDef.Name.Name.O)] = true
			}
		}
	}
	for _, c := range stmt.Constraints {
		if c.Tp != ast.ConstraintPrimaryKey {
			continue
		}
		for _, k := range c.Keys {
			if k.Column != nil {
				keys[strings.ToLower(k.Column.Name.O)] = true
			}
		}
	}

	for _, colDef := range stmt.Cols {
		f := schema.FieldDef{
			Name: colDef.Name.Name.O,
			Type: strings.ToLower(colDef.Tp.CompactStr()),
		}
		if keys[strings.ToLower(f.Name)] {
			f.Validation = KeyValidation
		}
		def.Fields = append(def.Fields, f)
	}
	return def
}
