// Package lint checks assembled statements with the TiDB parser before they
// reach a database: a statement must parse, be a single SELECT, and is
// flagged when it is likely to scan far more rows than intended.
package lint

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations
)

// WarningLevel is a const that is expandable for later and contains different levels of danger.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Warning describes a statement that runs but may not do what was meant.
type Warning struct {
	Level   WarningLevel `json:"level"`
	Message string       `json:"message"`
}

// Result contains the findings for one statement.
type Result struct {
	SQL           string    `json:"sql"`
	StatementType string    `json:"statementType"`
	Warnings      []Warning `json:"warnings,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
}

// OK reports whether the statement may be executed.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// Linter uses TiDB's AST parser for reliable SQL analysis.
type Linter struct {
	parser *parser.Parser
}

// NewLinter creates a new AST-based linter.
func NewLinter() *Linter {
	return &Linter{
		parser: parser.New(),
	}
}

// Lint parses sql and returns its findings. Parse failures are reported as
// errors in the result, never as a Go error.
func (l *Linter) Lint(sql string) *Result {
	result := &Result{SQL: strings.TrimSpace(sql)}

	stmtNodes, _, err := l.parser.Parse(sql, "", "")
	if err != nil {
		result.StatementType = "UNPARSEABLE"
		result.Errors = append(result.Errors, fmt.Sprintf("statement does not parse: %v", err))
		return result
	}

	switch len(stmtNodes) {
	case 0:
		result.Errors = append(result.Errors, "no statement found")
		return result
	case 1:
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("expected a single statement, got %d", len(stmtNodes)))
		return result
	}

	switch node := stmtNodes[0].(type) {
	case *ast.SelectStmt:
		result.StatementType = "SELECT"
		l.checkSelect(node, result)
	case *ast.SetOprStmt:
		result.StatementType = "SET OPERATION"
		result.Warnings = append(result.Warnings, Warning{
			Level:   WarnCaution,
			Message: "set operations combine several SELECTs; each one is not checked",
		})
	default:
		result.StatementType = statementType(node)
		result.Errors = append(result.Errors, fmt.Sprintf("%s is not a read-only SELECT", result.StatementType))
	}
	return result
}

// LintAll lints every statement and reports whether all of them passed.
func (l *Linter) LintAll(statements []string) ([]*Result, bool) {
	ok := true
	results := make([]*Result, 0, len(statements))
	for _, stmt := range statements {
		r := l.Lint(stmt)
		ok = ok && r.OK()
		results = append(results, r)
	}
	return results, ok
}

func (l *Linter) checkSelect(stmt *ast.SelectStmt, result *Result) {
	if stmt.Where == nil && stmt.Limit == nil && stmt.GroupBy == nil {
		result.Warnings = append(result.Warnings, Warning{
			Level:   WarnCaution,
			Message: "SELECT without WHERE, GROUP BY or LIMIT reads the whole table",
		})
	}

	if stmt.OrderBy != nil {
		for _, item := range stmt.OrderBy.Items {
			if fn, ok := item.Expr.(*ast.FuncCallExpr); ok && fn.FnName.L == "rand" {
				msg := "ORDER BY RAND() sorts every matching row"
				level := WarnCaution
				if stmt.Where == nil {
					msg += " of the table"
					level = WarnDanger
				}
				result.Warnings = append(result.Warnings, Warning{Level: level, Message: msg})
			}
		}
	}

	if stmt.Fields != nil {
		for _, f := range stmt.Fields.Fields {
			if f.WildCard != nil {
				result.Warnings = append(result.Warnings, Warning{
					Level:   WarnCaution,
					Message: "wildcard projection returns every column",
				})
				break
			}
		}
	}
}

func statementType(node ast.StmtNode) string {
	switch node.(type) {
	case *ast.InsertStmt:
		return "INSERT"
	case *ast.UpdateStmt:
		return "UPDATE"
	case *ast.DeleteStmt:
		return "DELETE"
	case *ast.DropTableStmt:
		return "DROP TABLE"
	case *ast.TruncateTableStmt:
		return "TRUNCATE TABLE"
	case *ast.CreateTableStmt:
		return "CREATE TABLE"
	case *ast.AlterTableStmt:
		return "ALTER TABLE"
	default:
		return "OTHER"
	}
}
