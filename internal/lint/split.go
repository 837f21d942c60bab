package lint

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser/format"
)

// SplitStatements splits a script into statements. Statements the TiDB
// parser understands are restored from the AST; when the script does not
// parse, it is split on lines ending with a semicolon so every statement can
// still be reported on individually.
func (l *Linter) SplitStatements(content string) []string {
	var statements []string
	content = strings.TrimSpace(content)

	stmtNodes, _, err := l.parser.Parse(content, "", "")
	if err == nil && len(stmtNodes) > 0 {
		for _, node := range stmtNodes {
			if node == nil {
				continue
			}
			var sb strings.Builder
			ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
			if restoreErr := node.Restore(ctx); restoreErr != nil {
				continue
			}
			stmt := strings.TrimSpace(sb.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
		}
		if len(statements) > 0 {
			return statements
		}
	}

	return splitStatementsBySemicolon(content)
}

func splitStatementsBySemicolon(content string) []string {
	var statements []string
	var current strings.Builder
	for line := range strings.SplitSeq(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "--") || trimmed == "" {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}
	return statements
}
