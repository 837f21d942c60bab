package output

import (
	"fmt"
	"strings"

	"tableq/internal/lint"
	"tableq/internal/query"
)

type summaryFormatter struct{}

// FormatCompiled formats a compiled query as a compact summary.
// Example output:
//
//	Query Summary
//	=============
//
//	Table:   orders
//	Fields:  4
//	Where:   yes (2 params)
//	Paging:  limit 10, offset 20
func (summaryFormatter) FormatCompiled(c *query.Compiled) (string, error) {
	if c == nil {
		return "No query compiled.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Query Summary\n")
	sb.WriteString("=============\n\n")

	fmt.Fprintf(&sb, "ID:      %s\n", c.ID)
	fmt.Fprintf(&sb, "Table:   %s\n", c.Table)
	fields := fmt.Sprintf("%d", len(c.Select))
	if c.Distinct {
		fields += " (distinct)"
	}
	fmt.Fprintf(&sb, "Fields:  %s\n", fields)
	fmt.Fprintf(&sb, "Joins:   %d\n", strings.Count(c.From, " JOIN "))
	fmt.Fprintf(&sb, "Where:   %s\n", yesNo(c.Where != "", len(c.Params)))
	if c.GroupBy != "" {
		fmt.Fprintf(&sb, "Group:   %s\n", c.GroupBy)
	}
	if c.OrderBy != "" {
		fmt.Fprintf(&sb, "Order:   %s\n", c.OrderBy)
	}
	if c.Limit > 0 {
		fmt.Fprintf(&sb, "Paging:  limit %d, offset %d\n", c.Limit, c.Offset)
	}
	return sb.String(), nil
}

func yesNo(set bool, params int) string {
	if !set {
		return "no"
	}
	return fmt.Sprintf("yes (%d params)", params)
}

// FormatRows reports the row and column counts.
func (summaryFormatter) FormatRows(rows []query.Row) (string, error) {
	cols := columns(rows)

	var sb strings.Builder
	sb.WriteString("Result Summary\n")
	sb.WriteString("==============\n\n")
	fmt.Fprintf(&sb, "Rows:     %d\n", len(rows))
	fmt.Fprintf(&sb, "Columns:  %d\n", len(cols))
	if len(cols) > 0 {
		fmt.Fprintf(&sb, "\n  %s\n", strings.Join(cols, ", "))
	}
	return sb.String(), nil
}

// FormatLint reports counts and lists the failing statements.
func (summaryFormatter) FormatLint(results []*lint.Result) (string, error) {
	warnings, errs := countWarnings(results)

	var sb strings.Builder
	sb.WriteString("Lint Summary\n")
	sb.WriteString("============\n\n")
	fmt.Fprintf(&sb, "Statements: %d\n", len(results))
	fmt.Fprintf(&sb, "Warnings:   %d\n", warnings)
	fmt.Fprintf(&sb, "Errors:     %d\n", errs)

	for i, r := range results {
		if r.OK() {
			continue
		}
		fmt.Fprintf(&sb, "\n  #%d %s: %s\n", i+1, r.StatementType, strings.Join(r.Errors, "; "))
	}
	return sb.String(), nil
}
