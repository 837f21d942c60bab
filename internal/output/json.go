package output

import (
	"encoding/json"

	"tableq/internal/lint"
	"tableq/internal/query"
)

type jsonFormatter struct{}

type compiledPayload struct {
	Format string          `json:"format"`
	Query  *query.Compiled `json:"query,omitempty"`
}

type rowsSummary struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

type rowsPayload struct {
	Format  string      `json:"format"`
	Summary rowsSummary `json:"summary"`
	Columns []string    `json:"columns,omitempty"`
	Rows    []query.Row `json:"rows"`
}

type lintSummary struct {
	Statements int `json:"statements"`
	Warnings   int `json:"warnings"`
	Errors     int `json:"errors"`
}

type lintPayload struct {
	Format  string         `json:"format"`
	Summary lintSummary    `json:"summary"`
	Results []*lint.Result `json:"results"`
}

type Payload interface {
	compiledPayload | rowsPayload | lintPayload
}

func (jsonFormatter) FormatCompiled(c *query.Compiled) (string, error) {
	return marshalJSON(compiledPayload{Format: string(FormatJSON), Query: c})
}

func (jsonFormatter) FormatRows(rows []query.Row) (string, error) {
	if rows == nil {
		rows = []query.Row{}
	}
	cols := columns(rows)
	return marshalJSON(rowsPayload{
		Format:  string(FormatJSON),
		Summary: rowsSummary{Rows: len(rows), Columns: len(cols)},
		Columns: cols,
		Rows:    rows,
	})
}

func (jsonFormatter) FormatLint(results []*lint.Result) (string, error) {
	if results == nil {
		results = []*lint.Result{}
	}
	warnings, errs := countWarnings(results)
	return marshalJSON(lintPayload{
		Format:  string(FormatJSON),
		Summary: lintSummary{Statements: len(results), Warnings: warnings, Errors: errs},
		Results: results,
	})
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
