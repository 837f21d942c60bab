package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableq/internal/lint"
	"tableq/internal/query"
)

func sampleCompiled() *query.Compiled {
	return &query.Compiled{
		ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		Table:     "orders",
		Select:    []string{"`orders`.Id", "_j0.Name"},
		From:      "`orders` LEFT JOIN `customers` AS _j0 ON (`orders`.CustomerId = _j0.Id)",
		Where:     "`orders`.Price >= %s",
		OrderBy:   "`orders`.Id DESC",
		Limit:     10,
		Offset:    20,
		Params:    []string{"5"},
		Template:  "SELECT `orders`.Id, _j0.Name FROM `orders` LEFT JOIN `customers` AS _j0 ON (`orders`.CustomerId = _j0.Id) WHERE `orders`.Price >= %s ORDER BY `orders`.Id DESC LIMIT 10 OFFSET 20",
		Statement: "SELECT `orders`.Id, _j0.Name FROM `orders` LEFT JOIN `customers` AS _j0 ON (`orders`.CustomerId = _j0.Id) WHERE `orders`.Price >= 5 ORDER BY `orders`.Id DESC LIMIT 10 OFFSET 20",
	}
}

func sampleLint() []*lint.Result {
	return []*lint.Result{
		{SQL: "SELECT Id FROM a", StatementType: "SELECT", Warnings: []lint.Warning{{Level: lint.WarnCaution, Message: "reads the whole table"}}},
		{SQL: "DELETE FROM a", StatementType: "DELETE", Errors: []string{"DELETE is not a read-only SELECT"}},
	}
}

func TestSQLFormatter(t *testing.T) {
	f := sqlFormatter{}

	out, err := f.FormatCompiled(sampleCompiled())
	require.NoError(t, err)
	assert.Equal(t, "-- tableq query 0f8fad5b-d9cb-469f-a165-70867728950e (orders)\n"+sampleCompiled().Statement+";\n", out)

	out, err = f.FormatCompiled(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = f.FormatRows([]query.Row{
		{"Id": int64(1), "Name": "o'neil", "Price": 2.5},
		{"Id": 2, "Name": nil, "Price": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "-- 2 rows\n-- columns: Id, Name, Price\n(1, 'o''neil', 2.5),\n(2, NULL, TRUE);\n", out)

	out, err = f.FormatRows(nil)
	require.NoError(t, err)
	assert.Equal(t, "-- 0 rows\n", out)

	out, err = f.FormatLint(sampleLint())
	require.NoError(t, err)
	assert.Equal(t, "-- [CAUTION] reads the whole table\nSELECT Id FROM a;\n\n-- ERROR: DELETE is not a read-only SELECT\nDELETE FROM a;\n", out)

	out, err = f.FormatLint([]*lint.Result{{SQL: "SELECT 1 LIMIT 1", StatementType: "SELECT"}})
	require.NoError(t, err)
	assert.Equal(t, "-- OK\nSELECT 1 LIMIT 1;\n", out)
}

func TestJSONFormatter(t *testing.T) {
	f := jsonFormatter{}

	out, err := f.FormatCompiled(sampleCompiled())
	require.NoError(t, err)
	var compiled struct {
		Format string         `json:"format"`
		Query  query.Compiled `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &compiled))
	assert.Equal(t, "json", compiled.Format)
	assert.Equal(t, *sampleCompiled(), compiled.Query)

	out, err = f.FormatRows(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"format":"json","summary":{"rows":0,"columns":0},"rows":[]}`, out)

	out, err = f.FormatRows([]query.Row{{"Id": 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"format":"json","summary":{"rows":1,"columns":1},"columns":["Id"],"rows":[{"Id":1}]}`, out)

	out, err = f.FormatLint(sampleLint())
	require.NoError(t, err)
	var payload struct {
		Summary lintSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, lintSummary{Statements: 2, Warnings: 1, Errors: 1}, payload.Summary)
}

func TestSummaryFormatter(t *testing.T) {
	f := summaryFormatter{}

	out, err := f.FormatCompiled(sampleCompiled())
	require.NoError(t, err)
	assert.Contains(t, out, "Table:   orders\n")
	assert.Contains(t, out, "Fields:  2\n")
	assert.Contains(t, out, "Joins:   1\n")
	assert.Contains(t, out, "Where:   yes (1 params)\n")
	assert.Contains(t, out, "Paging:  limit 10, offset 20\n")
	assert.NotContains(t, out, "Group:")

	out, err = f.FormatCompiled(nil)
	require.NoError(t, err)
	assert.Equal(t, "No query compiled.\n", out)

	out, err = f.FormatRows([]query.Row{{"a": 1, "b": 2}})
	require.NoError(t, err)
	assert.Contains(t, out, "Rows:     1\n")
	assert.Contains(t, out, "a, b")

	out, err = f.FormatLint(sampleLint())
	require.NoError(t, err)
	assert.Contains(t, out, "Warnings:   1\n")
	assert.Contains(t, out, "#2 DELETE: DELETE is not a read-only SELECT")
	assert.NotContains(t, out, "#1")
}
