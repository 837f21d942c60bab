package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableq/internal/core"
	"tableq/internal/dialect"
)

func TestDialectRegistered(t *testing.T) {
	d := dialect.GetDialect(dialect.MySQL)
	require.NotNil(t, d)
	assert.Equal(t, dialect.MySQL, d.Name())
}

func TestEscapeStringMatchesQuoteString(t *testing.T) {
	d := NewMySQLDialect()
	for _, in := range []string{"", "plain", "it's", "a\\b", "x\ny"} {
		assert.Equal(t, "'"+d.EscapeString(in)+"'", d.QuoteString(in))
	}
	assert.Equal(t, `O''Brien\\`, d.EscapeString(`O'Brien\`))
}

func TestFormatDate(t *testing.T) {
	d := NewMySQLDialect()

	tests := []struct {
		g    dialect.Granularity
		want string
	}{
		{dialect.GranularityYear, "DATE_FORMAT(`orders`.CreatedAt, '%Y')"},
		{dialect.GranularityMonth, "DATE_FORMAT(`orders`.CreatedAt, '%Y-%m')"},
		{dialect.GranularityDay, "DATE_FORMAT(`orders`.CreatedAt, '%Y-%m-%d')"},
	}
	for _, tt := range tests {
		t.Run(tt.g.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, d.FormatDate("`orders`.CreatedAt", tt.g))
		})
	}
}

func TestJSONAsTextAndRandom(t *testing.T) {
	d := NewMySQLDialect()
	assert.Equal(t, "CAST(`orders`.Meta AS CHAR)", d.JSONAsText("`orders`.Meta"))
	assert.Equal(t, "RAND()", d.Random())
}

func TestCreateTable(t *testing.T) {
	d := NewMySQLDialect()
	tbl := &core.Table{
		Name:   "orders",
		Object: "sales_orders",
		Fields: []*core.Field{
			core.NewField("Region", "varchar(8)", "isKey"),
			core.NewField("Id", "int", "isKey"),
			core.NewField("Label", "string", ""),
			core.NewField("CreatedAt", "datetimeiso", ""),
			core.NewField("Meta", "json", ""),
		},
	}

	want := "CREATE TABLE `sales_orders` (\n" +
		"  `Region` varchar(8) NOT NULL,\n" +
		"  `Id` int NOT NULL,\n" +
		"  `Label` varchar(255) NULL,\n" +
		"  `CreatedAt` datetime NULL,\n" +
		"  `Meta` json NULL,\n" +
		"  PRIMARY KEY (`Region`, `Id`)\n" +
		");"
	assert.Equal(t, want, d.CreateTable(tbl))
}

func TestCreateTableWithoutKeys(t *testing.T) {
	d := NewMySQLDialect()
	tbl := &core.Table{
		Name:   "log",
		Object: "log",
		Fields: []*core.Field{core.NewField("Message", "", "")},
	}
	assert.Equal(t, "CREATE TABLE `log` (\n  `Message` text NULL\n);", d.CreateTable(tbl))
}
