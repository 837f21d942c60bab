package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	d := NewMySQLDialect()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "orders", "`orders`"},
		{"spaces kept", "order lines", "`order lines`"},
		{"surrounding spaces trimmed", "  orders  ", "`orders`"},
		{"backtick doubled", "ord`ers", "`ord``ers`"},
		{"dots are not split", "shop.orders", "`shop.orders`"},
		{"unicode", "pedidos_año", "`pedidos_año`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, d.QuoteIdentifier(tt.input))
		})
	}

	once := d.QuoteIdentifier("ord`ers")
	assert.NotEqual(t, once, d.QuoteIdentifier(once), "quoting twice escapes the backticks again")
}

func TestQuoteString(t *testing.T) {
	d := NewMySQLDialect()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "paid", "'paid'"},
		{"empty", "", "''"},
		{"single quote doubled", "o'neil", "'o''neil'"},
		{"backslash escaped", `C:\tmp`, `'C:\\tmp'`},
		{"newline escaped", "a\nb", `'a\nb'`},
		{"carriage return escaped", "a\rb", `'a\rb'`},
		{"nul escaped", "a\x00b", `'a\0b'`},
		{"ctrl-z escaped", "a\x1Ab", `'a\Zb'`},
		{"like wildcards untouched", "%ol_", "'%ol_'"},
		{"injection stays inside literal", "x' OR '1'='1", "'x'' OR ''1''=''1'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, d.QuoteString(tt.input))
		})
	}
}
