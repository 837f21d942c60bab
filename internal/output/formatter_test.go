package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableq/internal/query"
)

func TestNewFormatterDefaultsToSQL(t *testing.T) {
	f, err := NewFormatter("")
	require.NoError(t, err)
	_, ok := f.(sqlFormatter)
	assert.True(t, ok)
}

func TestNewFormatterNames(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"sql", sqlFormatter{}},
		{"SQL", sqlFormatter{}},
		{"  sql  ", sqlFormatter{}},
		{"json", jsonFormatter{}},
		{"JSON", jsonFormatter{}},
		{"summary", summaryFormatter{}},
	}
	for _, tt := range tests {
		f, err := NewFormatter(tt.name)
		require.NoError(t, err, tt.name)
		assert.IsType(t, tt.want, f, tt.name)
	}
}

func TestNewFormatterInvalidFormat(t *testing.T) {
	f, err := NewFormatter("yaml")
	assert.Error(t, err)
	assert.Nil(t, f)
	assert.Contains(t, err.Error(), "unsupported format: yaml")
	assert.Contains(t, err.Error(), "use 'sql', 'json', or 'summary'")
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON(" Json "))
	assert.False(t, IsJSON("sql"))
	assert.False(t, IsJSON(""))
}

func TestNormalizeStatement(t *testing.T) {
	assert.Equal(t, "", normalizeStatement("   "))
	assert.Equal(t, "SELECT 1;", normalizeStatement(" SELECT 1 "))
	assert.Equal(t, "SELECT 1;", normalizeStatement("SELECT 1;"))
}

func TestColumnsAreSortedUnion(t *testing.T) {
	rows := []query.Row{{"b": 1, "a": 2}, {"c": 3, "a": 4}}
	assert.Equal(t, []string{"a", "b", "c"}, columns(rows))
	assert.Empty(t, columns(nil))
}
