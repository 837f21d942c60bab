package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		input string
		want  StorageType
	}{
		// Numeric
		{"int", StorageInteger},
		{"INT", StorageInteger},
		{"bigint(20) unsigned", StorageInteger},
		{"tinyint(1)", StorageInteger},
		{"bit", StorageInteger},
		{"float", StorageInteger},
		{"double precision", StorageInteger},
		{"number", StorageInteger},
		{"decimal(10,2)", StorageInteger},

		// Date family
		{"date", StorageDate},
		{"DATETIME", StorageDate},
		{"datetime(6)", StorageDate},
		{"datetimeiso", StorageDate},
		{"timestamp", StorageDate},

		// JSON
		{"json", StorageJSON},
		{"JSON", StorageJSON},

		// Text
		{"varchar(255)", StorageText},
		{"char", StorageText},
		{"text", StorageText},
		{"string", StorageText},
		{"enum('a','b')", StorageText},

		// Other
		{"bool", StorageOther},
		{"blob", StorageOther},
		{"", StorageOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyType(tt.input))
		})
	}
}

func TestStorageTypePredicates(t *testing.T) {
	assert.True(t, StorageInteger.IsNumeric())
	assert.False(t, StorageText.IsNumeric())
	assert.True(t, StorageDate.IsDate())
	assert.False(t, StorageJSON.IsDate())
}
