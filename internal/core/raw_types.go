package core

import (
	"regexp"
	"strings"
)

// parenRe matches balanced parentheses and their content so we can
// extract the base type name. Example: "VARCHAR(255)" -> "VARCHAR".
var parenRe = regexp.MustCompile(`\([^)]*\)`)

// wsRe collapses runs of whitespace into a single space after the
// parenthesized parts have been removed.
var wsRe = regexp.MustCompile(`\s+`)

// StorageType is the comparison family of a field.
type StorageType string

const (
	StorageInteger StorageType = "integer"
	StorageText    StorageType = "text"
	StorageDate    StorageType = "date"
	StorageJSON    StorageType = "json"
	StorageOther   StorageType = "other"
)

var dateTypes = toSet("date", "datetime", "datetimeiso", "timestamp")

// Substring markers, matched against the lower-cased token.
var (
	numericMarkers = []string{"int", "bit", "float", "double", "number", "decimal", "numeric"}
	textMarkers    = []string{"char", "text", "string", "var", "enum"}
)

// ClassifyType maps a declared storage type token to its StorageType.
func ClassifyType(token string) StorageType {
	base := baseType(token)
	switch {
	case dateTypes[base]:
		return StorageDate
	case base == "json":
		return StorageJSON
	case containsAny(base, numericMarkers):
		return StorageInteger
	case containsAny(base, textMarkers):
		return StorageText
	default:
		return StorageOther
	}
}

// IsNumeric reports whether values compare as numbers.
func (s StorageType) IsNumeric() bool { return s == StorageInteger }

// IsDate reports whether values compare as truncated dates.
func (s StorageType) IsDate() bool { return s == StorageDate }

func baseType(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	t = parenRe.ReplaceAllString(t, "")
	t = wsRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func toSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}
