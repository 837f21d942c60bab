// Package core contains the single source of truth for queryable table
// schemas. It provides a structured representation of fields, key fields and
// display-name mappings that the registry, the query engine and the
// execution adapters operate on.
package core

import "strings"

// Field represents a physical column of a table.
type Field struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Storage    StorageType `json:"storage"`
	Key        bool        `json:"key,omitempty"`
	Validation string      `json:"validation,omitempty"`
}

// Mapped binds a display name to a physical field. Views restricts which
// logical views include the field; an empty list means every view.
type Mapped struct {
	Alias string   `json:"alias"`
	Field string   `json:"field"`
	Views []string `json:"views,omitempty"`
}

// InView reports whether the mapped field belongs to the given view.
// An empty view selects everything.
func (m *Mapped) InView(view string) bool {
	if view == "" || len(m.Views) == 0 {
		return true
	}
	for _, v := range m.Views {
		if v == view {
			return true
		}
	}
	return false
}

// Table represents a resolved table schema. Object is the physical name used
// in statements; Name is the registry name.
type Table struct {
	Name    string    `json:"name"`
	Object  string    `json:"object"`
	Extends string    `json:"extends,omitempty"`
	Fields  []*Field  `json:"fields"`
	Mapping []*Mapped `json:"mapping,omitempty"`
}

// NewField builds a Field from a storage type token and a validation token.
func NewField(name, typeToken, validation string) *Field {
	return &Field{
		Name:       name,
		Type:       typeToken,
		Storage:    ClassifyType(typeToken),
		Key:        strings.Contains(strings.ToLower(validation), "iskey"),
		Validation: validation,
	}
}

// FindField returns the field with the given physical name or nil.
func (t *Table) FindField(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindAlias returns the mapping entry for a display name or nil.
func (t *Table) FindAlias(alias string) *Mapped {
	for _, m := range t.Mapping {
		if m.Alias == alias {
			return m
		}
	}
	return nil
}

// AliasFor returns the display name of a physical field, if mapped.
func (t *Table) AliasFor(field string) (string, bool) {
	for _, m := range t.Mapping {
		if m.Field == field {
			return m.Alias, true
		}
	}
	return "", false
}

// Keys returns the key fields in declaration order.
func (t *Table) Keys() []*Field {
	var keys []*Field
	for _, f := range t.Fields {
		if f.Key {
			keys = append(keys, f)
		}
	}
	return keys
}

// FieldNames returns the physical field names in declaration order.
func (t *Table) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Aliases returns the display names in mapping order.
func (t *Table) Aliases() []string {
	aliases := make([]string, 0, len(t.Mapping))
	for _, m := range t.Mapping {
		aliases = append(aliases, m.Alias)
	}
	return aliases
}

// HasMapping reports whether the table declares display names.
func (t *Table) HasMapping() bool {
	return len(t.Mapping) > 0
}
