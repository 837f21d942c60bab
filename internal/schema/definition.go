// Package schema holds declarative table definitions and the registry that
// turns them into resolved core.Table values, merging "extends" chains once
// and caching the result.
package schema

import "tableq/internal/core"

// FieldDef is one declared field: a storage type token and a validation
// token ("isKey" marks key membership).
type FieldDef struct {
	Name       string `yaml:"name" toml:"name"`
	Type       string `yaml:"type" toml:"type"`
	Validation string `yaml:"validation,omitempty" toml:"validation,omitempty"`
}

// MappingDef declares a display name for a physical field.
type MappingDef struct {
	Alias string   `yaml:"alias" toml:"alias"`
	Field string   `yaml:"field" toml:"field"`
	Views []string `yaml:"views,omitempty" toml:"views,omitempty"`
}

// Definition is the declarative description of a table. Fields and Mapping
// are ordered; key order is taken from Fields.
type Definition struct {
	Name    string
	Object  string
	Extends string
	Fields  []FieldDef
	Mapping []MappingDef
}

// Field returns the declared field with the given name.
func (d *Definition) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// build converts a flattened definition into a core.Table.
func (d *Definition) build() (*core.Table, error) {
	object := d.Object
	if object == "" {
		object = d.Name
	}
	t := &core.Table{
		Name:    d.Name,
		Object:  object,
		Extends: d.Extends,
		Fields:  make([]*core.Field, 0, len(d.Fields)),
	}
	for _, f := range d.Fields {
		t.Fields = append(t.Fields, core.NewField(f.Name, f.Type, f.Validation))
	}
	for _, m := range d.Mapping {
		views := append([]string(nil), m.Views...)
		t.Mapping = append(t.Mapping, &core.Mapped{Alias: m.Alias, Field: m.Field, Views: views})
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
