package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"dario.cat/mergo"

	"tableq/internal/core"
)

// Registry stores table definitions by name and resolves them lazily.
type Registry struct {
	mu     sync.Mutex
	defs   map[string]*Definition
	flat   map[string]*Definition
	tables map[string]*core.Table
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:   make(map[string]*Definition),
		flat:   make(map[string]*Definition),
		tables: make(map[string]*core.Table),
	}
}

// Register stores a definition under name. Definitions without extends are
// validated immediately; extended ones are validated on first Resolve.
func (r *Registry) Register(name string, def *Definition) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &core.ValidationError{Entity: "schema", Name: "(empty)", Message: "table name is empty"}
	}
	if def == nil {
		return &core.ValidationError{Entity: "schema", Name: name, Message: "definition is nil"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[name]; ok {
		return &core.ValidationError{Entity: "schema", Name: name, Message: "table already registered"}
	}

	d := cloneDefinition(def)
	d.Name = name
	if d.Extends == "" {
		if _, err := d.build(); err != nil {
			return err
		}
	}
	r.defs[name] = d
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, def *Definition) {
	if err := r.Register(name, def); err != nil {
		panic(err)
	}
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the table registered under name with its extends chain
// merged. The merged table is cached; subsequent calls return the same value.
func (r *Registry) Resolve(name string) (*core.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tables[name]; ok {
		return t, nil
	}
	flat, err := r.flatten(name, "", map[string]bool{})
	if err != nil {
		return nil, err
	}
	t, err := flat.build()
	if err != nil {
		return nil, err
	}
	r.tables[name] = t
	return t, nil
}

// Definition returns the flattened definition of a table.
func (r *Registry) Definition(name string) (*Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flat, err := r.flatten(name, "", map[string]bool{})
	if err != nil {
		return nil, err
	}
	return cloneDefinition(flat), nil
}

func (r *Registry) flatten(name, from string, visiting map[string]bool) (*Definition, error) {
	if d, ok := r.flat[name]; ok {
		return d, nil
	}
	def, ok := r.defs[name]
	if !ok {
		if from != "" {
			return nil, &core.NotFoundError{Entity: "extends target", Name: name, From: from}
		}
		return nil, &core.NotFoundError{Entity: "table", Name: name}
	}
	if visiting[name] {
		return nil, &core.ValidationError{Entity: "schema", Name: name, Message: "cyclic extends chain"}
	}
	visiting[name] = true

	flat := def
	if def.Extends != "" {
		parent, err := r.flatten(def.Extends, name, visiting)
		if err != nil {
			return nil, err
		}
		flat, err = merge(parent, def)
		if err != nil {
			return nil, fmt.Errorf("schema: merge %q into %q: %w", def.Extends, name, err)
		}
	}
	r.flat[name] = flat
	return flat, nil
}

// merge composes a child definition over its flattened parent. Entries
// present in both take the child's value; the parent's order is kept and
// child-only entries are appended. A child alias for a field the parent
// already maps drops the parent's alias, keeping the mapping one-to-one.
func merge(parent, child *Definition) (*Definition, error) {
	fields := make(map[string]FieldDef, len(parent.Fields))
	for _, f := range parent.Fields {
		fields[f.Name] = f
	}
	childFields := make(map[string]FieldDef, len(child.Fields))
	for _, f := range child.Fields {
		childFields[f.Name] = f
	}
	if err := mergo.Merge(&fields, childFields, mergo.WithOverride); err != nil {
		return nil, err
	}

	mapping := make(map[string]MappingDef, len(parent.Mapping))
	for _, m := range parent.Mapping {
		mapping[m.Alias] = m
	}
	childMapping := make(map[string]MappingDef, len(child.Mapping))
	remapped := make(map[string]bool, len(child.Mapping))
	for _, m := range child.Mapping {
		childMapping[m.Alias] = m
		remapped[m.Field] = true
	}
	if err := mergo.Merge(&mapping, childMapping, mergo.WithOverride); err != nil {
		return nil, err
	}

	out := &Definition{
		Name:    child.Name,
		Object:  child.Object,
		Extends: child.Extends,
	}
	if out.Object == "" {
		out.Object = parent.Object
		if out.Object == "" {
			out.Object = parent.Name
		}
	}
	for _, name := range mergedOrder(fieldNames(parent.Fields), fieldNames(child.Fields)) {
		out.Fields = append(out.Fields, fields[name])
	}
	for _, alias := range mergedOrder(aliasNames(parent.Mapping), aliasNames(child.Mapping)) {
		m := mapping[alias]
		if _, own := childMapping[alias]; !own && remapped[m.Field] {
			// the child renamed this field; its alias replaces the parent's
			continue
		}
		m.Views = append([]string(nil), m.Views...)
		out.Mapping = append(out.Mapping, m)
	}
	return out, nil
}

func mergedOrder(parent, child []string) []string {
	seen := make(map[string]bool, len(parent)+len(child))
	out := make([]string, 0, len(parent)+len(child))
	for _, list := range [][]string{parent, child} {
		for _, name := range list {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func fieldNames(fields []FieldDef) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

func aliasNames(mapping []MappingDef) []string {
	names := make([]string, 0, len(mapping))
	for _, m := range mapping {
		names = append(names, m.Alias)
	}
	return names
}

func cloneDefinition(d *Definition) *Definition {
	out := *d
	out.Fields = append([]FieldDef(nil), d.Fields...)
	out.Mapping = make([]MappingDef, 0, len(d.Mapping))
	for _, m := range d.Mapping {
		m.Views = append([]string(nil), m.Views...)
		out.Mapping = append(out.Mapping, m)
	}
	return &out
}
