package core

import (
	"fmt"
	"strings"
)

// ValidationError represents a rejected schema, filter or statement.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, e.Message)
}

// NotFoundError is returned when a table or an extends target is unknown.
type NotFoundError struct {
	Entity string
	Name   string
	From   string
}

func (e *NotFoundError) Error() string {
	if e.From != "" {
		return fmt.Sprintf("%s %q referenced from %q not found", e.Entity, e.Name, e.From)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.Name)
}

// ExecutionError wraps a failure reported by an execution adapter or raised
// while normalizing its result rows.
type ExecutionError struct {
	Table string
	Field string
	Type  string
	Err   error
}

func (e *ExecutionError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("execution error in table %q: field %q has unsupported type %s", e.Table, e.Field, e.Type)
	case e.Err != nil:
		return fmt.Sprintf("execution error in table %q: %v", e.Table, e.Err)
	default:
		return fmt.Sprintf("execution error in table %q", e.Table)
	}
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Validate checks if the Table definition is valid and returns an error if not.
// Mapping must be a bijection between display names and existing fields.
func (t *Table) Validate() error {
	if t == nil {
		return &ValidationError{Entity: "table", Message: "table is nil"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Entity: "table", Name: "(empty)", Message: "table name is empty"}
	}
	if strings.TrimSpace(t.Object) == "" {
		return &ValidationError{Entity: "table", Name: t.Name, Message: "physical object name is empty"}
	}
	if len(t.Fields) == 0 {
		return &ValidationError{Entity: "table", Name: t.Name, Message: "table has no fields"}
	}

	seenFields := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		if f == nil {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("field at index %d is nil", i)}
		}
		if strings.TrimSpace(f.Name) == "" {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("field at index %d has no name", i)}
		}
		if seenFields[f.Name] {
			return &ValidationError{Entity: "table", Name: t.Name, Field: f.Name, Message: "duplicate field name"}
		}
		seenFields[f.Name] = true
	}

	seenAliases := make(map[string]bool, len(t.Mapping))
	mappedFields := make(map[string]string, len(t.Mapping))
	for _, m := range t.Mapping {
		if strings.TrimSpace(m.Alias) == "" {
			return &ValidationError{Entity: "table", Name: t.Name, Field: m.Field, Message: "mapping has an empty display name"}
		}
		if seenAliases[m.Alias] {
			return &ValidationError{Entity: "table", Name: t.Name, Field: m.Alias, Message: "duplicate display name"}
		}
		seenAliases[m.Alias] = true
		if !seenFields[m.Field] {
			return &ValidationError{Entity: "table", Name: t.Name, Field: m.Alias, Message: fmt.Sprintf("mapped to unknown field %q", m.Field)}
		}
		if prev, ok := mappedFields[m.Field]; ok {
			return &ValidationError{Entity: "table", Name: t.Name, Field: m.Field, Message: fmt.Sprintf("mapped by both %q and %q", prev, m.Alias)}
		}
		mappedFields[m.Field] = m.Alias
	}
	return nil
}
