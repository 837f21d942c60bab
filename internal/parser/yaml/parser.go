// Package yaml reads table definitions from YAML schema files.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"tableq/internal/schema"
)

type schemaFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string              `yaml:"name"`
	Object  string              `yaml:"object,omitempty"`
	Extends string              `yaml:"extends,omitempty"`
	Fields  []schema.FieldDef   `yaml:"fields"`
	Mapping []schema.MappingDef `yaml:"mapping,omitempty"`
}

// Parser reads tableq YAML schema files.
type Parser struct{}

// NewParser creates a new YAML schema parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a YAML schema.
func (p *Parser) ParseFile(path string) ([]*schema.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("yaml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse decodes a single YAML document. Unknown keys are rejected and an
// empty document yields no definitions.
func (p *Parser) Parse(r io.Reader) ([]*schema.Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sf schemaFile
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml: decode error: %w", err)
	}

	seen := make(map[string]bool, len(sf.Tables))
	defs := make([]*schema.Definition, 0, len(sf.Tables))
	for i, t := range sf.Tables {
		if t.Name == "" {
			return nil, fmt.Errorf("yaml: table at index %d has no name", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("yaml: table %q is defined twice", t.Name)
		}
		seen[t.Name] = true

		defs = append(defs, &schema.Definition{
			Name:    t.Name,
			Object:  t.Object,
			Extends: t.Extends,
			Fields:  t.Fields,
			Mapping: t.Mapping,
		})
	}
	return defs, nil
}

// Marshal renders definitions in the format Parse reads.
func Marshal(defs []*schema.Definition) ([]byte, error) {
	sf := schemaFile{Tables: make([]yamlTable, 0, len(defs))}
	for _, d := range defs {
		sf.Tables = append(sf.Tables, yamlTable{
			Name:    d.Name,
			Object:  d.Object,
			Extends: d.Extends,
			Fields:  d.Fields,
			Mapping: d.Mapping,
		})
	}
	return yaml.Marshal(&sf)
}
