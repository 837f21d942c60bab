// Package toml provides a parser for the tableq TOML schema format.
// It reads table definitions from a .toml file and converts them into
// schema.Definition values ready for registration.
package toml

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"tableq/internal/schema"
)

// schemaFile is the top-level TOML document. Tables, their fields and their
// mapping are arrays of tables so declaration order survives decoding.
type schemaFile struct {
	Tables []tomlTable `toml:"tables"`
}

// tomlTable maps one [[tables]] entry.
type tomlTable struct {
	Name    string              `toml:"name"`
	Object  string              `toml:"object"`
	Extends string              `toml:"extends"`
	Fields  []schema.FieldDef   `toml:"fields"`
	Mapping []schema.MappingDef `toml:"mapping"`
}

// Parser reads tableq TOML schema files.
type Parser struct{}

// NewParser creates a new TOML schema parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a TOML schema.
func (p *Parser) ParseFile(path string) ([]*schema.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from reader and returns its table definitions in
// file order. Unknown keys are rejected.
func (p *Parser) Parse(r io.Reader) ([]*schema.Definition, error) {
	var sf schemaFile
	md, err := toml.NewDecoder(r).Decode(&sf)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("toml: unknown key %q", undecoded[0].String())
	}

	seen := make(map[string]bool, len(sf.Tables))
	defs := make([]*schema.Definition, 0, len(sf.Tables))
	for i := range sf.Tables {
		t := &sf.Tables[i]
		if t.Name == "" {
			return nil, fmt.Errorf("toml: table at index %d has no name", i)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("toml: table %q is defined twice", t.Name)
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
