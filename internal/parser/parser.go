// Package parser provides the Parser interface for reading schema files in
// various formats (TOML, YAML, MySQL DDL) and converting them to
// schema.Definition values.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tableq/internal/parser/mysql"
	"tableq/internal/parser/toml"
	"tableq/internal/parser/yaml"
	"tableq/internal/schema"
)

type Parser interface {
	Parse(r io.Reader) ([]*schema.Definition, error)
	ParseFile(path string) ([]*schema.Definition, error)
}

// ForPath returns the parser matching the file extension of path.
func ForPath(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewParser(), nil
	case ".yaml", ".yml":
		return yaml.NewParser(), nil
	case ".sql":
		return mysql.NewParser(), nil
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

func ParseFile(path string) ([]*schema.Definition, error) {
	p, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(path)
}

// LoadFiles parses every file and registers its tables in file order.
// Extends targets may live in any of the files.
func LoadFiles(reg *schema.Registry, paths ...string) error {
	for _, path := range paths {
		defs, err := ParseFile(path)
		if err != nil {
			return err
		}
		for _, d := range defs {
			if err := reg.Register(d.Name, d); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return nil
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
