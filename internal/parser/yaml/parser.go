// Package yaml reads schema documents written in YAML. The document shape is
// the same as for TOML.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/parser/document"
)

// Parser reads YAML schema files.
type Parser struct {
	reg *core.TypeRegistry
}

// NewParser creates a YAML schema parser resolving types through reg.
func NewParser(reg *core.TypeRegistry) *Parser {
	return &Parser{reg: reg}
}

// ParseFile opens the file at the given path and parses it as a YAML schema.
func (p *Parser) ParseFile(path string) (*core.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("yaml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads YAML content from r. Unknown fields are rejected and an empty
// input yields an empty database.
func (p *Parser) Parse(r io.Reader) (*core.Database, error) {
	var doc document.Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml: decode error: %w", err)
	}

	db, err := doc.Convert(p.reg)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return db, nil
}
