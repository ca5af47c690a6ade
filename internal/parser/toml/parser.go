// Package toml reads schema documents written in TOML and converts them into
// core snapshots.
package toml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/parser/document"
)

// Parser reads TOML schema files.
type Parser struct {
	reg *core.TypeRegistry
}

// NewParser creates a TOML schema parser resolving types through reg.
func NewParser(reg *core.TypeRegistry) *Parser {
	return &Parser{reg: reg}
}

// ParseFile opens the file at the given path and parses it as a TOML schema.
func (p *Parser) ParseFile(path string) (*core.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from r and returns the corresponding snapshot.
// Keys the document format does not know are rejected.
func (p *Parser) Parse(r io.Reader) (*core.Database, error) {
	var doc document.Document
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("toml: unknown keys: %s", strings.Join(keys, ", "))
	}

	db, err := doc.Convert(p.reg)
	if err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return db, nil
}
