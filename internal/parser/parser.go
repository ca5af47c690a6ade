// Package parser reads schema files in the supported formats (TOML, YAML and
// MySQL DDL) and converts them to the core.Database snapshot.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/parser/mysql"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/parser/toml"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/parser/yaml"
)

// ParseFile picks a parser from the file extension and parses path.
func ParseFile(path string, reg *core.TypeRegistry) (*core.Database, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewParser(reg).ParseFile(path)
	case ".yaml", ".yml":
		return yaml.NewParser(reg).ParseFile(path)
	case ".sql":
		return mysql.NewParser(reg).ParseFile(path)
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
