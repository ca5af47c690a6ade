// Package output renders schema diffs and migration plans. Four formats are
// available: a colored text report, SQL, JSON and a compact summary.
package output

import (
	"fmt"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

// Format is the name of an output format.
type Format string

const (
	FormatText    Format = "text"
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatSQL, FormatJSON, FormatSummary}

// Formatter renders diffs and migrations.
type Formatter interface {
	FormatDiff(*diff.SchemaDiff) (string, error)
	FormatMigration(*migration.Migration) (string, error)
}

type options struct {
	color bool
}

// Option configures a formatter.
type Option func(*options)

// WithColor enables ANSI colors in the text and sql formats. The other
// formats ignore it.
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = enabled }
}

// NewFormatter returns the formatter named name. An empty name selects the
// text format.
func NewFormatter(name string, opts ...Option) (Formatter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatText:
		return newTextFormatter(o.color), nil
	case FormatSQL:
		return sqlFormatter{color: o.color}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'text', 'sql', 'json', or 'summary'", name)
	}
}

func normalizeStatements(stmts []string) []string {
	var out []string
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.HasSuffix(stmt, ";") {
			stmt += ";"
		}
		out = append(out, stmt)
	}
	return out
}
