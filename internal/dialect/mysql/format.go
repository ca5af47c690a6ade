package mysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

func (g *Generator) formatColumns(cols []string) string {
	var quoted []string
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		quoted = append(quoted, g.QuoteIdentifier(c))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func (g *Generator) formatIndexColumns(cols []core.IndexColumn) string {
	var quoted []string
	for _, c := range cols {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		qname := g.QuoteIdentifier(name)
		if c.Length > 0 {
			qname = fmt.Sprintf("%s(%d)", qname, c.Length)
		}
		if c.Order == core.SortDesc {
			qname += " DESC"
		}
		quoted = append(quoted, qname)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// formatValue renders the default v of col. Snapshots keep literals unquoted,
// so character and temporal values are quoted here unless they name one of
// the current-time expressions.
func (g *Generator) formatValue(v string, col *core.Column) string {
	if expr, ok := g.currentTime(v); ok {
		return expr
	}

	switch col.Type.Category {
	case core.DataTypeString, core.DataTypeText, core.DataTypeGUID, core.DataTypeBinary, core.DataTypeBlob:
		return g.QuoteString(v)
	case core.DataTypeDate, core.DataTypeDateTime, core.DataTypeDateTimeTz, core.DataTypeTime:
		// CURRENT_TIMESTAMP(6) and friends
		if strings.HasSuffix(v, ")") && strings.Contains(v, "(") {
			return v
		}
		return g.QuoteString(v)
	case core.DataTypeBoolean:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return "1"
		case "false":
			return "0"
		}
	}

	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "NULL") {
		return "NULL"
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	if strings.ContainsAny(v, "()") {
		return v
	}
	return g.QuoteString(v)
}

// formatExpression renders an ON UPDATE expression.
func (g *Generator) formatExpression(v string) string {
	if expr, ok := g.currentTime(v); ok {
		return expr
	}
	return strings.TrimSpace(v)
}

func (g *Generator) currentTime(v string) (string, bool) {
	token, ok := g.p.DefaultSynonyms()[strings.ToLower(strings.TrimSpace(v))]
	if !ok {
		return "", false
	}
	switch token {
	case platform.CurrentTimestamp:
		return g.p.CurrentTimestampSQL(), true
	case platform.CurrentDate:
		return g.p.CurrentDateSQL(), true
	case platform.CurrentTime:
		return g.p.CurrentTimeSQL(), true
	}
	return "", false
}
