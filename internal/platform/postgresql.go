package platform

import (
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// pgCastRe matches a trailing type cast such as ::character varying or
// ::timestamp(0) without time zone.
var pgCastRe = regexp.MustCompile(`(?i)::[a-z_ ]+(\(\d+(,\s*\d+)?\))?[a-z_ ]*(\[\])?$`)

// PostgreSQL is the provider for PostgreSQL.
type PostgreSQL struct {
	base
}

// NewPostgreSQL returns the PostgreSQL provider.
func NewPostgreSQL() *PostgreSQL { return &PostgreSQL{} }

func (p *PostgreSQL) Name() string { return core.PlatformPostgreSQL }

func (p *PostgreSQL) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (p *PostgreSQL) ColumnType(col *core.Column) ColumnType {
	if ct, ok := declared(core.PlatformPostgreSQL, col); ok {
		return ct
	}
	switch col.Type.Category {
	case core.DataTypeInteger:
		return ColumnType{Name: "INTEGER"}
	case core.DataTypeSmallInt:
		return ColumnType{Name: "SMALLINT"}
	case core.DataTypeBigInt:
		return ColumnType{Name: "BIGINT"}
	case core.DataTypeBoolean:
		return ColumnType{Name: "BOOLEAN"}
	case core.DataTypeString:
		name := "VARCHAR"
		if col.Fixed {
			name = "CHAR"
		}
		return ColumnType{Name: name, Length: lengthOr(col.Length, col.Type.DefaultLength)}
	case core.DataTypeText:
		return ColumnType{Name: "TEXT"}
	case core.DataTypeBlob, core.DataTypeBinary:
		return ColumnType{Name: "BYTEA"}
	case core.DataTypeDecimal:
		return ColumnType{Name: "NUMERIC", Precision: lengthOr(col.Precision, 10), Scale: col.Scale}
	case core.DataTypeFloat:
		return ColumnType{Name: "DOUBLE PRECISION"}
	case core.DataTypeDate:
		return ColumnType{Name: "DATE"}
	case core.DataTypeDateTime:
		return ColumnType{Name: "TIMESTAMP(0) WITHOUT TIME ZONE"}
	case core.DataTypeDateTimeTz:
		return ColumnType{Name: "TIMESTAMP(0) WITH TIME ZONE"}
	case core.DataTypeTime:
		return ColumnType{Name: "TIME(0) WITHOUT TIME ZONE"}
	case core.DataTypeGUID:
		return ColumnType{Name: "UUID"}
	case core.DataTypeJSON:
		return ColumnType{Name: "JSON"}
	}
	return ColumnType{Name: strings.ToUpper(col.Type.Name)}
}

func (p *PostgreSQL) DefaultSynonyms() map[string]string {
	return map[string]string{
		"current_timestamp":       CurrentTimestamp,
		"now()":                   CurrentTimestamp,
		"transaction_timestamp()": CurrentTimestamp,
		"current_date":            CurrentDate,
		"current_time":            CurrentTime,
	}
}

// UnwrapDefault strips the type cast PostgreSQL appends to reported defaults,
// then the quoting: 'x'::text is x and NULL::text is SQL NULL. Negative
// numbers come back parenthesized.
func (p *PostgreSQL) UnwrapDefault(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = pgCastRe.ReplaceAllString(s, "")
	if stripped := strings.TrimSpace(s); len(stripped) > 2 && stripped[0] == '(' && stripped[len(stripped)-1] == ')' && isNumeric(stripped[1:len(stripped)-1]) {
		s = stripped[1 : len(stripped)-1]
	}
	return unwrapQuoted(s)
}

func (p *PostgreSQL) Features() Features {
	return Features{ColumnCollation: true, ColumnComment: true}
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	dot := false
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
