package platform

import (
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// SQLite is the provider for SQLite 3.
type SQLite struct {
	base
}

// NewSQLite returns the SQLite provider.
func NewSQLite() *SQLite { return &SQLite{} }

func (p *SQLite) Name() string { return core.PlatformSQLite }

func (p *SQLite) ColumnType(col *core.Column) ColumnType {
	if ct, ok := declared(core.PlatformSQLite, col); ok {
		return ct
	}
	switch col.Type.Category {
	case core.DataTypeInteger, core.DataTypeBigInt:
		return ColumnType{Name: "INTEGER"}
	case core.DataTypeSmallInt:
		return ColumnType{Name: "SMALLINT"}
	case core.DataTypeBoolean:
		return ColumnType{Name: "BOOLEAN"}
	case core.DataTypeString:
		name := "VARCHAR"
		if col.Fixed {
			name = "CHAR"
		}
		return ColumnType{Name: name, Length: lengthOr(col.Length, col.Type.DefaultLength)}
	case core.DataTypeText, core.DataTypeJSON, core.DataTypeGUID:
		return ColumnType{Name: "CLOB"}
	case core.DataTypeBlob, core.DataTypeBinary:
		return ColumnType{Name: "BLOB"}
	case core.DataTypeDecimal:
		return ColumnType{Name: "NUMERIC", Precision: lengthOr(col.Precision, 10), Scale: col.Scale}
	case core.DataTypeFloat:
		return ColumnType{Name: "DOUBLE PRECISION"}
	case core.DataTypeDate:
		return ColumnType{Name: "DATE"}
	case core.DataTypeDateTime, core.DataTypeDateTimeTz:
		return ColumnType{Name: "DATETIME"}
	case core.DataTypeTime:
		return ColumnType{Name: "TIME"}
	}
	return ColumnType{Name: strings.ToUpper(col.Type.Name)}
}

func (p *SQLite) DefaultSynonyms() map[string]string {
	return map[string]string{
		"current_timestamp": CurrentTimestamp,
		"current_date":      CurrentDate,
		"current_time":      CurrentTime,
	}
}

func (p *SQLite) Features() Features {
	return Features{ColumnCollation: true}
}
