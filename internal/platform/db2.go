package platform

import (
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// DB2 is the provider for IBM Db2 for LUW. There is no introspecter for it;
// the provider is used for normalization and DDL only.
type DB2 struct {
	base
}

// NewDB2 returns the Db2 provider.
func NewDB2() *DB2 { return &DB2{} }

func (p *DB2) Name() string { return core.PlatformDB2 }

func (p *DB2) ColumnType(col *core.Column) ColumnType {
	if ct, ok := declared(core.PlatformDB2, col); ok {
		return ct
	}
	switch col.Type.Category {
	case core.DataTypeInteger:
		return ColumnType{Name: "INTEGER"}
	case core.DataTypeSmallInt, core.DataTypeBoolean:
		return ColumnType{Name: "SMALLINT"}
	case core.DataTypeBigInt:
		return ColumnType{Name: "BIGINT"}
	case core.DataTypeString, core.DataTypeGUID:
		name := "VARCHAR"
		if col.Fixed || col.Type.Category == core.DataTypeGUID {
			name = "CHAR"
		}
		length := lengthOr(col.Length, col.Type.DefaultLength)
		if col.Type.Category == core.DataTypeGUID {
			length = 36
		}
		return ColumnType{Name: name, Length: length}
	case core.DataTypeBinary:
		name := "VARBINARY"
		if col.Fixed {
			name = "BINARY"
		}
		return ColumnType{Name: name, Length: lengthOr(col.Length, col.Type.DefaultLength)}
	case core.DataTypeText, core.DataTypeJSON:
		return ColumnType{Name: "CLOB(1M)"}
	case core.DataTypeBlob:
		return ColumnType{Name: "BLOB(1M)"}
	case core.DataTypeDecimal:
		return ColumnType{Name: "DECIMAL", Precision: lengthOr(col.Precision, 10), Scale: col.Scale}
	case core.DataTypeFloat:
		return ColumnType{Name: "DOUBLE"}
	case core.DataTypeDate:
		return ColumnType{Name: "DATE"}
	case core.DataTypeDateTime, core.DataTypeDateTimeTz:
		return ColumnType{Name: "TIMESTAMP(0)"}
	case core.DataTypeTime:
		return ColumnType{Name: "TIME"}
	}
	return ColumnType{Name: strings.ToUpper(col.Type.Name)}
}

func (p *DB2) DefaultSynonyms() map[string]string {
	return map[string]string{
		"current timestamp": CurrentTimestamp,
		"current_timestamp": CurrentTimestamp,
		"current date":      CurrentDate,
		"current_date":      CurrentDate,
		"current time":      CurrentTime,
		"current_time":      CurrentTime,
	}
}

func (p *DB2) Features() Features {
	return Features{}
}

func (p *DB2) CurrentTimestampSQL() string { return "CURRENT TIMESTAMP" }
func (p *DB2) CurrentDateSQL() string      { return "CURRENT DATE" }
func (p *DB2) CurrentTimeSQL() string      { return "CURRENT TIME" }
