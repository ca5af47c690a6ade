package platform

import (
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// SQLServer is the provider for Microsoft SQL Server.
type SQLServer struct {
	base
}

// NewSQLServer returns the SQL Server provider.
func NewSQLServer() *SQLServer { return &SQLServer{} }

func (p *SQLServer) Name() string { return core.PlatformSQLServer }

func (p *SQLServer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (p *SQLServer) ColumnType(col *core.Column) ColumnType {
	if ct, ok := declared(core.PlatformSQLServer, col); ok {
		return ct
	}
	switch col.Type.Category {
	case core.DataTypeInteger:
		return ColumnType{Name: "INT"}
	case core.DataTypeSmallInt:
		return ColumnType{Name: "SMALLINT"}
	case core.DataTypeBigInt:
		return ColumnType{Name: "BIGINT"}
	case core.DataTypeBoolean:
		return ColumnType{Name: "BIT"}
	case core.DataTypeString:
		name := "NVARCHAR"
		if col.Fixed {
			name = "NCHAR"
		}
		return ColumnType{Name: name, Length: lengthOr(col.Length, col.Type.DefaultLength)}
	case core.DataTypeBinary:
		name := "VARBINARY"
		if col.Fixed {
			name = "BINARY"
		}
		return ColumnType{Name: name, Length: lengthOr(col.Length, col.Type.DefaultLength)}
	case core.DataTypeText, core.DataTypeJSON:
		return ColumnType{Name: "VARCHAR(MAX)"}
	case core.DataTypeBlob:
		return ColumnType{Name: "VARBINARY(MAX)"}
	case core.DataTypeDecimal:
		return ColumnType{Name: "NUMERIC", Precision: lengthOr(col.Precision, 10), Scale: col.Scale}
	case core.DataTypeFloat:
		return ColumnType{Name: "FLOAT"}
	case core.DataTypeDate:
		return ColumnType{Name: "DATE"}
	case core.DataTypeDateTime:
		return ColumnType{Name: "DATETIME2(6)"}
	case core.DataTypeDateTimeTz:
		return ColumnType{Name: "DATETIMEOFFSET(6)"}
	case core.DataTypeTime:
		return ColumnType{Name: "TIME(0)"}
	case core.DataTypeGUID:
		return ColumnType{Name: "UNIQUEIDENTIFIER"}
	}
	return ColumnType{Name: strings.ToUpper(col.Type.Name)}
}

func (p *SQLServer) DefaultSynonyms() map[string]string {
	return map[string]string{
		"current_timestamp": CurrentTimestamp,
		"getdate()":         CurrentTimestamp,
		"sysdatetime()":     CurrentTimestamp,
		"current_date":      CurrentDate,
		"current_time":      CurrentTime,
	}
}

// UnwrapDefault removes the parentheses SQL Server wraps around every stored
// default: ((1)) is 1, ('x') is x and (getdate()) is getdate().
func (p *SQLServer) UnwrapDefault(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && balanced(s[1:len(s)-1]) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return unwrapQuoted(s)
}

func (p *SQLServer) Features() Features {
	return Features{ColumnCollation: true, ColumnComment: true}
}

func (p *SQLServer) CurrentTimestampSQL() string { return "GETDATE()" }
func (p *SQLServer) CurrentDateSQL() string      { return "CONVERT(date, GETDATE())" }
func (p *SQLServer) CurrentTimeSQL() string      { return "CONVERT(time, GETDATE())" }

// balanced reports whether every parenthesis in s outside string literals is
// closed, so that stripping an outer pair keeps the expression intact.
func balanced(s string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
