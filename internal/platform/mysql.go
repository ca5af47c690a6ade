package platform

import (
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// MySQL storage limits of the TEXT and BLOB tiers.
const (
	LengthLimitTiny   = 255
	LengthLimitPlain  = 65535
	LengthLimitMedium = 16777215
	LengthLimitLong   = 4294967295
)

var mysqlTiers = []struct {
	prefix string
	max    int
}{
	{"TINY", LengthLimitTiny},
	{"", LengthLimitPlain},
	{"MEDIUM", LengthLimitMedium},
	{"LONG", LengthLimitLong},
}

var mysqlDefaultCollations = map[string]string{
	"utf8mb4": "utf8mb4_0900_ai_ci",
	"utf8mb3": "utf8mb3_general_ci",
	"utf8":    "utf8mb3_general_ci",
	"latin1":  "latin1_swedish_ci",
	"ascii":   "ascii_general_ci",
	"binary":  "binary",
	"ucs2":    "ucs2_general_ci",
	"utf16":   "utf16_general_ci",
	"utf32":   "utf32_general_ci",
	"cp1251":  "cp1251_general_ci",
	"gbk":     "gbk_chinese_ci",
	"sjis":    "sjis_japanese_ci",
}

// MySQL is the provider for MySQL 8.
type MySQL struct {
	base
	name       string
	synonyms   map[string]string
	collations map[string]string
	// lobDefaults is true when BLOB, TEXT and JSON columns may carry a default.
	lobDefaults bool
}

// NewMySQL returns the MySQL provider.
func NewMySQL() *MySQL {
	return &MySQL{
		name: core.PlatformMySQL,
		synonyms: map[string]string{
			"current_timestamp":   CurrentTimestamp,
			"current_timestamp()": CurrentTimestamp,
			"now()":               CurrentTimestamp,
			"localtimestamp":      CurrentTimestamp,
			"localtimestamp()":    CurrentTimestamp,
			"current_date":        CurrentDate,
			"current_date()":      CurrentDate,
			"curdate()":           CurrentDate,
			"current_time":        CurrentTime,
			"current_time()":      CurrentTime,
			"curtime()":           CurrentTime,
		},
		collations: mysqlDefaultCollations,
	}
}

// NewMariaDB returns the MariaDB provider. It differs from MySQL in how it
// reports defaults, in the synonyms it accepts, and in allowing defaults on
// large-object columns.
func NewMariaDB() *MySQL {
	p := NewMySQL()
	p.name = core.PlatformMariaDB
	p.lobDefaults = true
	p.synonyms["currdate()"] = CurrentDate
	p.synonyms["currtime()"] = CurrentTime

	collations := make(map[string]string, len(mysqlDefaultCollations))
	for k, v := range mysqlDefaultCollations {
		collations[k] = v
	}
	collations["utf8mb4"] = "utf8mb4_general_ci"
	p.collations = collations
	return p
}

func (p *MySQL) Name() string { return p.name }

func (p *MySQL) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (p *MySQL) LOBTier(category core.DataType, length int) (Tier, bool) {
	var suffix string
	switch category {
	case core.DataTypeText:
		suffix = "TEXT"
	case core.DataTypeBlob:
		suffix = "BLOB"
	default:
		return Tier{}, false
	}
	if length <= 0 {
		length = LengthLimitLong
	}
	for _, t := range mysqlTiers {
		if length <= t.max {
			return Tier{Name: t.prefix + suffix, Max: t.max}, true
		}
	}
	last := mysqlTiers[len(mysqlTiers)-1]
	return Tier{Name: last.prefix + suffix, Max: last.max}, true
}

func (p *MySQL) ColumnType(col *core.Column) ColumnType {
	if ct, ok := declared(p.name, col); ok {
		ct.Unsigned = col.Unsigned
		return ct
	}
	switch col.Type.Category {
	case core.DataTypeInteger:
		return ColumnType{Name: "INT", Unsigned: col.Unsigned}
	case core.DataTypeSmallInt:
		return ColumnType{Name: "SMALLINT", Unsigned: col.Unsigned}
	case core.DataTypeBigInt:
		return ColumnType{Name: "BIGINT", Unsigned: col.Unsigned}
	case core.DataTypeBoolean:
		return ColumnType{Name: "TINYINT", Length: 1}
	case core.DataTypeString:
		name := "VARCHAR"
		if col.Fixed {
			name = "CHAR"
		}
		return ColumnType{Name: name, Length: lengthOr(col.Length, col.Type.DefaultLength)}
	case core.DataTypeBinary:
		name := "VARBINARY"
		if col.Fixed {
			name = "BINARY"
		}
		return ColumnType{Name: name, Length: lengthOr(col.Length, col.Type.DefaultLength)}
	case core.DataTypeText, core.DataTypeBlob:
		tier, _ := p.LOBTier(col.Type.Category, col.Length)
		return ColumnType{Name: tier.Name}
	case core.DataTypeDecimal:
		return ColumnType{Name: "DECIMAL", Precision: lengthOr(col.Precision, 10), Scale: col.Scale, Unsigned: col.Unsigned}
	case core.DataTypeFloat:
		return ColumnType{Name: "DOUBLE", Unsigned: col.Unsigned}
	case core.DataTypeDate:
		return ColumnType{Name: "DATE"}
	case core.DataTypeDateTime, core.DataTypeDateTimeTz:
		return ColumnType{Name: "DATETIME"}
	case core.DataTypeTime:
		return ColumnType{Name: "TIME"}
	case core.DataTypeGUID:
		return ColumnType{Name: "CHAR", Length: 36}
	case core.DataTypeJSON:
		return ColumnType{Name: "JSON"}
	}
	return ColumnType{Name: strings.ToUpper(col.Type.Name)}
}

func (p *MySQL) DefaultSynonyms() map[string]string { return p.synonyms }

// UnwrapDefault is the identity on MySQL, which reports string defaults
// without quotes. MariaDB quotes literals and spells a missing default NULL.
func (p *MySQL) UnwrapDefault(raw string) (string, bool) {
	if p.name == core.PlatformMariaDB {
		return unwrapQuoted(raw)
	}
	return raw, true
}

func (p *MySQL) SupportsDefault(col *core.Column) bool {
	if p.lobDefaults {
		return true
	}
	switch col.Type.Category {
	case core.DataTypeText, core.DataTypeBlob, core.DataTypeJSON:
		return false
	}
	return true
}

func (p *MySQL) DefaultCollation(charset string) string {
	return p.collations[strings.ToLower(charset)]
}

func (p *MySQL) CollationCharset(collation string) string {
	cs := collationPrefix(collation)
	if cs == "utf8" {
		return "utf8mb3"
	}
	return cs
}

// TableDefaults returns utf8mb4 with the server's default collation for it.
func (p *MySQL) TableDefaults() (string, string) {
	return "utf8mb4", p.DefaultCollation("utf8mb4")
}

func (p *MySQL) ImplicitTableOption(key, value string) bool {
	switch key {
	case "engine":
		return strings.EqualFold(value, "InnoDB")
	case "comment":
		return value == ""
	case "auto_increment":
		// The counter is server state. Only two declared values are compared.
		_, err := strconv.ParseUint(value, 10, 64)
		return err == nil
	}
	return strings.HasPrefix(key, "create_options.") && value == ""
}

// ReferentialAction treats RESTRICT as NO ACTION, which is how InnoDB
// enforces both.
func (p *MySQL) ReferentialAction(a core.ReferentialAction) core.ReferentialAction {
	a = canonicalAction(a)
	if a == core.ActionRestrict {
		return core.ActionNoAction
	}
	return a
}

func (p *MySQL) Features() Features {
	return Features{
		ColumnCharset:   true,
		ColumnCollation: true,
		ColumnComment:   true,
		IndexLengths:    true,
		TableOptions:    true,
		Unsigned:        true,
	}
}
