package mysql

import (
	"strconv"

	"github.com/pingcap/tidb/pkg/parser/ast"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func (p *Parser) parseTableOptions(opts []*ast.TableOption, table *core.Table) {
	for _, opt := range opts {
		switch opt.Tp {
		case ast.TableOptionComment:
			table.Options.Comment = opt.StrValue
		case ast.TableOptionCharset:
			table.Options.Charset = opt.StrValue
		case ast.TableOptionCollate:
			table.Options.Collation = opt.StrValue
		case ast.TableOptionEngine:
			table.Options.Engine = opt.StrValue
		case ast.TableOptionAutoIncrement:
			table.Options.AutoIncrement = opt.UintValue
		case ast.TableOptionRowFormat:
			setCreateOption(table, "row_format", rowFormatToString(opt.UintValue))
		case ast.TableOptionAvgRowLength:
			setCreateOption(table, "avg_row_length", strconv.FormatUint(opt.UintValue, 10))
		case ast.TableOptionKeyBlockSize:
			setCreateOption(table, "key_block_size", strconv.FormatUint(opt.UintValue, 10))
		case ast.TableOptionMaxRows:
			setCreateOption(table, "max_rows", strconv.FormatUint(opt.UintValue, 10))
		case ast.TableOptionMinRows:
			setCreateOption(table, "min_rows", strconv.FormatUint(opt.UintValue, 10))
		case ast.TableOptionCheckSum:
			setCreateOption(table, "checksum", strconv.FormatUint(opt.UintValue, 10))
		case ast.TableOptionDelayKeyWrite:
			setCreateOption(table, "delay_key_write", strconv.FormatUint(opt.UintValue, 10))
		case ast.TableOptionCompression:
			setCreateOption(table, "compression", opt.StrValue)
		case ast.TableOptionEncryption:
			setCreateOption(table, "encryption", opt.StrValue)
		case ast.TableOptionStatsPersistent:
			// The parser keeps no value for STATS_PERSISTENT; only DEFAULT is
			// distinguishable.
			if opt.Default {
				setCreateOption(table, "stats_persistent", "default")
			}
		case ast.TableOptionNone:
		}
	}
}

// setCreateOption stores a free-form create option. Empty values are
// dropped, as the server never reports them.
func setCreateOption(table *core.Table, key, value string) {
	if value == "" {
		return
	}
	if table.Options.CreateOptions == nil {
		table.Options.CreateOptions = make(map[string]string)
	}
	table.Options.CreateOptions[key] = value
}

func rowFormatToString(v uint64) string {
	switch v {
	case ast.RowFormatFixed:
		return "FIXED"
	case ast.RowFormatDynamic:
		return "DYNAMIC"
	case ast.RowFormatCompressed:
		return "COMPRESSED"
	case ast.RowFormatRedundant:
		return "REDUNDANT"
	case ast.RowFormatCompact:
		return "COMPACT"
	default:
		return ""
	}
}
