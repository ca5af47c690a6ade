// Package mysql builds snapshots from MySQL CREATE TABLE statements, as found
// in mysqldump output or hand-written migration files.
package mysql

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// Parser converts MySQL DDL into snapshots. It is not safe for concurrent use.
type Parser struct {
	p        *parser.Parser
	reg      *core.TypeRegistry
	platform string
}

// NewParser returns a parser resolving column types through reg.
func NewParser(reg *core.TypeRegistry) *Parser {
	return &Parser{p: parser.New(), reg: reg, platform: core.PlatformMySQL}
}

// WithPlatform sets the platform recorded on parsed databases, for dumps of
// MariaDB servers.
func (p *Parser) WithPlatform(name string) *Parser {
	p.platform = name
	return p
}

// ParseFile parses the SQL file at path. The database is named after the
// file.
func (p *Parser) ParseFile(path string) (*core.Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mysql: read file %q: %w", path, err)
	}
	db, err := p.Parse(string(data))
	if err != nil {
		return nil, err
	}
	if db.Name == "" {
		db.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return db, nil
}

// Parse converts every CREATE TABLE statement of sql. Other statements are
// ignored, except USE which names the database.
func (p *Parser) Parse(sql string) (*core.Database, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("mysql: parse: %w", err)
	}

	db := &core.Database{Platform: p.platform, Tables: []*core.Table{}}
	for _, stmtNode := range stmtNodes {
		switch stmt := stmtNode.(type) {
		case *ast.UseStmt:
			db.Name = stmt.DBName
		case *ast.CreateTableStmt:
			table, err := p.convertCreateTable(stmt)
			if err != nil {
				return nil, fmt.Errorf("mysql: table %q: %w", stmt.Table.Name.O, err)
			}
			db.Tables = append(db.Tables, table)
		}
	}
	return db, nil
}

func (p *Parser) convertCreateTable(stmt *ast.CreateTableStmt) (*core.Table, error) {
	table := &core.Table{Name: stmt.Table.Name.O}

	p.parseTableOptions(stmt.Options, table)
	if stmt.Partition != nil {
		setCreateOption(table, "partitioned", "true")
	}
	if err := p.parseColumns(stmt.Cols, table); err != nil {
		return nil, err
	}
	if err := p.parseConstraints(stmt.Constraints, table); err != nil {
		return nil, err
	}
	return table, nil
}

// exprToString restores expr as SQL. String literals are returned unquoted
// and a NULL literal is returned as nil.
func (p *Parser) exprToString(expr ast.ExprNode) *string {
	if expr == nil {
		return nil
	}

	var sb strings.Builder
	restoreCtx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(restoreCtx); err != nil {
		return nil
	}
	s := strings.TrimSpace(sb.String())
	if strings.EqualFold(s, "NULL") {
		return nil
	}

	if unquoted, ok := tryUnquoteSQLStringLiteral(s); ok {
		return &unquoted
	}
	return &s
}

func tryUnquoteSQLStringLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", false
	}

	if s[0] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
	}

	q := strings.IndexByte(s, '\'')
	if q <= 0 {
		return "", false
	}
	if !isSQLStringIntroducer(strings.TrimSpace(s[:q])) {
		return "", false
	}
	return strings.ReplaceAll(s[q+1:len(s)-1], "''", "'"), true
}

func isSQLStringIntroducer(prefix string) bool {
	if strings.EqualFold(prefix, "N") {
		return true
	}
	if !strings.HasPrefix(prefix, "_") || len(prefix) == 1 {
		return false
	}
	for _, r := range prefix[1:] {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
