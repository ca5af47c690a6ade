// Package mysql generates MySQL and MariaDB DDL from schema diffs.
package mysql

import (
	"fmt"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/dialect"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

func init() {
	dialect.Register(core.PlatformMySQL, func() dialect.Generator {
		return NewGenerator(platform.NewMySQL())
	})
	dialect.Register(core.PlatformMariaDB, func() dialect.Generator {
		return NewGenerator(platform.NewMariaDB())
	})
}

// Generator is a stateless MySQL DDL generator. Column types are rendered by
// its platform provider.
type Generator struct {
	p platform.Provider
}

// NewGenerator returns a generator rendering types through p.
func NewGenerator(p platform.Provider) *Generator {
	return &Generator{p: p}
}

// Migration returns the plan for d. New tables are created first and their
// foreign keys are added once every table exists. Dropped tables go last.
// Every SQL operation carries the risk found by parsing it back.
func (g *Generator) Migration(d *diff.SchemaDiff) *migration.Migration {
	m := &migration.Migration{}
	if d == nil {
		return m
	}
	for _, w := range d.Warnings {
		m.AddNote(w)
	}

	var pendingFKs [][2]string
	for _, t := range d.AddedTables {
		m.AddStatementWithRollback(g.createTable(t), g.dropTable(t.Name))
		table := g.QuoteIdentifier(t.Name)
		for _, fk := range t.ForeignKeys {
			pendingFKs = append(pendingFKs, [2]string{g.addForeignKey(table, fk), g.dropForeignKey(table, fk)})
		}
	}

	a := newAnalyzer()
	altered := false
	for _, td := range d.ModifiedTables {
		am := g.AlterTable(td)
		altered = a.annotate(am) || altered
		m.Append(am)
	}

	for _, fk := range pendingFKs {
		m.AddStatementWithRollback(fk[0], fk[1])
	}

	for _, t := range d.DroppedTables {
		table := g.QuoteIdentifier(t.Name)
		for _, fk := range t.ForeignKeys {
			if fk.Name != "" {
				m.AddStatementWithRollback(g.dropForeignKey(table, fk), g.addForeignKey(table, fk))
			}
		}
	}
	for _, t := range d.DroppedTables {
		m.AddBreaking(fmt.Sprintf("dropping table %s deletes all of its rows", g.QuoteIdentifier(t.Name)))
		m.AddStatementWithRollback(g.dropTable(t.Name), g.createTable(t))
	}

	if altered {
		m.AddNote("ALTER TABLE may rebuild the table and lock writes; check ALGORITHM=INPLACE support or use an online schema change tool for large tables")
	}
	a.annotate(m)
	m.Dedupe()
	return m
}

// CreateTable returns the CREATE TABLE statement for t followed by one
// ALTER TABLE per foreign key.
func (g *Generator) CreateTable(t *core.Table) []string {
	out := []string{g.createTable(t)}
	table := g.QuoteIdentifier(t.Name)
	for _, fk := range t.ForeignKeys {
		out = append(out, g.addForeignKey(table, fk))
	}
	return out
}

func (g *Generator) DropTable(name string) []string {
	return []string{g.dropTable(name)}
}

func (g *Generator) dropTable(name string) string {
	return fmt.Sprintf("DROP TABLE %s;", g.QuoteIdentifier(name))
}

// QuoteIdentifier quotes name with backticks.
func (g *Generator) QuoteIdentifier(name string) string {
	return g.p.QuoteIdentifier(name)
}

// QuoteString returns value as a single-quoted MySQL string literal.
func (g *Generator) QuoteString(value string) string {
	var sb strings.Builder
	sb.Grow(len(value) + 2)
	sb.WriteByte('\'')
	for _, r := range value {
		switch r {
		case '\'':
			sb.WriteString("''")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		case 0:
			sb.WriteString("\\0")
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
