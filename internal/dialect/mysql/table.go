package mysql

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func (g *Generator) createTable(t *core.Table) string {
	var lines []string
	for _, c := range t.Columns {
		lines = append(lines, "  "+g.columnDefinition(c))
	}
	if pk := t.PrimaryKey(); pk != nil {
		lines = append(lines, "  PRIMARY KEY "+g.formatIndexColumns(pk.Columns))
	}
	for _, idx := range t.Indexes {
		if idx.Primary {
			continue
		}
		lines = append(lines, "  "+g.indexDefinitionInline(idx))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)%s;", g.QuoteIdentifier(t.Name), strings.Join(lines, ",\n"), g.tableOptions(t))
}

func (g *Generator) tableOptions(t *core.Table) string {
	var parts []string
	o := t.Options

	parts = g.addBasicTableOptions(parts, o)
	parts = g.addCreateOptions(parts, o.CreateOptions)
	if cmt := strings.TrimSpace(o.Comment); cmt != "" {
		parts = append(parts, "COMMENT="+g.QuoteString(cmt))
	}

	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func (g *Generator) addBasicTableOptions(parts []string, o core.TableOptions) []string {
	if engine := strings.TrimSpace(o.Engine); engine != "" {
		parts = append(parts, "ENGINE="+engine)
	}
	if charset := strings.TrimSpace(o.Charset); charset != "" {
		parts = append(parts, "DEFAULT CHARSET="+charset)
	}
	if collate := strings.TrimSpace(o.Collation); collate != "" {
		parts = append(parts, "COLLATE="+collate)
	}
	if o.AutoIncrement > 1 {
		parts = append(parts, "AUTO_INCREMENT="+strconv.FormatUint(o.AutoIncrement, 10))
	}
	return parts
}

// addCreateOptions renders free-form options sorted by key. The partitioned
// marker is skipped: partitioning clauses are not part of the snapshot.
func (g *Generator) addCreateOptions(parts []string, opts map[string]string) []string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if clause := g.createOption(k, opts[k]); clause != "" {
			parts = append(parts, clause)
		}
	}
	return parts
}

func (g *Generator) createOption(key, value string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if value == "" || key == "partitioned" {
		return ""
	}
	switch key {
	case "compression", "encryption":
		return strings.ToUpper(key) + "=" + g.QuoteString(value)
	case "row_format":
		return "ROW_FORMAT=" + strings.ToUpper(value)
	}
	return strings.ToUpper(key) + "=" + value
}

func (g *Generator) columnDefinition(c *core.Column) string {
	var parts []string

	parts = append(parts, g.QuoteIdentifier(c.Name), g.p.ColumnType(c).String())
	parts = g.addCharsetCollation(parts, c)
	parts = g.addNullability(parts, c)
	parts = g.addAutoAttributes(parts, c)
	parts = g.addDefaultAndUpdate(parts, c)
	if comment := strings.TrimSpace(c.Comment); comment != "" {
		parts = append(parts, "COMMENT", g.QuoteString(comment))
	}

	return strings.Join(parts, " ")
}

func (g *Generator) addCharsetCollation(parts []string, c *core.Column) []string {
	if !c.Type.Category.IsCharacter() {
		return parts
	}
	if cs := strings.TrimSpace(c.Charset); cs != "" {
		parts = append(parts, "CHARACTER SET", cs)
	}
	if coll := strings.TrimSpace(c.Collation); coll != "" {
		parts = append(parts, "COLLATE", coll)
	}
	return parts
}

func (g *Generator) addNullability(parts []string, c *core.Column) []string {
	if c.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	return parts
}

func (g *Generator) addAutoAttributes(parts []string, c *core.Column) []string {
	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	return parts
}

func (g *Generator) addDefaultAndUpdate(parts []string, c *core.Column) []string {
	if c.Default != nil && g.p.SupportsDefault(c) {
		parts = append(parts, "DEFAULT", g.formatValue(*c.Default, c))
	}
	if c.OnUpdate != nil {
		parts = append(parts, "ON UPDATE", g.formatExpression(*c.OnUpdate))
	}
	return parts
}

func (g *Generator) indexKeyword(idx *core.Index) string {
	switch {
	case idx.Unique:
		return "UNIQUE KEY"
	case idx.HasFlag(core.IndexFlagFulltext):
		return "FULLTEXT KEY"
	case idx.HasFlag(core.IndexFlagSpatial):
		return "SPATIAL KEY"
	default:
		return "KEY"
	}
}

func (g *Generator) indexDefinitionInline(idx *core.Index) string {
	var sb strings.Builder
	sb.WriteString(g.indexKeyword(idx))
	if name := strings.TrimSpace(idx.Name); name != "" {
		sb.WriteString(" " + g.QuoteIdentifier(name))
	}
	sb.WriteString(" " + g.formatIndexColumns(idx.Columns))
	if cmt := strings.TrimSpace(idx.Options["comment"]); cmt != "" {
		sb.WriteString(" COMMENT " + g.QuoteString(cmt))
	}
	return sb.String()
}

func (g *Generator) addIndex(table string, idx *core.Index) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", table, g.indexDefinitionInline(idx))
}

// dropIndex returns "" for unnamed indexes, which cannot be addressed.
func (g *Generator) dropIndex(table string, idx *core.Index) string {
	name := strings.TrimSpace(idx.Name)
	if name == "" {
		return ""
	}
	return fmt.Sprintf("DROP INDEX %s ON %s;", g.QuoteIdentifier(name), table)
}

func (g *Generator) addForeignKey(table string, fk *core.ForeignKey) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ALTER TABLE %s ADD ", table)
	if name := strings.TrimSpace(fk.Name); name != "" {
		fmt.Fprintf(&sb, "CONSTRAINT %s ", g.QuoteIdentifier(name))
	}
	fmt.Fprintf(&sb, "FOREIGN KEY %s REFERENCES %s %s",
		g.formatColumns(fk.Columns), g.QuoteIdentifier(fk.ReferencedTable), g.formatColumns(fk.ReferencedColumns))
	if a := g.referentialAction(fk.OnDelete); a != "" {
		sb.WriteString(" ON DELETE " + a)
	}
	if a := g.referentialAction(fk.OnUpdate); a != "" {
		sb.WriteString(" ON UPDATE " + a)
	}
	sb.WriteString(";")
	return sb.String()
}

// dropForeignKey returns "" for unnamed foreign keys.
func (g *Generator) dropForeignKey(table string, fk *core.ForeignKey) string {
	name := strings.TrimSpace(fk.Name)
	if name == "" {
		return ""
	}
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", table, g.QuoteIdentifier(name))
}

// referentialAction omits the platform default so that generated DDL
// round-trips through the comparator unchanged.
func (g *Generator) referentialAction(a core.ReferentialAction) string {
	if a == "" {
		return ""
	}
	if g.p.ReferentialAction(a) == g.p.ReferentialAction(core.ActionNoAction) {
		return ""
	}
	return strings.ToUpper(string(a))
}
