package mysql

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/normalize"
)

// AlterTable returns the statements turning td.Current into td.Desired in
// this order: drop foreign keys, drop indexes, columns, primary key, add
// indexes, add foreign keys, table options. Foreign keys and indexes are
// dropped first so that the column changes after them are not rejected.
func (g *Generator) AlterTable(td *diff.TableDiff) *migration.Migration {
	m := &migration.Migration{}
	if td == nil {
		return m
	}
	table := g.QuoteIdentifier(td.Name)
	for _, w := range td.Warnings {
		m.AddNote(fmt.Sprintf("%s: %s", td.Name, w))
	}

	g.dropForeignKeys(m, table, td)
	g.dropIndexes(m, table, td)
	restore := g.alterColumns(m, table, td)
	g.alterPrimaryKey(m, table, td, restore)
	g.addIndexes(m, table, td)
	g.addForeignKeys(m, table, td)
	g.alterOptions(m, table, td)
	return m
}

func (g *Generator) dropForeignKeys(m *migration.Migration, table string, td *diff.TableDiff) {
	drop := func(fk *core.ForeignKey) {
		stmt := g.dropForeignKey(table, fk)
		if stmt == "" {
			m.AddUnresolved(fmt.Sprintf("foreign key on %s%s has no name and must be dropped by hand", table, g.formatColumns(fk.Columns)))
			return
		}
		m.AddStatementWithRollback(stmt, g.addForeignKey(table, fk))
	}

	for _, fk := range td.DroppedForeignKeys {
		drop(fk)
	}
	for _, fc := range td.ModifiedForeignKeys {
		if fc.RebuildOnly && fc.RebuildReason != "" {
			m.AddNote(fmt.Sprintf("foreign key %s on %s is rebuilt: %s", g.QuoteIdentifier(fc.Name), table, fc.RebuildReason))
		}
		drop(fc.Old)
	}
}

func (g *Generator) dropIndexes(m *migration.Migration, table string, td *diff.TableDiff) {
	drop := func(idx *core.Index) {
		stmt := g.dropIndex(table, idx)
		if stmt == "" {
			m.AddUnresolved(fmt.Sprintf("index on %s%s has no name and must be dropped by hand", table, g.formatIndexColumns(idx.Columns)))
			return
		}
		m.AddStatementWithRollback(stmt, g.addIndex(table, idx))
	}

	for _, idx := range td.DroppedIndexes {
		drop(idx)
	}
	for _, ic := range td.ModifiedIndexes {
		drop(ic.Old)
	}
}

// alterColumns adds, renames, modifies and drops columns. Columns that must
// lose AUTO_INCREMENT before the primary key is dropped are modified without
// it; the returned definitions restore it once the new key exists.
func (g *Generator) alterColumns(m *migration.Migration, table string, td *diff.TableDiff) []*core.Column {
	stripped := make(map[string]bool)
	if td.PrimaryKey != nil && td.PrimaryKey.Old != nil {
		for _, name := range td.PrimaryKey.AutoIncrementColumns {
			stripped[strings.ToLower(name)] = true
		}
	}
	var restore []*core.Column

	for _, c := range td.AddedColumns {
		m.AddStatementWithRollback(
			fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", table, g.columnDefinition(c)),
			fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, g.QuoteIdentifier(c.Name)),
		)
	}

	for _, r := range td.RenamedColumns {
		m.AddNote(fmt.Sprintf("column %s.%s is treated as renamed to %s", td.Name, r.Old.Name, r.New.Name))
		m.AddStatementWithRollback(
			fmt.Sprintf("ALTER TABLE %s CHANGE COLUMN %s %s;", table, g.QuoteIdentifier(r.Old.Name), g.columnDefinition(r.New)),
			fmt.Sprintf("ALTER TABLE %s CHANGE COLUMN %s %s;", table, g.QuoteIdentifier(r.New.Name), g.columnDefinition(r.Old)),
		)
	}

	for _, cc := range td.ModifiedColumns {
		next := cc.New
		if stripped[strings.ToLower(cc.Name)] {
			delete(stripped, strings.ToLower(cc.Name))
			if next.AutoIncrement {
				next = withoutAutoIncrement(next)
				restore = append(restore, cc.New)
			}
		}
		if narrows(cc) {
			m.AddBreaking(fmt.Sprintf("modifying column %s.%s may truncate or reject existing values", td.Name, cc.Name))
		}
		m.AddStatementWithRollback(
			fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", table, g.columnDefinition(next)),
			fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", table, g.columnDefinition(cc.Old)),
		)
	}

	// Unchanged autoincrement columns of the old key.
	if td.Current != nil {
		for _, col := range td.Current.Columns {
			if !stripped[strings.ToLower(col.Name)] || !col.AutoIncrement {
				continue
			}
			m.AddStatementWithRollback(
				fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", table, g.columnDefinition(withoutAutoIncrement(col))),
				fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", table, g.columnDefinition(col)),
			)
			if td.Desired != nil {
				if dc := td.Desired.FindColumn(col.Name); dc != nil && dc.AutoIncrement {
					restore = append(restore, dc)
				}
			}
		}
	}

	for _, c := range td.DroppedColumns {
		m.AddBreaking(fmt.Sprintf("dropping column %s.%s deletes its data", td.Name, c.Name))
		m.AddStatementWithRollback(
			fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, g.QuoteIdentifier(c.Name)),
			fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", table, g.columnDefinition(c)),
		)
	}
	return restore
}

func (g *Generator) alterPrimaryKey(m *migration.Migration, table string, td *diff.TableDiff, restore []*core.Column) {
	pk := td.PrimaryKey
	if pk == nil {
		return
	}
	if pk.Old != nil {
		if pk.New == nil {
			m.AddBreaking(fmt.Sprintf("dropping the primary key of %s", td.Name))
		}
		m.AddStatementWithRollback(
			fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY;", table),
			fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY %s;", table, g.formatIndexColumns(pk.Old.Columns)),
		)
	}
	if pk.New != nil {
		m.AddStatementWithRollback(
			fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY %s;", table, g.formatIndexColumns(pk.New.Columns)),
			fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY;", table),
		)
	}
	for _, c := range restore {
		if pk.New == nil || !slices.ContainsFunc(pk.New.Columns, func(ic core.IndexColumn) bool {
			return strings.EqualFold(ic.Name, c.Name)
		}) {
			m.AddUnresolved(fmt.Sprintf("column %s.%s keeps AUTO_INCREMENT but is not part of the new primary key", td.Name, c.Name))
			continue
		}
		m.AddStatement(fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", table, g.columnDefinition(c)))
	}
}

func (g *Generator) addIndexes(m *migration.Migration, table string, td *diff.TableDiff) {
	for _, r := range td.RenamedIndexes {
		m.AddStatementWithRollback(
			fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s;", table, g.QuoteIdentifier(r.Old.Name), g.QuoteIdentifier(r.New.Name)),
			fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s;", table, g.QuoteIdentifier(r.New.Name), g.QuoteIdentifier(r.Old.Name)),
		)
	}
	for _, ic := range td.ModifiedIndexes {
		m.AddStatementWithRollback(g.addIndex(table, ic.New), g.dropIndex(table, ic.New))
	}
	for _, idx := range td.AddedIndexes {
		m.AddStatementWithRollback(g.addIndex(table, idx), g.dropIndex(table, idx))
	}
}

func (g *Generator) addForeignKeys(m *migration.Migration, table string, td *diff.TableDiff) {
	for _, fc := range td.ModifiedForeignKeys {
		m.AddStatementWithRollback(g.addForeignKey(table, fc.New), g.dropForeignKey(table, fc.New))
	}
	for _, fk := range td.AddedForeignKeys {
		m.AddStatementWithRollback(g.addForeignKey(table, fk), g.dropForeignKey(table, fk))
	}
}

// alterOptions folds every option change into one ALTER TABLE.
func (g *Generator) alterOptions(m *migration.Migration, table string, td *diff.TableDiff) {
	var up, down []string
	for _, oc := range td.ModifiedOptions {
		forward, ok := g.optionClause(oc.Name, oc.New)
		if !ok {
			m.AddUnresolved(fmt.Sprintf("table option %s of %s cannot be changed from %q to %q", oc.Name, td.Name, oc.Old, oc.New))
			continue
		}
		up = append(up, forward)
		if back, ok := g.optionClause(oc.Name, oc.Old); ok {
			down = append(down, back)
		}
	}
	if len(up) == 0 {
		return
	}
	rollback := ""
	if len(down) > 0 {
		rollback = fmt.Sprintf("ALTER TABLE %s %s;", table, strings.Join(down, ", "))
	}
	m.AddStatementWithRollback(fmt.Sprintf("ALTER TABLE %s %s;", table, strings.Join(up, ", ")), rollback)
}

// optionClause renders one table option assignment. ok is false when the
// option cannot be set to value with ALTER TABLE.
func (g *Generator) optionClause(name, value string) (string, bool) {
	switch name {
	case normalize.OptionComment:
		return "COMMENT=" + g.QuoteString(value), true
	case normalize.OptionAutoIncrement:
		if value == "" {
			value = "1"
		}
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return "", false
		}
		return "AUTO_INCREMENT=" + value, true
	}
	if value == "" {
		return "", false
	}
	switch name {
	case normalize.OptionEngine:
		return "ENGINE=" + value, true
	case normalize.OptionCharset:
		return "DEFAULT CHARACTER SET " + value, true
	case normalize.OptionCollation:
		return "COLLATE " + value, true
	}
	if key, ok := strings.CutPrefix(name, normalize.CreateOptionPrefix); ok {
		if key == "partitioned" {
			return "", false
		}
		return g.createOption(key, value), true
	}
	return "", false
}

func withoutAutoIncrement(c *core.Column) *core.Column {
	out := c.Clone()
	out.AutoIncrement = false
	return out
}

// narrows reports whether applying cc can reject or truncate existing rows.
func narrows(cc *diff.ColumnChange) bool {
	o, n := cc.Old, cc.New
	if o.Type.Category != n.Type.Category {
		return true
	}
	if n.Length > 0 && o.Length > n.Length {
		return true
	}
	if n.Precision > 0 && (o.Precision > n.Precision || o.Scale > n.Scale) {
		return true
	}
	return o.Nullable && !n.Nullable
}
