package diff

import (
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

type foreignKeyEntry struct {
	fk   *core.ForeignKey
	used bool
}

// compareForeignKeys matches foreign keys by name when both sides are named,
// then by the (columns, referenced table, referenced columns) tuple.
func (c *Comparator) compareForeignKeys(current, desired *core.Table, td *TableDiff) {
	oldEntries := foreignKeyEntries(current)
	newEntries := foreignKeyEntries(desired)

	match := func(oe, ne *foreignKeyEntry) {
		oe.used, ne.used = true, true
		changes := c.foreignKeyFieldChanges(oe.fk, ne.fk)
		if len(changes) == 0 {
			return
		}
		name := ne.fk.Name
		if name == "" {
			name = oe.fk.Name
		}
		td.ModifiedForeignKeys = append(td.ModifiedForeignKeys, &ForeignKeyChange{
			Name:    name,
			Old:     oe.fk,
			New:     ne.fk,
			Changes: changes,
		})
	}

	for _, ne := range newEntries {
		if ne.fk.Name == "" {
			continue
		}
		for _, oe := range oldEntries {
			if !oe.used && strings.EqualFold(oe.fk.Name, ne.fk.Name) {
				match(oe, ne)
				break
			}
		}
	}

	for _, ne := range newEntries {
		if ne.used {
			continue
		}
		key := foreignKeyTupleKey(ne.fk)
		for _, oe := range oldEntries {
			if !oe.used && foreignKeyTupleKey(oe.fk) == key {
				c.log.Debug("foreign key matched by definition", "table", td.Name, "old", oe.fk.Name, "new", ne.fk.Name)
				match(oe, ne)
				break
			}
		}
	}

	for _, ne := range newEntries {
		if !ne.used {
			td.AddedForeignKeys = append(td.AddedForeignKeys, ne.fk)
		}
	}
	for _, oe := range oldEntries {
		if !oe.used {
			td.DroppedForeignKeys = append(td.DroppedForeignKeys, oe.fk)
		}
	}
}

func foreignKeyEntries(t *core.Table) []*foreignKeyEntry {
	out := make([]*foreignKeyEntry, len(t.ForeignKeys))
	for i, fk := range t.ForeignKeys {
		out[i] = &foreignKeyEntry{fk: fk}
	}
	return out
}

func (c *Comparator) foreignKeyFieldChanges(oldFK, newFK *core.ForeignKey) []*FieldChange {
	fc := &fieldChangeCollector{}

	if !equalStringSliceCI(oldFK.Columns, newFK.Columns) {
		fc.Add("columns", formatNameList(oldFK.Columns), formatNameList(newFK.Columns))
	}
	if !strings.EqualFold(oldFK.ReferencedTable, newFK.ReferencedTable) {
		fc.Add("referenced_table", oldFK.ReferencedTable, newFK.ReferencedTable)
	}
	if !equalStringSliceCI(oldFK.ReferencedColumns, newFK.ReferencedColumns) {
		fc.Add("referenced_columns", formatNameList(oldFK.ReferencedColumns), formatNameList(newFK.ReferencedColumns))
	}
	fc.Add("on_delete", string(c.norm.ReferentialAction(oldFK.OnDelete)), string(c.norm.ReferentialAction(newFK.OnDelete)))
	fc.Add("on_update", string(c.norm.ReferentialAction(oldFK.OnUpdate)), string(c.norm.ReferentialAction(newFK.OnUpdate)))

	return fc.Changes
}

// markForeignKeysForRebuild flags unchanged foreign keys whose local columns
// are modified. The key has to be dropped while the column is altered.
func (c *Comparator) markForeignKeysForRebuild(current, desired *core.Table, td *TableDiff) {
	if len(td.ModifiedColumns) == 0 {
		return
	}
	affected := make(map[string]struct{}, len(td.ModifiedColumns))
	for _, mc := range td.ModifiedColumns {
		affected[strings.ToLower(mc.Name)] = struct{}{}
	}
	changed := make(map[*core.ForeignKey]struct{}, len(td.ModifiedForeignKeys))
	for _, fkc := range td.ModifiedForeignKeys {
		changed[fkc.New] = struct{}{}
	}
	unmatched := make(map[*core.ForeignKey]struct{}, len(td.AddedForeignKeys))
	for _, fk := range td.AddedForeignKeys {
		unmatched[fk] = struct{}{}
	}

	for _, newFK := range desired.ForeignKeys {
		if _, ok := changed[newFK]; ok {
			continue
		}
		if _, ok := unmatched[newFK]; ok {
			continue
		}
		if !usesAnyColumn(newFK, affected) {
			continue
		}
		oldFK := matchingForeignKey(current, newFK)
		if oldFK == nil {
			continue
		}
		td.ModifiedForeignKeys = append(td.ModifiedForeignKeys, &ForeignKeyChange{
			Name:          foreignKeySortKey(newFK),
			Old:           oldFK,
			New:           newFK,
			RebuildOnly:   true,
			RebuildReason: "dependent column modified",
		})
	}
}

func usesAnyColumn(fk *core.ForeignKey, cols map[string]struct{}) bool {
	for _, col := range fk.Columns {
		if _, ok := cols[strings.ToLower(col)]; ok {
			return true
		}
	}
	return false
}

func matchingForeignKey(t *core.Table, fk *core.ForeignKey) *core.ForeignKey {
	if fk.Name != "" {
		if found := t.FindForeignKey(fk.Name); found != nil {
			return found
		}
	}
	key := foreignKeyTupleKey(fk)
	for _, other := range t.ForeignKeys {
		if foreignKeyTupleKey(other) == key {
			return other
		}
	}
	return nil
}

func foreignKeyTupleKey(fk *core.ForeignKey) string {
	return strings.ToLower(strings.Join(fk.Columns, ",") + "->" + fk.ReferencedTable + "(" + strings.Join(fk.ReferencedColumns, ",") + ")")
}
