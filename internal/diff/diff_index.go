package diff

import (
	"slices"
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/normalize"
)

// comparePrimaryKey compares the primary keys by their ordered column lists.
// The name of the primary index never matters.
func (c *Comparator) comparePrimaryKey(current, desired *core.Table, td *TableDiff) {
	oldPK, newPK := current.PrimaryKey(), desired.PrimaryKey()
	if equalStringSliceCI(indexColumnNames(oldPK), indexColumnNames(newPK)) {
		return
	}

	change := &PrimaryKeyChange{Old: oldPK, New: newPK}
	if oldPK != nil {
		for _, name := range oldPK.ColumnNames() {
			if col := current.FindColumn(name); col != nil && col.AutoIncrement {
				change.AutoIncrementColumns = append(change.AutoIncrementColumns, col.Name)
			}
		}
	}
	td.PrimaryKey = change
}

func indexColumnNames(idx *core.Index) []string {
	if idx == nil {
		return nil
	}
	return idx.ColumnNames()
}

type indexEntry struct {
	idx  *core.Index
	norm normalize.Index
	used bool
}

func (c *Comparator) indexEntries(t *core.Table) []*indexEntry {
	var out []*indexEntry
	for _, idx := range t.Indexes {
		if idx.Primary {
			continue
		}
		out = append(out, &indexEntry{idx: idx, norm: c.norm.IndexColumns(idx)})
	}
	return out
}

// compareIndexes matches secondary indexes in two passes. The first pass
// pairs indexes by name. The second pairs the rest by structure when at least
// one side is unnamed. Two differently named twins left over form a rename
// when the match is one-to-one.
func (c *Comparator) compareIndexes(current, desired *core.Table, td *TableDiff) {
	oldEntries := c.indexEntries(current)
	newEntries := c.indexEntries(desired)

	for _, ne := range newEntries {
		if ne.idx.Name == "" {
			continue
		}
		oe := findEntry(oldEntries, func(e *indexEntry) bool { return strings.EqualFold(e.idx.Name, ne.idx.Name) })
		if oe == nil {
			continue
		}
		oe.used, ne.used = true, true
		if !oe.norm.Equal(ne.norm) {
			td.ModifiedIndexes = append(td.ModifiedIndexes, &IndexChange{
				Name:    ne.idx.Name,
				Old:     oe.idx,
				New:     ne.idx,
				Changes: indexFieldChanges(oe.norm, ne.norm),
			})
		}
	}

	// Unnamed desired indexes take an unnamed twin before a named one, and
	// named twins in name order, so the result does not depend on the order
	// the indexes were declared in.
	oldSorted := sortedEntries(oldEntries)
	for _, ne := range sortedEntries(newEntries) {
		if ne.used || ne.idx.Name != "" {
			continue
		}
		if oe := findEntry(oldSorted, func(e *indexEntry) bool { return e.norm.Equal(ne.norm) }); oe != nil {
			c.matchStructural(td, oe, ne)
		}
	}
	for _, ne := range sortedEntries(newEntries) {
		if ne.used {
			continue
		}
		if oe := findEntry(oldSorted, func(e *indexEntry) bool { return e.idx.Name == "" && e.norm.Equal(ne.norm) }); oe != nil {
			c.matchStructural(td, oe, ne)
		}
	}

	if c.opts.DetectIndexRenames {
		for _, ne := range newEntries {
			if ne.used {
				continue
			}
			twins := unusedTwins(oldEntries, ne.norm)
			if len(twins) != 1 || len(unusedTwins(newEntries, ne.norm)) != 1 {
				continue
			}
			oe := twins[0]
			c.log.Debug("index rename detected", "table", td.Name, "old", oe.idx.Name, "new", ne.idx.Name)
			oe.used, ne.used = true, true
			td.RenamedIndexes = append(td.RenamedIndexes, &IndexRename{Old: oe.idx, New: ne.idx})
		}
	}

	for _, ne := range newEntries {
		if !ne.used {
			td.AddedIndexes = append(td.AddedIndexes, ne.idx)
		}
	}
	for _, oe := range oldEntries {
		if !oe.used {
			td.DroppedIndexes = append(td.DroppedIndexes, oe.idx)
		}
	}
}

func (c *Comparator) matchStructural(td *TableDiff, oe, ne *indexEntry) {
	c.log.Debug("index matched by structure", "table", td.Name, "old", oe.idx.Name, "new", ne.idx.Name)
	oe.used, ne.used = true, true
}

// sortedEntries orders entries by lower-cased name, unnamed first. The sort is
// stable so equal names keep their declaration order.
func sortedEntries(entries []*indexEntry) []*indexEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b *indexEntry) int {
		return strings.Compare(strings.ToLower(a.idx.Name), strings.ToLower(b.idx.Name))
	})
	return out
}

func findEntry(entries []*indexEntry, match func(*indexEntry) bool) *indexEntry {
	for _, e := range entries {
		if !e.used && match(e) {
			return e
		}
	}
	return nil
}

func unusedTwins(entries []*indexEntry, n normalize.Index) []*indexEntry {
	var out []*indexEntry
	for _, e := range entries {
		if !e.used && e.norm.Equal(n) {
			out = append(out, e)
		}
	}
	return out
}

func indexFieldChanges(oldI, newI normalize.Index) []*FieldChange {
	c := &fieldChangeCollector{}

	c.Add("columns", formatNormalizedColumns(oldI.Columns), formatNormalizedColumns(newI.Columns))
	c.Add("unique", strconv.FormatBool(oldI.Unique), strconv.FormatBool(newI.Unique))
	c.Add("flags", strings.Join(oldI.Flags, ","), strings.Join(newI.Flags, ","))
	c.Add("options", formatOptions(oldI.Options), formatOptions(newI.Options))

	return c.Changes
}

func formatNormalizedColumns(cols []normalize.IndexColumn) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		p := col.Name
		if col.Length > 0 {
			p += "(" + strconv.Itoa(col.Length) + ")"
		}
		if col.Desc {
			p += " DESC"
		}
		parts[i] = p
	}
	return formatNameList(parts)
}

func formatOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + opts[k]
	}
	return strings.Join(parts, ", ")
}
