package diff

import (
	"fmt"
	"strconv"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/normalize"
)

// CompareTables returns the changes that turn current into desired. Both
// tables are validated first; an invalid table yields an error wrapping
// core.ErrInvalidSchemaState. Neither table is modified.
func (c *Comparator) CompareTables(current, desired *core.Table) (*TableDiff, error) {
	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("current table: %w", err)
	}
	if err := desired.Validate(); err != nil {
		return nil, fmt.Errorf("desired table: %w", err)
	}

	td := &TableDiff{Name: desired.Name, Current: current, Desired: desired}

	c.compareColumns(current, desired, td)
	c.comparePrimaryKey(current, desired, td)
	c.compareIndexes(current, desired, td)
	c.compareForeignKeys(current, desired, td)
	c.markForeignKeysForRebuild(current, desired, td)
	c.compareOptions(current, desired, td)

	td.sort()
	return td, nil
}

func (c *Comparator) compareColumns(current, desired *core.Table, td *TableDiff) {
	for _, dc := range desired.Columns {
		cc := current.FindColumn(dc.Name)
		if cc == nil {
			td.AddedColumns = append(td.AddedColumns, dc)
			continue
		}
		changes := columnFieldChanges(c.norm.Column(current, cc), c.norm.Column(desired, dc))
		if len(changes) > 0 {
			td.ModifiedColumns = append(td.ModifiedColumns, &ColumnChange{
				Name:    dc.Name,
				Old:     cc,
				New:     dc,
				Changes: changes,
			})
		}
	}

	for _, cc := range current.Columns {
		if desired.FindColumn(cc.Name) == nil {
			td.DroppedColumns = append(td.DroppedColumns, cc)
		}
	}

	if c.opts.DetectColumnRenames {
		c.detectColumnRenames(current, desired, td)
	}
}

func columnFieldChanges(oldC, newC normalize.Column) []*FieldChange {
	c := &fieldChangeCollector{}

	c.Add("type", oldC.Type.Name, newC.Type.Name)
	c.Add("length", strconv.Itoa(oldC.Type.Length), strconv.Itoa(newC.Type.Length))
	c.Add("precision", strconv.Itoa(oldC.Type.Precision), strconv.Itoa(newC.Type.Precision))
	c.Add("scale", strconv.Itoa(oldC.Type.Scale), strconv.Itoa(newC.Type.Scale))
	c.Add("unsigned", strconv.FormatBool(oldC.Type.Unsigned), strconv.FormatBool(newC.Type.Unsigned))
	c.Add("nullable", strconv.FormatBool(oldC.Nullable), strconv.FormatBool(newC.Nullable))
	c.AddPtr("default", oldC.Default, newC.Default)
	c.Add("auto_increment", strconv.FormatBool(oldC.AutoIncrement), strconv.FormatBool(newC.AutoIncrement))
	c.Add("charset", oldC.Charset, newC.Charset)
	c.Add("collation", oldC.Collation, newC.Collation)
	c.Add("comment", oldC.Comment, newC.Comment)
	c.AddPtr("on_update", oldC.OnUpdate, newC.OnUpdate)

	return c.Changes
}

// compareOptions diffs the normalized option maps. An option present on one
// side only is ignored when its value is what the platform reports anyway.
func (c *Comparator) compareOptions(current, desired *core.Table, td *TableDiff) {
	oldOpt := c.norm.TableOptions(current)
	newOpt := c.norm.TableOptions(desired)

	for _, k := range unionKeys(oldOpt, newOpt) {
		ov, inOld := oldOpt[k]
		nv, inNew := newOpt[k]
		switch {
		case inOld && inNew && ov == nv:
			continue
		case inOld && !inNew && c.norm.ImplicitOption(k, ov):
			continue
		case inNew && !inOld && c.norm.ImplicitOption(k, nv):
			continue
		}
		td.ModifiedOptions = append(td.ModifiedOptions, &TableOptionChange{Name: k, Old: ov, New: nv})
	}
}

func (td *TableDiff) sort() {
	sortNamed(td.AddedColumns)
	sortNamed(td.DroppedColumns)
	sortNamed(td.ModifiedColumns)
	sortByFunc(td.RenamedColumns, func(r *ColumnRename) string { return r.New.Name })
	sortNamed(td.AddedIndexes)
	sortNamed(td.DroppedIndexes)
	sortNamed(td.ModifiedIndexes)
	sortByFunc(td.RenamedIndexes, func(r *IndexRename) string { return r.New.Name })
	sortByFunc(td.AddedForeignKeys, foreignKeySortKey)
	sortByFunc(td.DroppedForeignKeys, foreignKeySortKey)
	sortNamed(td.ModifiedForeignKeys)
	sortNamed(td.ModifiedOptions)
}

// IsEmpty reports whether the two tables are equivalent.
func (td *TableDiff) IsEmpty() bool {
	return len(td.AddedColumns) == 0 &&
		len(td.DroppedColumns) == 0 &&
		len(td.ModifiedColumns) == 0 &&
		len(td.RenamedColumns) == 0 &&
		len(td.AddedIndexes) == 0 &&
		len(td.DroppedIndexes) == 0 &&
		len(td.ModifiedIndexes) == 0 &&
		len(td.RenamedIndexes) == 0 &&
		td.PrimaryKey == nil &&
		len(td.AddedForeignKeys) == 0 &&
		len(td.DroppedForeignKeys) == 0 &&
		len(td.ModifiedForeignKeys) == 0 &&
		len(td.ModifiedOptions) == 0
}
