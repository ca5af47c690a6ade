package diff

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// String returns a human readable report of all differences.
func (d *SchemaDiff) String() string {
	if d.IsEmpty() {
		return "No differences detected."
	}

	var sb strings.Builder
	sb.WriteString("Schema differences:\n")

	writeWarnings(&sb, "\nWarnings:\n", "  ", d.Warnings)

	if len(d.AddedTables) > 0 {
		sb.WriteString("\nAdded tables:\n")
		for _, at := range d.AddedTables {
			sb.WriteString(fmt.Sprintf("  - %s\n", at.Name))
		}
	}

	if len(d.DroppedTables) > 0 {
		sb.WriteString("\nDropped tables:\n")
		for _, rt := range d.DroppedTables {
			sb.WriteString(fmt.Sprintf("  - %s\n", rt.Name))
		}
	}

	if len(d.ModifiedTables) > 0 {
		sb.WriteString("\nModified tables:\n")
		for _, mt := range d.ModifiedTables {
			mt.write(&sb)
		}
	}

	return sb.String()
}

// SaveToFile writes the report to path.
func (d *SchemaDiff) SaveToFile(path string) error {
	return os.WriteFile(path, []byte(d.String()), 0o644)
}

func writeWarnings(sb *strings.Builder, header, indent string, warnings []string) {
	var kept []string
	for _, w := range warnings {
		if w = strings.TrimSpace(w); w != "" {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return
	}
	sb.WriteString(header)
	for _, w := range kept {
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, w))
	}
}

func writeFieldChanges(sb *strings.Builder, changes []*FieldChange) {
	for _, fc := range changes {
		sb.WriteString(fmt.Sprintf("        - %s: %q -> %q\n", fc.Field, fc.Old, fc.New))
	}
}

func (td *TableDiff) write(sb *strings.Builder) {
	sb.WriteString(fmt.Sprintf("\n  - %s\n", td.Name))

	writeWarnings(sb, "    Warnings:\n", "      ", td.Warnings)

	if len(td.ModifiedOptions) > 0 {
		sb.WriteString("    Options changed:\n")
		for _, mo := range td.ModifiedOptions {
			sb.WriteString(fmt.Sprintf("      - %s: %q -> %q\n", mo.Name, mo.Old, mo.New))
		}
	}

	if len(td.AddedColumns) > 0 {
		sb.WriteString("    Added columns:\n")
		for _, ac := range td.AddedColumns {
			sb.WriteString(fmt.Sprintf("      - %s: %s\n", ac.Name, describeColumnType(ac)))
		}
	}

	if len(td.DroppedColumns) > 0 {
		sb.WriteString("    Dropped columns:\n")
		for _, rc := range td.DroppedColumns {
			sb.WriteString(fmt.Sprintf("      - %s: %s\n", rc.Name, describeColumnType(rc)))
		}
	}

	if len(td.RenamedColumns) > 0 {
		sb.WriteString("    Renamed columns:\n")
		for _, r := range td.RenamedColumns {
			sb.WriteString(fmt.Sprintf("      - %s -> %s (score %d)\n", r.Old.Name, r.New.Name, r.Score))
			writeFieldChanges(sb, r.Changes)
		}
	}

	if len(td.ModifiedColumns) > 0 {
		sb.WriteString("    Modified columns:\n")
		for _, mc := range td.ModifiedColumns {
			sb.WriteString(fmt.Sprintf("      - %s:\n", mc.Name))
			writeFieldChanges(sb, mc.Changes)
		}
	}

	if pk := td.PrimaryKey; pk != nil {
		sb.WriteString("    Primary key changed:\n")
		sb.WriteString(fmt.Sprintf("      - %s -> %s\n", describePrimaryKey(pk.Old), describePrimaryKey(pk.New)))
	}

	if len(td.AddedIndexes) > 0 {
		sb.WriteString("    Added indexes:\n")
		for _, idx := range td.AddedIndexes {
			sb.WriteString(fmt.Sprintf("      - %s %s\n", indexLabel(idx), formatIndexColumns(idx.Columns)))
		}
	}

	if len(td.DroppedIndexes) > 0 {
		sb.WriteString("    Dropped indexes:\n")
		for _, idx := range td.DroppedIndexes {
			sb.WriteString(fmt.Sprintf("      - %s %s\n", indexLabel(idx), formatIndexColumns(idx.Columns)))
		}
	}

	if len(td.RenamedIndexes) > 0 {
		sb.WriteString("    Renamed indexes:\n")
		for _, r := range td.RenamedIndexes {
			sb.WriteString(fmt.Sprintf("      - %s -> %s\n", r.Old.Name, r.New.Name))
		}
	}

	if len(td.ModifiedIndexes) > 0 {
		sb.WriteString("    Modified indexes:\n")
		for _, mi := range td.ModifiedIndexes {
			sb.WriteString(fmt.Sprintf("      - %s:\n", mi.Name))
			writeFieldChanges(sb, mi.Changes)
		}
	}

	if len(td.AddedForeignKeys) > 0 {
		sb.WriteString("    Added foreign keys:\n")
		for _, fk := range td.AddedForeignKeys {
			sb.WriteString(fmt.Sprintf("      - %s\n", describeForeignKey(fk)))
		}
	}

	if len(td.DroppedForeignKeys) > 0 {
		sb.WriteString("    Dropped foreign keys:\n")
		for _, fk := range td.DroppedForeignKeys {
			sb.WriteString(fmt.Sprintf("      - %s\n", describeForeignKey(fk)))
		}
	}

	if len(td.ModifiedForeignKeys) > 0 {
		sb.WriteString("    Modified foreign keys:\n")
		for _, mf := range td.ModifiedForeignKeys {
			if mf.RebuildOnly {
				sb.WriteString(fmt.Sprintf("      - %s: rebuild (%s)\n", mf.Name, mf.RebuildReason))
				continue
			}
			sb.WriteString(fmt.Sprintf("      - %s:\n", mf.Name))
			writeFieldChanges(sb, mf.Changes)
		}
	}
}

func describeColumnType(c *core.Column) string {
	s := c.Type.Name
	switch {
	case c.Precision > 0:
		s += "(" + strconv.Itoa(c.Precision) + "," + strconv.Itoa(c.Scale) + ")"
	case c.Length > 0:
		s += "(" + strconv.Itoa(c.Length) + ")"
	}
	if !c.Nullable {
		s += " NOT NULL"
	}
	return s
}

func describePrimaryKey(idx *core.Index) string {
	if idx == nil {
		return "(none)"
	}
	return formatIndexColumns(idx.Columns)
}

func indexLabel(idx *core.Index) string {
	if idx.Name == "" {
		return "(unnamed)"
	}
	return idx.Name
}

func describeForeignKey(fk *core.ForeignKey) string {
	s := formatNameList(fk.Columns) + " -> " + fk.ReferencedTable + formatNameList(fk.ReferencedColumns)
	if fk.Name != "" {
		s = fk.Name + " " + s
	}
	return s
}
