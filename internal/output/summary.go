package output

import (
	"fmt"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

type summaryFormatter struct{}

// FormatDiff formats a schema diff as a compact summary.
// Example output:
//
//	Tables:       +3, ~2, -0
//	Columns:      +5, ~2, -0
//	Indexes:      +1, ~0, -2
//	Foreign keys: +0, ~1, -0
func (summaryFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	if d == nil || d.IsEmpty() {
		return "No changes detected.\n", nil
	}

	var sb strings.Builder

	addedCols, droppedCols, modifiedCols := countColumns(d)
	addedIdx, droppedIdx, modifiedIdx := countIndexes(d)
	addedFKs, droppedFKs, modifiedFKs := countForeignKeys(d)

	sb.WriteString("Schema Diff Summary\n")
	sb.WriteString("===================\n\n")

	fmt.Fprintf(&sb, "Tables:       +%d, ~%d, -%d\n", len(d.AddedTables), len(d.ModifiedTables), len(d.DroppedTables))
	fmt.Fprintf(&sb, "Columns:      +%d, ~%d, -%d\n", addedCols, modifiedCols, droppedCols)
	fmt.Fprintf(&sb, "Indexes:      +%d, ~%d, -%d\n", addedIdx, modifiedIdx, droppedIdx)
	fmt.Fprintf(&sb, "Foreign keys: +%d, ~%d, -%d\n", addedFKs, modifiedFKs, droppedFKs)

	if len(d.Warnings) > 0 {
		fmt.Fprintf(&sb, "\nWarnings:     %d\n", len(d.Warnings))
	}

	writeTableDetails(&sb, d)
	return sb.String(), nil
}

func countColumns(d *diff.SchemaDiff) (added, dropped, modified int) {
	for _, t := range d.AddedTables {
		added += len(t.Columns)
	}
	for _, t := range d.DroppedTables {
		dropped += len(t.Columns)
	}
	for _, td := range d.ModifiedTables {
		added += len(td.AddedColumns)
		dropped += len(td.DroppedColumns)
		modified += len(td.ModifiedColumns) + len(td.RenamedColumns)
	}
	return
}

func countIndexes(d *diff.SchemaDiff) (added, dropped, modified int) {
	for _, t := range d.AddedTables {
		added += len(t.Indexes)
	}
	for _, t := range d.DroppedTables {
		dropped += len(t.Indexes)
	}
	for _, td := range d.ModifiedTables {
		added += len(td.AddedIndexes)
		dropped += len(td.DroppedIndexes)
		modified += len(td.ModifiedIndexes) + len(td.RenamedIndexes)
		if td.PrimaryKey != nil {
			modified++
		}
	}
	return
}

func countForeignKeys(d *diff.SchemaDiff) (added, dropped, modified int) {
	for _, t := range d.AddedTables {
		added += len(t.ForeignKeys)
	}
	for _, t := range d.DroppedTables {
		dropped += len(t.ForeignKeys)
	}
	for _, td := range d.ModifiedTables {
		added += len(td.AddedForeignKeys)
		dropped += len(td.DroppedForeignKeys)
		modified += len(td.ModifiedForeignKeys)
	}
	return
}

func writeTableDetails(sb *strings.Builder, d *diff.SchemaDiff) {
	sb.WriteString("\nDetails:\n")
	for _, t := range d.AddedTables {
		fmt.Fprintf(sb, "  + %s (new table)\n", t.Name)
	}
	for _, t := range d.DroppedTables {
		fmt.Fprintf(sb, "  - %s (dropped table)\n", t.Name)
	}
	for _, td := range d.ModifiedTables {
		fmt.Fprintf(sb, "  ~ %s (%s)\n", td.Name, countTableChanges(td))
	}
}

// countTableChanges returns a short description of the changes in a table.
func countTableChanges(td *diff.TableDiff) string {
	var parts []string
	add := func(n int, format string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf(format, n))
		}
	}

	add(len(td.AddedColumns), "+%d cols")
	add(len(td.DroppedColumns), "-%d cols")
	add(len(td.ModifiedColumns)+len(td.RenamedColumns), "~%d cols")
	add(len(td.AddedIndexes), "+%d idx")
	add(len(td.DroppedIndexes), "-%d idx")
	add(len(td.ModifiedIndexes)+len(td.RenamedIndexes), "~%d idx")
	if td.PrimaryKey != nil {
		parts = append(parts, "pk")
	}
	add(len(td.AddedForeignKeys), "+%d fk")
	add(len(td.DroppedForeignKeys), "-%d fk")
	add(len(td.ModifiedForeignKeys), "~%d fk")

	if len(parts) == 0 {
		return "options changed"
	}
	return strings.Join(parts, ", ")
}

// FormatMigration formats a migration as a compact summary.
func (summaryFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m.IsEmpty() {
		return "No migration operations.\n", nil
	}

	var sb strings.Builder

	breaking := m.BreakingNotes()
	unresolved := m.UnresolvedNotes()
	notes := m.Notes()

	sb.WriteString("Migration Summary\n")
	sb.WriteString("=================\n\n")

	fmt.Fprintf(&sb, "SQL Statements:      %d\n", len(m.Statements()))
	fmt.Fprintf(&sb, "Rollback Statements: %d\n", len(m.RollbackStatements()))

	writeList(&sb, "Breaking Changes", breaking)
	writeList(&sb, "Unresolved Issues", unresolved)
	writeList(&sb, "Notes", notes)

	return sb.String(), nil
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s: %d\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(sb, "   - %s\n", item)
	}
}
