package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

func TestSummaryFormatDiff(t *testing.T) {
	f, err := NewFormatter("summary")
	require.NoError(t, err)

	out, err := f.FormatDiff(sampleDiff())
	require.NoError(t, err)
	assert.Contains(t, out, "Tables:       +1, ~1, -1\n")
	assert.Contains(t, out, "Columns:      +2, ~0, -0\n")
	assert.Contains(t, out, "Indexes:      +0, ~0, -1\n")
	assert.Contains(t, out, "Foreign keys: +1, ~0, -0\n")
	assert.Contains(t, out, "Warnings:     1\n")
	assert.Contains(t, out, "  + comments (new table)\n")
	assert.Contains(t, out, "  - legacy (dropped table)\n")
	assert.Contains(t, out, "  ~ users (+1 cols, -1 idx, +1 fk)\n")

	out, err = f.FormatDiff(&diff.SchemaDiff{})
	require.NoError(t, err)
	assert.Equal(t, "No changes detected.\n", out)
}

func TestCountTableChanges(t *testing.T) {
	tests := []struct {
		name string
		td   *diff.TableDiff
		want string
	}{
		{"options only", &diff.TableDiff{ModifiedOptions: []*diff.TableOptionChange{{Name: "engine"}}}, "options changed"},
		{"renames count as modified", &diff.TableDiff{
			RenamedColumns: []*diff.ColumnRename{{}},
			RenamedIndexes: []*diff.IndexRename{{}},
		}, "~1 cols, ~1 idx"},
		{"primary key", &diff.TableDiff{PrimaryKey: &diff.PrimaryKeyChange{New: &core.Index{Primary: true}}}, "pk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countTableChanges(tt.td))
		})
	}
}

func TestSummaryFormatMigration(t *testing.T) {
	f, err := NewFormatter("summary")
	require.NoError(t, err)

	out, err := f.FormatMigration(sampleMigration())
	require.NoError(t, err)
	assert.Contains(t, out, "SQL Statements:      2\n")
	assert.Contains(t, out, "Rollback Statements: 2\n")
	assert.Contains(t, out, "Breaking Changes: 1\n")
	assert.Contains(t, out, "Unresolved Issues: 1\n")
	assert.Contains(t, out, "Notes: 1\n")

	out, err = f.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Equal(t, "No migration operations.\n", out)
}
