package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

func sampleDiff() *diff.SchemaDiff {
	email := &core.Column{Name: "email", Type: core.TypeDescriptor{Name: "string", Category: core.DataTypeString}, Length: 255}
	return &diff.SchemaDiff{
		Warnings:      []string{`case-insensitive name collision: "Users" vs "users"`},
		AddedTables:   []*core.Table{{Name: "comments", Columns: []*core.Column{email}}},
		DroppedTables: []*core.Table{{Name: "legacy"}},
		ModifiedTables: []*diff.TableDiff{{
			Name:         "users",
			AddedColumns: []*core.Column{email},
			DroppedIndexes: []*core.Index{
				{Name: "idx_old", Columns: []core.IndexColumn{{Name: "name"}}},
			},
			AddedForeignKeys: []*core.ForeignKey{
				{Name: "fk_team", Columns: []string{"team_id"}, ReferencedTable: "teams", ReferencedColumns: []string{"id"}},
			},
		}},
	}
}

func sampleMigration() *migration.Migration {
	m := &migration.Migration{}
	m.AddBreaking("dropping table `legacy` deletes all of its rows")
	m.AddUnresolved("index on `users`(`email`) has no name and must be dropped by hand")
	m.AddNote("ALTER TABLE may rebuild the table")
	m.AddStatementWithRollback("ALTER TABLE `users` ADD COLUMN `email` VARCHAR(255) NOT NULL", "ALTER TABLE `users` DROP COLUMN `email`;")
	m.AddStatementWithRollback("DROP TABLE `legacy`;", "CREATE TABLE `legacy` (\n  `id` INT NOT NULL\n);")
	return m
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name string
		want Formatter
	}{
		{"", textFormatter{}},
		{"text", textFormatter{}},
		{" SQL ", sqlFormatter{}},
		{"json", jsonFormatter{}},
		{"summary", summaryFormatter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name)
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}

	_, err := NewFormatter("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: yaml")
}

func TestNormalizeStatements(t *testing.T) {
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2;"}, normalizeStatements([]string{" SELECT 1 ", "", "SELECT 2;"}))
	assert.Nil(t, normalizeStatements(nil))
}
