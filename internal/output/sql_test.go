package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

func TestSQLFormatMigration(t *testing.T) {
	f, err := NewFormatter("sql")
	require.NoError(t, err)

	out, err := f.FormatMigration(sampleMigration())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "-- dbal migration\n"))
	assert.Contains(t, out, "-- BREAKING CHANGES (manual review required)\n-- - dropping table `legacy` deletes all of its rows\n")
	assert.Contains(t, out, "-- UNRESOLVED (cannot auto-generate safely)\n")
	assert.Contains(t, out, "-- NOTES\n-- - ALTER TABLE may rebuild the table\n")
	assert.Contains(t, out, "-- SQL\nALTER TABLE `users` ADD COLUMN `email` VARCHAR(255) NOT NULL;\nDROP TABLE `legacy`;\n")

	rollback := out[strings.Index(out, "-- ROLLBACK SQL"):]
	assert.Less(t, strings.Index(rollback, "-- CREATE TABLE `legacy` ("), strings.Index(rollback, "-- ALTER TABLE `users` DROP COLUMN `email`;"))
	assert.Contains(t, rollback, "-- `id` INT NOT NULL\n")
}

func TestSQLFormatMigrationEmpty(t *testing.T) {
	f, err := NewFormatter("sql")
	require.NoError(t, err)

	out, err := f.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Contains(t, out, "-- No SQL statements generated.")
	assert.NotContains(t, out, "ROLLBACK")
}

func TestSQLFormatDiff(t *testing.T) {
	f, err := NewFormatter("sql")
	require.NoError(t, err)

	out, err := f.FormatDiff(sampleDiff())
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.True(t, strings.HasPrefix(line, "--"), line)
	}
	assert.Contains(t, out, "-- Schema differences:\n")
}

func TestSQLFormatColor(t *testing.T) {
	f, err := NewFormatter("sql", WithColor(true))
	require.NoError(t, err)

	out, err := f.FormatMigration(sampleMigration())
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "legacy")
}

func TestRollbackSQL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRollback(sampleMigration(), &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "-- dbal rollback\n"))
	assert.Contains(t, out, "-- SQL\nCREATE TABLE `legacy` (\n  `id` INT NOT NULL\n);\nALTER TABLE `users` DROP COLUMN `email`;\n")

	assert.Contains(t, FormatRollbackSQL(&migration.Migration{}), "-- No rollback statements generated.")
}

func TestSplitCommentLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitCommentLines("a\r\n b\rc "))
}

func TestSQLFormatMigrationRisk(t *testing.T) {
	m := &migration.Migration{Operations: []migration.Operation{
		{Kind: migration.OperationSQL, SQL: "CREATE TABLE `t` (`id` INT)", Risk: migration.RiskInfo},
		{Kind: migration.OperationSQL, SQL: "DROP TABLE `old`;", Risk: migration.RiskBreaking, Reason: "DROP TABLE will permanently delete the table and all its data"},
	}}
	out, err := sqlFormatter{}.FormatMigration(m)
	require.NoError(t, err)
	assert.Contains(t, out, "-- SQL\nCREATE TABLE `t` (`id` INT);\n-- [BREAKING] DROP TABLE will permanently delete the table and all its data\nDROP TABLE `old`;\n")
}
