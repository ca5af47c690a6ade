package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

func TestTextFormatDiff(t *testing.T) {
	f, err := NewFormatter("text")
	require.NoError(t, err)

	d := sampleDiff()
	out, err := f.FormatDiff(d)
	require.NoError(t, err)
	assert.Equal(t, d.String(), out)
	assert.NotContains(t, out, "\x1b[")

	out, err = f.FormatDiff(&diff.SchemaDiff{})
	require.NoError(t, err)
	assert.Equal(t, "No differences detected.", out)
}

func TestTextFormatDiffColor(t *testing.T) {
	f, err := NewFormatter("text", WithColor(true))
	require.NoError(t, err)

	out, err := f.FormatDiff(sampleDiff())
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "Added tables:")
	assert.Contains(t, out, "comments")
}

func TestTextFormatMigration(t *testing.T) {
	f, err := NewFormatter("text")
	require.NoError(t, err)

	out, err := f.FormatMigration(sampleMigration())
	require.NoError(t, err)
	assert.Contains(t, out, "Breaking changes:\n  - dropping table `legacy` deletes all of its rows\n")
	assert.Contains(t, out, "Unresolved:\n")
	assert.Contains(t, out, "Notes:\n  - ALTER TABLE may rebuild the table\n")
	assert.Contains(t, out, "Statements:\n  - ALTER TABLE `users` ADD COLUMN `email` VARCHAR(255) NOT NULL;\n")

	out, err = f.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Equal(t, "No migration operations.\n", out)
}
