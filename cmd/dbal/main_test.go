package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	currentSQL = "CREATE TABLE users (id INT NOT NULL, PRIMARY KEY (id)) ENGINE=InnoDB;\n"
	desiredSQL = "CREATE TABLE users (id INT NOT NULL, email VARCHAR(255) NOT NULL, PRIMARY KEY (id)) ENGINE=InnoDB;\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)
	desired := writeFile(t, dir, "desired.sql", desiredSQL)

	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"text", "text", "email"},
		{"json", "json", `"modifiedTables": 1`},
		{"summary", "summary", "Columns:      +1, ~0, -0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, "diff", "-p", "mysql", "--format", tt.format, current, desired)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestDiffCommandNoChanges(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)

	out, _, err := run(t, "diff", "-p", "mysql", "--format", "summary", current, current)
	require.NoError(t, err)
	assert.Equal(t, "No changes detected.\n", out)
}

func TestDiffCommandOutputFile(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)
	desired := writeFile(t, dir, "desired.sql", desiredSQL)
	target := filepath.Join(dir, "diff.json")

	out, stderr, err := run(t, "diff", "-p", "mysql", "-f", "json", "-o", target, current, desired)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "Output saved to "+target)

	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"format": "json"`)
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)
	desired := writeFile(t, dir, "desired.sql", desiredSQL)
	rollback := filepath.Join(dir, "rollback.sql")

	out, _, err := run(t, "plan", "-p", "mysql", "--format", "sql", "-r", rollback, current, desired)
	require.NoError(t, err)
	assert.Contains(t, out, "ALTER TABLE `users` ADD COLUMN `email` VARCHAR(255) NOT NULL;")
	assert.Contains(t, out, "Rollback saved to "+rollback)

	b, err := os.ReadFile(rollback)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ALTER TABLE `users` DROP COLUMN `email`;")
}

func TestDiffCommandRequiresPlatform(t *testing.T) {
	t.Setenv("DBAL_PLATFORM", "")
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)

	// The dump declares nothing, but the parser records mysql on the snapshot;
	// that must not stand in for an explicit platform.
	_, _, err := run(t, "diff", current, current)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--platform or DBAL_PLATFORM is required")
}

func TestDiffCommandPlatformFromEnv(t *testing.T) {
	t.Setenv("DBAL_PLATFORM", "mariadb")
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)

	out, _, err := run(t, "diff", "--format", "summary", current, current)
	require.NoError(t, err)
	assert.Equal(t, "No changes detected.\n", out)
}

func TestPlanCommandUnsupportedPlatform(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)

	_, _, err := run(t, "plan", "--platform", "sqlite", current, current)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no DDL generator for platform "sqlite"`)
}

func TestInvalidFormat(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, dir, "current.sql", currentSQL)

	_, _, err := run(t, "diff", "-p", "mysql", "--format", "xml", current, current)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: xml")
}

func sqliteFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE users (id INTEGER NOT NULL PRIMARY KEY, email VARCHAR(255) NOT NULL)")
	require.NoError(t, err)
	return path
}

func TestIntrospectCommand(t *testing.T) {
	path := sqliteFile(t)

	out, _, err := run(t, "introspect", "--url", "sqlite:"+path)
	require.NoError(t, err)
	assert.Contains(t, out, `"platform": "sqlite"`)
	assert.Contains(t, out, `"name": "users"`)
	assert.Contains(t, out, `"name": "email"`)
}

func TestIntrospectCommandRequiresURL(t *testing.T) {
	t.Setenv("DBAL_DATABASE_URL", "")

	_, _, err := run(t, "introspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url or DBAL_DATABASE_URL is required")
}

func TestCompareCommandReportsDifferences(t *testing.T) {
	t.Setenv("DBAL_PLATFORM", "")
	path := sqliteFile(t)
	desired := writeFile(t, t.TempDir(), "desired.sql",
		desiredSQL+"CREATE TABLE posts (id INT NOT NULL, PRIMARY KEY (id));\n")

	out, _, err := run(t, "compare", "--format", "summary", "--url", "sqlite:"+path, desired)
	require.ErrorIs(t, err, errDifferences)
	assert.Contains(t, out, "+ posts (new table)")
}
