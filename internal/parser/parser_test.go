package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"schema.toml": "[[tables]]\nname = \"users\"\n[[tables.columns]]\nname = \"id\"\ntype = \"integer\"\n",
		"schema.yml":  "tables:\n  - name: users\n    columns:\n      - name: id\n        type: integer\n",
		"schema.YAML": "tables:\n  - name: users\n    columns:\n      - name: id\n        type: integer\n",
		"schema.sql":  "CREATE TABLE users (id INT NOT NULL);",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			db, err := ParseFile(path, core.NewTypeRegistry())
			require.NoError(t, err)
			require.Len(t, db.Tables, 1)
			assert.Equal(t, "users", db.Tables[0].Name)
			assert.NotNil(t, db.Tables[0].FindColumn("id"))
		})
	}
}

func TestParseFileUnsupported(t *testing.T) {
	_, err := ParseFile("schema.json", core.NewTypeRegistry())
	require.Error(t, err)

	var target *UnsupportedFormatError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "schema.json", target.Path)
	assert.Equal(t, "unsupported file format: schema.json", err.Error())
}
