package mysql

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

const dump = `
USE shop;

CREATE TABLE users (
  id INT UNSIGNED NOT NULL AUTO_INCREMENT,
  email VARCHAR(320) NOT NULL,
  nickname VARCHAR(64) CHARACTER SET latin1 COLLATE latin1_swedish_ci DEFAULT NULL,
  status VARCHAR(16) NOT NULL DEFAULT 'active' COMMENT 'account state',
  verified TINYINT(1) NOT NULL DEFAULT 0,
  bio TEXT,
  balance DECIMAL(10,2) NOT NULL DEFAULT '0.00',
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uniq_email (email),
  KEY idx_nickname (nickname(10)),
  FULLTEXT KEY ft_bio (bio)
) ENGINE=InnoDB AUTO_INCREMENT=42 DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci ROW_FORMAT=DYNAMIC COMMENT='people';

CREATE TABLE orders (
  id BIGINT NOT NULL PRIMARY KEY,
  user_id INT UNSIGNED NOT NULL,
  code CHAR(8) UNIQUE,
  CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
  CHECK (id > 0)
);

INSERT INTO users (email) VALUES ('a@example.com');
`

func parseDump(t *testing.T) *core.Database {
	t.Helper()
	db, err := NewParser(core.NewTypeRegistry()).Parse(dump)
	require.NoError(t, err)
	return db
}

func TestParse(t *testing.T) {
	db := parseDump(t)

	assert.Equal(t, "shop", db.Name)
	assert.Equal(t, core.PlatformMySQL, db.Platform)
	require.Len(t, db.Tables, 2)
	require.NoError(t, db.Validate())
}

func TestParseTableOptions(t *testing.T) {
	users := parseDump(t).FindTable("users")
	require.NotNil(t, users)

	assert.Equal(t, "InnoDB", users.Options.Engine)
	assert.Equal(t, "utf8mb4", users.Options.Charset)
	assert.Equal(t, "utf8mb4_unicode_ci", users.Options.Collation)
	assert.Equal(t, "people", users.Options.Comment)
	assert.Equal(t, uint64(42), users.Options.AutoIncrement)
	assert.Equal(t, "DYNAMIC", users.Options.CreateOptions["row_format"])
}

func TestParseColumns(t *testing.T) {
	users := parseDump(t).FindTable("users")
	require.NotNil(t, users)
	require.Len(t, users.Columns, 8)

	tests := []struct {
		name  string
		check func(t *testing.T, col *core.Column)
	}{
		{"id", func(t *testing.T, col *core.Column) {
			assert.Equal(t, core.DataTypeInteger, col.Type.Category)
			assert.True(t, col.Unsigned)
			assert.True(t, col.AutoIncrement)
			assert.False(t, col.Nullable)
		}},
		{"email", func(t *testing.T, col *core.Column) {
			assert.Equal(t, core.DataTypeString, col.Type.Category)
			assert.Equal(t, 320, col.Length)
		}},
		{"nickname", func(t *testing.T, col *core.Column) {
			assert.True(t, col.Nullable)
			assert.Nil(t, col.Default)
			assert.Equal(t, "latin1", col.Charset)
			assert.Equal(t, "latin1_swedish_ci", col.Collation)
		}},
		{"status", func(t *testing.T, col *core.Column) {
			require.NotNil(t, col.Default)
			assert.Equal(t, "active", *col.Default)
			assert.Equal(t, "account state", col.Comment)
		}},
		{"verified", func(t *testing.T, col *core.Column) {
			assert.Equal(t, core.DataTypeBoolean, col.Type.Category)
			require.NotNil(t, col.Default)
			assert.Equal(t, "0", *col.Default)
		}},
		{"bio", func(t *testing.T, col *core.Column) {
			assert.Equal(t, core.DataTypeText, col.Type.Category)
			assert.True(t, col.Nullable)
		}},
		{"balance", func(t *testing.T, col *core.Column) {
			assert.Equal(t, core.DataTypeDecimal, col.Type.Category)
			assert.Equal(t, 10, col.Precision)
			assert.Equal(t, 2, col.Scale)
			assert.Equal(t, "0.00", *col.Default)
		}},
		{"updated_at", func(t *testing.T, col *core.Column) {
			assert.Equal(t, core.DataTypeDateTime, col.Type.Category)
			require.NotNil(t, col.Default)
			require.NotNil(t, col.OnUpdate)
			assert.Contains(t, *col.Default, "CURRENT_TIMESTAMP")
			assert.Contains(t, *col.OnUpdate, "CURRENT_TIMESTAMP")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := users.FindColumn(tt.name)
			require.NotNil(t, col)
			tt.check(t, col)
		})
	}
}

func TestParseIndexes(t *testing.T) {
	db := parseDump(t)
	users := db.FindTable("users")

	pk := users.PrimaryKey()
	require.NotNil(t, pk)
	assert.Equal(t, "PRIMARY", pk.Name)
	assert.Equal(t, []string{"id"}, pk.ColumnNames())

	uniq := users.FindIndex("uniq_email")
	require.NotNil(t, uniq)
	assert.True(t, uniq.Unique)

	nick := users.FindIndex("idx_nickname")
	require.NotNil(t, nick)
	assert.Equal(t, []core.IndexColumn{{Name: "nickname", Length: 10}}, nick.Columns)

	ft := users.FindIndex("ft_bio")
	require.NotNil(t, ft)
	assert.True(t, ft.HasFlag(core.IndexFlagFulltext))

	orders := db.FindTable("orders")
	require.NotNil(t, orders.PrimaryKey())
	assert.Equal(t, []string{"id"}, orders.PrimaryKey().ColumnNames())
	assert.False(t, orders.FindColumn("id").Nullable)

	var inlineUnique *core.Index
	for _, idx := range orders.Indexes {
		if idx.Unique && !idx.Primary {
			inlineUnique = idx
		}
	}
	require.NotNil(t, inlineUnique)
	assert.Equal(t, []string{"code"}, inlineUnique.ColumnNames())
}

func TestParseForeignKeys(t *testing.T) {
	orders := parseDump(t).FindTable("orders")
	require.Len(t, orders.ForeignKeys, 1)

	fk := orders.ForeignKeys[0]
	assert.Equal(t, "fk_orders_user", fk.Name)
	assert.Equal(t, []string{"user_id"}, fk.Columns)
	assert.Equal(t, "users", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, core.ActionCascade, fk.OnDelete)
	assert.Empty(t, fk.OnUpdate)
}

func TestParsePartitioned(t *testing.T) {
	db, err := NewParser(core.NewTypeRegistry()).Parse(`
CREATE TABLE events (id INT NOT NULL, PRIMARY KEY (id))
PARTITION BY HASH(id) PARTITIONS 4;`)
	require.NoError(t, err)
	assert.Equal(t, "true", db.Tables[0].Options.CreateOptions["partitioned"])
}

func TestParseWithPlatform(t *testing.T) {
	db, err := NewParser(core.NewTypeRegistry()).WithPlatform(core.PlatformMariaDB).Parse("CREATE TABLE t (id INT);")
	require.NoError(t, err)
	assert.Equal(t, core.PlatformMariaDB, db.Platform)
}

func TestParseErrors(t *testing.T) {
	_, err := NewParser(core.NewTypeRegistry()).Parse("CREATE TABLE (")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql: parse")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE items (id INT);"), 0o600))

	db, err := NewParser(core.NewTypeRegistry()).ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "inventory", db.Name)
	require.Len(t, db.Tables, 1)
	assert.Equal(t, "items", db.Tables[0].Name)
}

func TestTryUnquoteSQLStringLiteral(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"'abc'", "abc", true},
		{"'it''s'", "it's", true},
		{"_utf8mb4'x'", "x", true},
		{"N'y'", "y", true},
		{"CURRENT_TIMESTAMP", "", false},
		{"foo'bar'", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := tryUnquoteSQLStringLiteral(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
