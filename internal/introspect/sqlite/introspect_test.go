package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect"
)

var fixture = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email VARCHAR(320) NOT NULL UNIQUE,
		name TEXT DEFAULT 'anon',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX idx_users_name ON users (name DESC)`,
	`CREATE TABLE posts (
		id INTEGER NOT NULL,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		title VARCHAR(200),
		price NUMERIC(10,2),
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE tags (
		post_id INTEGER NOT NULL,
		label VARCHAR(32) NOT NULL,
		PRIMARY KEY (post_id, label)
	)`,
}

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, stmt := range fixture {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	return db
}

func introspectFixture(t *testing.T) *core.Database {
	t.Helper()
	i, err := introspect.New(core.PlatformSQLite, nil)
	require.NoError(t, err)

	db, err := i.Introspect(context.Background(), openMemory(t), core.NewTypeRegistry())
	require.NoError(t, err)
	return db
}

func TestIntrospect(t *testing.T) {
	db := introspectFixture(t)

	assert.Equal(t, "main", db.Name)
	assert.Equal(t, core.PlatformSQLite, db.Platform)
	require.Len(t, db.Tables, 3)
	assert.Equal(t, "posts", db.Tables[0].Name)
	assert.Equal(t, "tags", db.Tables[1].Name)
	assert.Equal(t, "users", db.Tables[2].Name)
	require.NoError(t, db.Validate())
}

func TestIntrospectColumns(t *testing.T) {
	users := introspectFixture(t).FindTable("users")
	require.NotNil(t, users)
	require.Len(t, users.Columns, 4)

	id := users.FindColumn("id")
	assert.Equal(t, core.DataTypeInteger, id.Type.Category)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)

	email := users.FindColumn("email")
	assert.Equal(t, core.DataTypeString, email.Type.Category)
	assert.Equal(t, 320, email.Length)
	assert.False(t, email.Nullable)

	name := users.FindColumn("name")
	assert.Equal(t, core.DataTypeText, name.Type.Category)
	assert.True(t, name.Nullable)
	require.NotNil(t, name.Default)
	assert.Equal(t, "'anon'", *name.Default)

	created := users.FindColumn("created_at")
	assert.Equal(t, core.DataTypeDateTime, created.Type.Category)
	require.NotNil(t, created.Default)
	assert.Equal(t, "CURRENT_TIMESTAMP", *created.Default)

	price := introspectFixture(t).FindTable("posts").FindColumn("price")
	require.NotNil(t, price)
	assert.Equal(t, core.DataTypeDecimal, price.Type.Category)
	assert.Equal(t, 10, price.Precision)
	assert.Equal(t, 2, price.Scale)
}

func TestIntrospectIndexes(t *testing.T) {
	db := introspectFixture(t)

	users := db.FindTable("users")
	pk := users.PrimaryKey()
	require.NotNil(t, pk)
	assert.Equal(t, []string{"id"}, pk.ColumnNames())

	byName := users.FindIndex("idx_users_name")
	require.NotNil(t, byName)
	assert.Equal(t, []core.IndexColumn{{Name: "name", Order: core.SortDesc}}, byName.Columns)

	var unique *core.Index
	for _, idx := range users.Indexes {
		if idx.Unique {
			unique = idx
		}
	}
	require.NotNil(t, unique)
	assert.Empty(t, unique.Name)
	assert.Equal(t, []string{"email"}, unique.ColumnNames())

	tags := db.FindTable("tags")
	require.NotNil(t, tags.PrimaryKey())
	assert.Equal(t, []string{"post_id", "label"}, tags.PrimaryKey().ColumnNames())
	assert.Len(t, tags.Indexes, 1)
	assert.False(t, tags.FindColumn("post_id").AutoIncrement)
}

func TestIntrospectForeignKeys(t *testing.T) {
	posts := introspectFixture(t).FindTable("posts")
	require.Len(t, posts.ForeignKeys, 1)

	fk := posts.ForeignKeys[0]
	assert.Empty(t, fk.Name)
	assert.Equal(t, []string{"user_id"}, fk.Columns)
	assert.Equal(t, "users", fk.ReferencedTable)
	assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
	assert.Equal(t, core.ActionCascade, fk.OnDelete)
	assert.Equal(t, core.ActionNoAction, fk.OnUpdate)
}
