package mysql

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/dialect"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

var reg = core.NewTypeRegistry()

func column(t *testing.T, name, typ string, opts ...func(*core.Column)) *core.Column {
	t.Helper()
	c, err := reg.NewColumn(name, typ)
	require.NoError(t, err)
	for _, o := range opts {
		o(c)
	}
	return c
}

func usersTable(t *testing.T) *core.Table {
	return &core.Table{
		Name: "users",
		Columns: []*core.Column{
			column(t, "id", "integer", func(c *core.Column) { c.Unsigned = true; c.AutoIncrement = true }),
			column(t, "email", "string", func(c *core.Column) { c.Length = 320 }),
			column(t, "status", "string", func(c *core.Column) {
				c.Length = 16
				c.Default = core.Ptr("active")
				c.Comment = "account state"
			}),
			column(t, "created_at", "datetime", func(c *core.Column) { c.Default = core.Ptr("now()") }),
		},
		Indexes: []*core.Index{
			{Name: "PRIMARY", Primary: true, Columns: []core.IndexColumn{{Name: "id"}}},
			{Name: "uniq_email", Unique: true, Columns: []core.IndexColumn{{Name: "email"}}},
		},
		Options: core.TableOptions{Engine: "InnoDB", Charset: "utf8mb4", Comment: "people"},
	}
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{core.PlatformMySQL, core.PlatformMariaDB} {
		t.Run(name, func(t *testing.T) {
			g, err := dialect.New(name)
			require.NoError(t, err)
			assert.IsType(t, &Generator{}, g)
		})
	}
}

func TestCreateTable(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	users := usersTable(t)
	users.ForeignKeys = []*core.ForeignKey{{
		Name: "fk_users_team", Columns: []string{"team_id"},
		ReferencedTable: "teams", ReferencedColumns: []string{"id"}, OnDelete: core.ActionCascade,
	}}

	stmts := g.CreateTable(users)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE `users` (\n"+
		"  `id` INT UNSIGNED NOT NULL AUTO_INCREMENT,\n"+
		"  `email` VARCHAR(320) NOT NULL,\n"+
		"  `status` VARCHAR(16) NOT NULL DEFAULT 'active' COMMENT 'account state',\n"+
		"  `created_at` DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,\n"+
		"  PRIMARY KEY (`id`),\n"+
		"  UNIQUE KEY `uniq_email` (`email`)\n"+
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='people';", stmts[0])
	assert.Equal(t, "ALTER TABLE `users` ADD CONSTRAINT `fk_users_team` FOREIGN KEY (`team_id`) REFERENCES `teams` (`id`) ON DELETE CASCADE;", stmts[1])
}

func TestDropTable(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	assert.Equal(t, []string{"DROP TABLE `old``name`;"}, g.DropTable("old`name"))
}

func TestQuoteString(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"it's", "'it''s'"},
		{`back\slash`, `'back\\slash'`},
		{"line\nbreak", `'line\nbreak'`},
		{"", "''"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, g.QuoteString(tt.in))
		})
	}
}

func TestFormatValue(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	tests := []struct {
		name string
		typ  string
		in   string
		want string
	}{
		{"string literal", "string", "active", "'active'"},
		{"numeric looking string", "string", "42", "'42'"},
		{"integer", "integer", "42", "42"},
		{"decimal", "decimal", "0.00", "0.00"},
		{"boolean word", "boolean", "true", "1"},
		{"current timestamp synonym", "datetime", "current_timestamp()", "CURRENT_TIMESTAMP"},
		{"fractional timestamp", "datetime", "CURRENT_TIMESTAMP(6)", "CURRENT_TIMESTAMP(6)"},
		{"date literal", "date", "2024-01-01", "'2024-01-01'"},
		{"expression", "integer", "(1 + 1)", "(1 + 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.formatValue(tt.in, column(t, "c", tt.typ)))
		})
	}
}

func TestTableOptions(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	tbl := &core.Table{Options: core.TableOptions{
		AutoIncrement: 1,
		CreateOptions: map[string]string{
			"row_format":  "dynamic",
			"partitioned": "true",
			"compression": "zlib",
		},
	}}
	assert.Equal(t, " COMPRESSION='zlib' ROW_FORMAT=DYNAMIC", g.tableOptions(tbl))
}

func TestIndexColumns(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	idx := &core.Index{Name: "idx_name", Flags: []core.IndexFlag{core.IndexFlagFulltext}, Columns: []core.IndexColumn{
		{Name: "a", Length: 10},
		{Name: "b", Order: core.SortDesc},
	}}
	assert.Equal(t, "FULLTEXT KEY `idx_name` (`a`(10), `b` DESC)", g.indexDefinitionInline(idx))
}

func TestAlterTableEmpty(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	assert.True(t, g.AlterTable(&diff.TableDiff{Name: "users"}).IsEmpty())
	assert.True(t, g.AlterTable(nil).IsEmpty())
}

func TestAlterTableOrder(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())

	current := usersTable(t)
	desired := current.Clone()
	desired.FindColumn("email").Length = 255

	oldFK := &core.ForeignKey{Name: "fk_old", Columns: []string{"email"}, ReferencedTable: "emails", ReferencedColumns: []string{"address"}}
	newFK := &core.ForeignKey{Name: "fk_new", Columns: []string{"status"}, ReferencedTable: "statuses", ReferencedColumns: []string{"code"}}
	oldPK := current.PrimaryKey()
	newPK := &core.Index{Name: "PRIMARY", Primary: true, Columns: []core.IndexColumn{{Name: "id"}, {Name: "email"}}}

	td := &diff.TableDiff{
		Name:               "users",
		Current:            current,
		Desired:            desired,
		DroppedForeignKeys: []*core.ForeignKey{oldFK},
		AddedForeignKeys:   []*core.ForeignKey{newFK},
		DroppedIndexes:     []*core.Index{current.FindIndex("uniq_email")},
		AddedIndexes:       []*core.Index{{Name: "idx_status", Columns: []core.IndexColumn{{Name: "status"}}}},
		ModifiedColumns: []*diff.ColumnChange{{
			Name: "email", Old: current.FindColumn("email"), New: desired.FindColumn("email"),
		}},
		PrimaryKey: &diff.PrimaryKeyChange{Old: oldPK, New: newPK, AutoIncrementColumns: []string{"id"}},
		ModifiedOptions: []*diff.TableOptionChange{
			{Name: "comment", Old: "people", New: "accounts"},
		},
	}

	stmts := g.AlterTable(td).Statements()
	want := []string{
		"ALTER TABLE `users` DROP FOREIGN KEY `fk_old`;",
		"DROP INDEX `uniq_email` ON `users`;",
		"ALTER TABLE `users` MODIFY COLUMN `email` VARCHAR(255) NOT NULL;",
		"ALTER TABLE `users` MODIFY COLUMN `id` INT UNSIGNED NOT NULL;",
		"ALTER TABLE `users` DROP PRIMARY KEY;",
		"ALTER TABLE `users` ADD PRIMARY KEY (`id`, `email`);",
		"ALTER TABLE `users` MODIFY COLUMN `id` INT UNSIGNED NOT NULL AUTO_INCREMENT;",
		"ALTER TABLE `users` ADD KEY `idx_status` (`status`);",
		"ALTER TABLE `users` ADD CONSTRAINT `fk_new` FOREIGN KEY (`status`) REFERENCES `statuses` (`code`);",
		"ALTER TABLE `users` COMMENT='accounts';",
	}
	assert.Equal(t, want, stmts)
}

func TestAlterTableBreaking(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	current := usersTable(t)

	td := &diff.TableDiff{
		Name:           "users",
		Current:        current,
		DroppedColumns: []*core.Column{current.FindColumn("status")},
		PrimaryKey:     &diff.PrimaryKeyChange{Old: current.PrimaryKey(), AutoIncrementColumns: []string{"id"}},
	}
	m := g.AlterTable(td)

	assert.Contains(t, m.BreakingNotes(), "dropping column users.status deletes its data")
	assert.Contains(t, m.BreakingNotes(), "dropping the primary key of users")

	stmts := m.Statements()
	strip := slices.Index(stmts, "ALTER TABLE `users` MODIFY COLUMN `id` INT UNSIGNED NOT NULL;")
	drop := slices.Index(stmts, "ALTER TABLE `users` DROP PRIMARY KEY;")
	require.NotEqual(t, -1, strip)
	require.NotEqual(t, -1, drop)
	assert.Less(t, strip, drop)

	rollback := m.RollbackStatements()
	assert.Equal(t, "ALTER TABLE `users` ADD PRIMARY KEY (`id`);", rollback[0])
}

func TestAlterTableUnnamed(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	td := &diff.TableDiff{
		Name:               "users",
		DroppedIndexes:     []*core.Index{{Unique: true, Columns: []core.IndexColumn{{Name: "email"}}}},
		DroppedForeignKeys: []*core.ForeignKey{{Columns: []string{"team_id"}, ReferencedTable: "teams", ReferencedColumns: []string{"id"}}},
	}
	m := g.AlterTable(td)
	assert.Empty(t, m.Statements())
	require.Len(t, m.UnresolvedNotes(), 2)
	assert.Contains(t, m.UnresolvedNotes()[0], "foreign key on `users`(`team_id`) has no name")
	assert.Contains(t, m.UnresolvedNotes()[1], "index on `users`(`email`) has no name")
}

func TestAlterTableRenames(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	oldCol := column(t, "mail", "string")
	newCol := column(t, "email", "string")

	td := &diff.TableDiff{
		Name:           "users",
		RenamedColumns: []*diff.ColumnRename{{Old: oldCol, New: newCol}},
		RenamedIndexes: []*diff.IndexRename{{
			Old: &core.Index{Name: "idx_mail"},
			New: &core.Index{Name: "idx_email"},
		}},
	}
	m := g.AlterTable(td)
	assert.Equal(t, []string{
		"ALTER TABLE `users` CHANGE COLUMN `mail` `email` VARCHAR(255) NOT NULL;",
		"ALTER TABLE `users` RENAME INDEX `idx_mail` TO `idx_email`;",
	}, m.Statements())
	assert.Equal(t, []string{
		"ALTER TABLE `users` RENAME INDEX `idx_email` TO `idx_mail`;",
		"ALTER TABLE `users` CHANGE COLUMN `email` `mail` VARCHAR(255) NOT NULL;",
	}, m.RollbackStatements())
}

func TestAlterTableOptions(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	td := &diff.TableDiff{
		Name: "users",
		ModifiedOptions: []*diff.TableOptionChange{
			{Name: "auto_increment", Old: "", New: "100"},
			{Name: "create_options.partitioned", Old: "", New: "true"},
			{Name: "engine", Old: "innodb", New: "myisam"},
		},
	}
	m := g.AlterTable(td)
	assert.Equal(t, []string{"ALTER TABLE `users` AUTO_INCREMENT=100, ENGINE=myisam;"}, m.Statements())
	assert.Equal(t, []string{"ALTER TABLE `users` AUTO_INCREMENT=1, ENGINE=innodb;"}, m.RollbackStatements())
	require.Len(t, m.UnresolvedNotes(), 1)
	assert.Contains(t, m.UnresolvedNotes()[0], "create_options.partitioned")
}

func TestRebuildOnlyForeignKey(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	fk := &core.ForeignKey{Name: "fk_team", Columns: []string{"team_id"}, ReferencedTable: "teams", ReferencedColumns: []string{"id"}}
	td := &diff.TableDiff{
		Name: "users",
		ModifiedForeignKeys: []*diff.ForeignKeyChange{{
			Name: "fk_team", Old: fk, New: fk, RebuildOnly: true, RebuildReason: "column team_id is modified",
		}},
	}
	m := g.AlterTable(td)
	stmts := m.Statements()
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "ALTER TABLE `users` DROP FOREIGN KEY"))
	assert.True(t, strings.Contains(stmts[1], "ADD CONSTRAINT `fk_team`"))
	assert.Len(t, m.Notes(), 1)
}

func TestMigration(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())

	teams := &core.Table{Name: "teams", Columns: []*core.Column{column(t, "id", "integer")}}
	users := usersTable(t)
	users.Columns = append(users.Columns, column(t, "team_id", "integer"))
	users.ForeignKeys = []*core.ForeignKey{{
		Name: "fk_users_team", Columns: []string{"team_id"}, ReferencedTable: "teams", ReferencedColumns: []string{"id"},
	}}
	legacy := &core.Table{Name: "legacy", Columns: []*core.Column{column(t, "id", "integer")}}

	m := g.Migration(&diff.SchemaDiff{
		AddedTables:   []*core.Table{teams, users},
		DroppedTables: []*core.Table{legacy},
	})

	stmts := m.Statements()
	require.Len(t, stmts, 4)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE `teams`"))
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE `users`"))
	assert.True(t, strings.HasPrefix(stmts[2], "ALTER TABLE `users` ADD CONSTRAINT `fk_users_team`"))
	assert.Equal(t, "DROP TABLE `legacy`;", stmts[3])

	assert.Equal(t, []string{"dropping table `legacy` deletes all of its rows"}, m.BreakingNotes())
	assert.Empty(t, m.Notes())

	rollback := m.RollbackStatements()
	require.Len(t, rollback, 4)
	assert.True(t, strings.HasPrefix(rollback[0], "CREATE TABLE `legacy`"))
	assert.Equal(t, "ALTER TABLE `users` DROP FOREIGN KEY `fk_users_team`;", rollback[1])
	assert.Equal(t, "DROP TABLE `users`;", rollback[2])

	risks := map[string]migration.Risk{}
	for _, op := range m.Operations {
		if op.Kind == migration.OperationSQL {
			risks[op.SQL] = op.Risk
		}
	}
	assert.Equal(t, migration.RiskBreaking, risks["DROP TABLE `legacy`;"])
	assert.Equal(t, migration.RiskInfo, risks[stmts[0]])
	assert.Equal(t, migration.RiskWarning, risks[stmts[2]])
}

func TestMigrationEmpty(t *testing.T) {
	g := NewGenerator(platform.NewMySQL())
	assert.True(t, g.Migration(&diff.SchemaDiff{}).IsEmpty())
	assert.True(t, g.Migration(nil).IsEmpty())
}
