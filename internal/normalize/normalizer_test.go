package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

func newColumn(t *testing.T, name, typeName string, mutate func(*core.Column)) *core.Column {
	t.Helper()
	col, err := core.NewTypeRegistry().NewColumn(name, typeName)
	require.NoError(t, err)
	if mutate != nil {
		mutate(col)
	}
	return col
}

func TestDefault(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		typeName string
		def      *string
		autoInc  bool
		want     *string
	}{
		{"no default", core.PlatformMySQL, "string", nil, false, nil},
		{"literal", core.PlatformMySQL, "string", core.Ptr("abc"), false, core.Ptr("abc")},
		{"now synonym", core.PlatformMySQL, "datetime", core.Ptr("now()"), false, core.Ptr(platform.CurrentTimestamp)},
		{"current_timestamp() synonym", core.PlatformMySQL, "datetime", core.Ptr("CURRENT_TIMESTAMP()"), false, core.Ptr(platform.CurrentTimestamp)},
		{"mariadb currdate", core.PlatformMariaDB, "date", core.Ptr("currdate()"), false, core.Ptr(platform.CurrentDate)},
		{"mariadb quoted literal", core.PlatformMariaDB, "string", core.Ptr("'abc'"), false, core.Ptr("abc")},
		{"mariadb NULL", core.PlatformMariaDB, "string", core.Ptr("NULL"), false, nil},
		{"decimal trailing zeros", core.PlatformMySQL, "decimal", core.Ptr("-2.300"), false, core.Ptr("-2.3")},
		{"decimal integer", core.PlatformMySQL, "decimal", core.Ptr("10.00"), false, core.Ptr("10")},
		{"float exponent", core.PlatformMySQL, "float", core.Ptr("1.5e2"), false, core.Ptr("150")},
		{"integer leading plus", core.PlatformMySQL, "integer", core.Ptr("+7"), false, core.Ptr("7")},
		{"numeric opaque expression", core.PlatformMySQL, "integer", core.Ptr("rand()"), false, core.Ptr("rand()")},
		{"boolean true", core.PlatformPostgreSQL, "boolean", core.Ptr("true"), false, core.Ptr("1")},
		{"boolean false", core.PlatformPostgreSQL, "boolean", core.Ptr("false"), false, core.Ptr("0")},
		{"postgres cast", core.PlatformPostgreSQL, "string", core.Ptr("'x'::character varying"), false, core.Ptr("x")},
		{"postgres negative", core.PlatformPostgreSQL, "decimal", core.Ptr("(-2.30)"), false, core.Ptr("-2.3")},
		{"sqlserver parens", core.PlatformSQLServer, "integer", core.Ptr("((1))"), false, core.Ptr("1")},
		{"sqlserver getdate", core.PlatformSQLServer, "datetime", core.Ptr("(getdate())"), false, core.Ptr(platform.CurrentTimestamp)},
		{"mysql text default dropped", core.PlatformMySQL, "text", core.Ptr("abc"), false, nil},
		{"mysql blob default dropped", core.PlatformMySQL, "blob", core.Ptr("abc"), false, nil},
		{"mariadb text default kept", core.PlatformMariaDB, "text", core.Ptr("'abc'"), false, core.Ptr("abc")},
		{"autoincrement default dropped", core.PlatformMySQL, "integer", core.Ptr("0"), true, nil},
		{"unknown expression is opaque", core.PlatformMySQL, "string", core.Ptr("uuid()"), false, core.Ptr("uuid()")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(platform.MustGet(tt.platform))
			col := newColumn(t, "c", tt.typeName, func(c *core.Column) {
				c.Default = tt.def
				c.AutoIncrement = tt.autoInc
			})
			assert.Equal(t, tt.want, n.Default(col))
		})
	}
}

func TestColumnCharsetMySQL(t *testing.T) {
	n := New(platform.NewMySQL())

	tests := []struct {
		name          string
		table         core.TableOptions
		charset       string
		collation     string
		wantCharset   string
		wantCollation string
	}{
		{
			name:          "everything inherited from platform defaults",
			wantCharset:   "utf8mb4",
			wantCollation: "utf8mb4_0900_ai_ci",
		},
		{
			name:          "column collation explicitly set to the table default",
			collation:     "utf8mb4_0900_ai_ci",
			wantCharset:   "utf8mb4",
			wantCollation: "utf8mb4_0900_ai_ci",
		},
		{
			name:          "table charset only",
			table:         core.TableOptions{Charset: "utf8mb4"},
			collation:     "utf8mb4_unicode_ci",
			wantCharset:   "utf8mb4",
			wantCollation: "utf8mb4_unicode_ci",
		},
		{
			name:          "column charset matching the table collation",
			table:         core.TableOptions{Collation: "utf8mb4_unicode_ci"},
			charset:       "utf8mb4",
			wantCharset:   "utf8mb4",
			wantCollation: "utf8mb4_unicode_ci",
		},
		{
			name:          "column charset different from table",
			table:         core.TableOptions{Charset: "utf8mb4", Collation: "utf8mb4_general_ci"},
			charset:       "latin1",
			wantCharset:   "latin1",
			wantCollation: "latin1_swedish_ci",
		},
		{
			name:          "explicit charset and collation",
			table:         core.TableOptions{Charset: "utf8mb4", Collation: "utf8mb4_general_ci"},
			charset:       "latin1",
			collation:     "latin1_bin",
			wantCharset:   "latin1",
			wantCollation: "latin1_bin",
		},
		{
			name:          "table with non-default charset",
			table:         core.TableOptions{Charset: "latin1"},
			wantCharset:   "latin1",
			wantCollation: "latin1_swedish_ci",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &core.Table{Name: "t", Options: tt.table}
			col := newColumn(t, "name", "string", func(c *core.Column) {
				c.Charset = tt.charset
				c.Collation = tt.collation
			})
			cs, coll := n.ColumnCharset(table, col)
			assert.Equal(t, tt.wantCharset, cs)
			assert.Equal(t, tt.wantCollation, coll)
		})
	}

	t.Run("non character column", func(t *testing.T) {
		cs, coll := n.ColumnCharset(&core.Table{Name: "t"}, newColumn(t, "id", "integer", func(c *core.Column) { c.Collation = "utf8mb4_bin" }))
		assert.Empty(t, cs)
		assert.Empty(t, coll)
	})
}

func TestColumnCollationWithoutCharsets(t *testing.T) {
	n := New(platform.NewPostgreSQL())
	table := &core.Table{Name: "t", Options: core.TableOptions{Collation: "C"}}

	cs, coll := n.ColumnCharset(table, newColumn(t, "a", "string", func(c *core.Column) { c.Collation = "c" }))
	assert.Empty(t, cs)
	assert.Empty(t, coll)

	_, coll = n.ColumnCharset(table, newColumn(t, "a", "string", func(c *core.Column) { c.Collation = "en_US" }))
	assert.Equal(t, "en_us", coll)

	_, coll = New(platform.NewDB2()).ColumnCharset(table, newColumn(t, "a", "string", func(c *core.Column) { c.Collation = "en_US" }))
	assert.Empty(t, coll)
}

func TestColumnCanonicalForm(t *testing.T) {
	n := New(platform.NewMySQL())
	table := &core.Table{Name: "t"}

	a := n.Column(table, newColumn(t, "body", "text", func(c *core.Column) { c.Length = 255 }))
	b := n.Column(table, newColumn(t, "body", "text", func(c *core.Column) { c.Length = 254 }))
	c := n.Column(table, newColumn(t, "body", "text", func(c *core.Column) { c.Length = 256 }))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	withUpdate := n.Column(table, newColumn(t, "ts", "datetime", func(c *core.Column) { c.OnUpdate = core.Ptr("now()") }))
	require.NotNil(t, withUpdate.OnUpdate)
	assert.Equal(t, platform.CurrentTimestamp, *withUpdate.OnUpdate)

	pg := New(platform.NewPostgreSQL()).Column(table, newColumn(t, "n", "integer", func(c *core.Column) { c.Unsigned = true; c.Comment = "note" }))
	assert.False(t, pg.Type.Unsigned)
	assert.Equal(t, "note", pg.Comment)

	sqlite := New(platform.NewSQLite()).Column(table, newColumn(t, "n", "integer", func(c *core.Column) { c.Comment = "note" }))
	assert.Empty(t, sqlite.Comment)
}

func TestIndexColumns(t *testing.T) {
	idx := &core.Index{
		Name:    "idx",
		Columns: []core.IndexColumn{{Name: "Title", Length: 128}, {Name: "created", Order: core.SortDesc}},
		Flags:   []core.IndexFlag{"FULLTEXT", core.IndexFlagFulltext},
		Options: map[string]string{"WHERE": "a > 1", "empty": " "},
	}

	mysql := New(platform.NewMySQL()).IndexColumns(idx)
	assert.Equal(t, []IndexColumn{{Name: "title", Length: 128}, {Name: "created", Desc: true}}, mysql.Columns)
	assert.Equal(t, []string{"fulltext"}, mysql.Flags)
	assert.Equal(t, map[string]string{"where": "a > 1"}, mysql.Options)
	assert.Equal(t, []string{"title", "created"}, mysql.ColumnNames())

	pg := New(platform.NewPostgreSQL()).IndexColumns(idx)
	assert.Equal(t, 0, pg.Columns[0].Length)

	other := *idx
	other.Name = "renamed"
	assert.True(t, mysql.Equal(New(platform.NewMySQL()).IndexColumns(&other)))

	unique := other
	unique.Unique = true
	assert.False(t, mysql.Equal(New(platform.NewMySQL()).IndexColumns(&unique)))
}

func TestTableOptions(t *testing.T) {
	n := New(platform.NewMySQL())

	t.Run("empty table gets charset defaults only", func(t *testing.T) {
		got := n.TableOptions(&core.Table{Name: "t"})
		assert.Equal(t, map[string]string{
			OptionCharset:   "utf8mb4",
			OptionCollation: "utf8mb4_0900_ai_ci",
		}, got)
	})

	t.Run("full option set", func(t *testing.T) {
		got := n.TableOptions(&core.Table{Name: "t", Options: core.TableOptions{
			Engine:        "InnoDB",
			Collation:     "utf8mb4_general_ci",
			Comment:       "This is a test",
			AutoIncrement: 1000,
			CreateOptions: map[string]string{"row_format": "COMPRESSED", "partitioned": ""},
		}})
		assert.Equal(t, map[string]string{
			OptionEngine:                     "innodb",
			OptionCharset:                    "utf8mb4",
			OptionCollation:                  "utf8mb4_general_ci",
			OptionComment:                    "This is a test",
			OptionAutoIncrement:              "1000",
			CreateOptionPrefix + "row_format": "compressed",
		}, got)
	})

	t.Run("platform without table options", func(t *testing.T) {
		got := New(platform.NewPostgreSQL()).TableOptions(&core.Table{Name: "t", Options: core.TableOptions{Engine: "InnoDB"}})
		assert.Empty(t, got)
	})

	assert.True(t, n.ImplicitOption(OptionEngine, "innodb"))
	assert.Equal(t, core.ActionNoAction, n.ReferentialAction(core.ActionRestrict))
}

func TestCanonicalNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"-2.300", "-2.3", true},
		{"0.1", "0.1", true},
		{"100", "100", true},
		{"1e-3", "0.001", true},
		{"1/3", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := canonicalNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
