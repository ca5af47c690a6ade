// Package document holds the file format shared by the TOML and YAML schema
// parsers and converts it into core snapshots.
//
// A document looks like this in TOML:
//
//	[database]
//	name = "shop"
//	platform = "mysql"
//
//	[[tables]]
//	name = "users"
//	primary_key = ["id"]
//
//	[[tables.columns]]
//	name = "id"
//	type = "integer"
//	auto_increment = true
//
//	[[tables.columns]]
//	name = "team_id"
//	type = "integer"
//	references = "teams.id"
//	on_delete = "cascade"
//
// Column types are names from the type registry ("string", "decimal", ...)
// or, when the document names a platform, raw declarations such as
// "varchar(64)".
package document

// Document is the top level of a schema file.
type Document struct {
	Database Database `toml:"database" yaml:"database"`
	Tables   []Table  `toml:"tables" yaml:"tables"`
}

// Database maps [database].
type Database struct {
	Name     string `toml:"name" yaml:"name"`
	Platform string `toml:"platform" yaml:"platform"`
}

// Table maps [[tables]].
type Table struct {
	Name        string       `toml:"name" yaml:"name"`
	Comment     string       `toml:"comment" yaml:"comment"`
	PrimaryKey  []string     `toml:"primary_key" yaml:"primary_key"`
	Columns     []Column     `toml:"columns" yaml:"columns"`
	Indexes     []Index      `toml:"indexes" yaml:"indexes"`
	ForeignKeys []ForeignKey `toml:"foreign_keys" yaml:"foreign_keys"`
	Options     Options      `toml:"options" yaml:"options"`
	Timestamps  *Timestamps  `toml:"timestamps" yaml:"timestamps"`
}

// Timestamps maps [tables.timestamps]. When enabled, created and updated
// columns are appended to the table.
type Timestamps struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	CreatedColumn string `toml:"created_column" yaml:"created_column"`
	UpdatedColumn string `toml:"updated_column" yaml:"updated_column"`
}

// Column maps [[tables.columns]].
type Column struct {
	Name          string `toml:"name" yaml:"name"`
	Type          string `toml:"type" yaml:"type"`
	Length        int    `toml:"length" yaml:"length"`
	Precision     int    `toml:"precision" yaml:"precision"`
	Scale         int    `toml:"scale" yaml:"scale"`
	Fixed         bool   `toml:"fixed" yaml:"fixed"`
	Unsigned      bool   `toml:"unsigned" yaml:"unsigned"`
	Nullable      bool   `toml:"nullable" yaml:"nullable"`
	AutoIncrement bool   `toml:"auto_increment" yaml:"auto_increment"`
	PrimaryKey    bool   `toml:"primary_key" yaml:"primary_key"`
	Unique        bool   `toml:"unique" yaml:"unique"`
	Comment       string `toml:"comment" yaml:"comment"`
	Charset       string `toml:"charset" yaml:"charset"`
	Collation     string `toml:"collation" yaml:"collation"`

	// Default accepts a string, a bool or a number.
	Default any `toml:"default" yaml:"default"`

	// OnUpdate is the column ON UPDATE expression unless References is set,
	// in which case it is the referential action of the inline foreign key.
	OnUpdate   string `toml:"on_update" yaml:"on_update"`
	OnDelete   string `toml:"on_delete" yaml:"on_delete"`
	References string `toml:"references" yaml:"references"`
}

// Index maps [[tables.indexes]].
type Index struct {
	Name    string            `toml:"name" yaml:"name"`
	Columns []string          `toml:"columns" yaml:"columns"`
	Lengths []int             `toml:"lengths" yaml:"lengths"`
	Orders  []string          `toml:"orders" yaml:"orders"`
	Unique  bool              `toml:"unique" yaml:"unique"`
	Flags   []string          `toml:"flags" yaml:"flags"`
	Options map[string]string `toml:"options" yaml:"options"`
}

// ForeignKey maps [[tables.foreign_keys]].
type ForeignKey struct {
	Name              string   `toml:"name" yaml:"name"`
	Columns           []string `toml:"columns" yaml:"columns"`
	ReferencedTable   string   `toml:"referenced_table" yaml:"referenced_table"`
	ReferencedColumns []string `toml:"referenced_columns" yaml:"referenced_columns"`
	OnDelete          string   `toml:"on_delete" yaml:"on_delete"`
	OnUpdate          string   `toml:"on_update" yaml:"on_update"`
}

// Options maps [tables.options].
type Options struct {
	Engine        string            `toml:"engine" yaml:"engine"`
	Charset       string            `toml:"charset" yaml:"charset"`
	Collation     string            `toml:"collation" yaml:"collation"`
	AutoIncrement uint64            `toml:"auto_increment" yaml:"auto_increment"`
	CreateOptions map[string]string `toml:"create_options" yaml:"create_options"`
}
