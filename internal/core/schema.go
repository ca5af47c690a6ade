// Package core contains the snapshot model shared by every other package.
// It provides a structured representation of tables, columns, indexes and
// foreign keys as they are introspected from a live database or authored by
// an application, independent of any particular platform.
package core

import (
	"maps"
	"slices"
	"strings"
)

// Database is a named set of tables belonging to a single platform.
type Database struct {
	Name     string   `json:"name"`
	Platform string   `json:"platform,omitempty"`
	Tables   []*Table `json:"tables"`
}

// Table is a snapshot of one table. The order of columns, indexes and foreign
// keys is irrelevant for comparison.
type Table struct {
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns"`
	Indexes     []*Index      `json:"indexes,omitempty"`
	ForeignKeys []*ForeignKey `json:"foreignKeys,omitempty"`
	Options     TableOptions  `json:"options"`
}

// TableOptions holds table-level options. Empty strings and zero values mean
// the option was not specified.
type TableOptions struct {
	Engine        string `json:"engine,omitempty"`
	Charset       string `json:"charset,omitempty"`
	Collation     string `json:"collation,omitempty"`
	Comment       string `json:"comment,omitempty"`
	AutoIncrement uint64 `json:"autoIncrement,omitempty"`

	// CreateOptions carries free-form platform options such as row_format or
	// partitioned, keyed by lower-case option name.
	CreateOptions map[string]string `json:"createOptions,omitempty"`
}

// Column represents a column in a table.
type Column struct {
	Name string         `json:"name"`
	Type TypeDescriptor `json:"type"`

	// Length is meaningful for string, text, blob and binary types; 0 means unset.
	Length    int  `json:"length,omitempty"`
	Precision int  `json:"precision,omitempty"`
	Scale     int  `json:"scale,omitempty"`
	Fixed     bool `json:"fixed,omitempty"`
	Unsigned  bool `json:"unsigned,omitempty"`

	Nullable      bool    `json:"nullable"`
	Default       *string `json:"default,omitempty"`
	AutoIncrement bool    `json:"autoIncrement,omitempty"`
	Comment       string  `json:"comment,omitempty"`

	// Charset and Collation fall back to the table defaults when empty.
	Charset   string `json:"charset,omitempty"`
	Collation string `json:"collation,omitempty"`

	// OnUpdate is the MySQL ON UPDATE expression, e.g. CURRENT_TIMESTAMP.
	OnUpdate *string `json:"onUpdate,omitempty"`
}

// IndexFlag is a platform-specific index modifier.
type IndexFlag string

const (
	IndexFlagFulltext     IndexFlag = "fulltext"
	IndexFlagSpatial      IndexFlag = "spatial"
	IndexFlagClustered    IndexFlag = "clustered"
	IndexFlagNonClustered IndexFlag = "nonclustered"
)

// SortOrder is the direction of an index column.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Index represents an index. The primary key is an index with Primary set.
type Index struct {
	Name    string            `json:"name,omitempty"`
	Columns []IndexColumn     `json:"columns"`
	Primary bool              `json:"primary,omitempty"`
	Unique  bool              `json:"unique,omitempty"`
	Flags   []IndexFlag       `json:"flags,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// IndexColumn is one column of an index. Length is the key prefix length,
// 0 meaning the full column.
type IndexColumn struct {
	Name   string    `json:"name"`
	Length int       `json:"length,omitempty"`
	Order  SortOrder `json:"order,omitempty"`
}

// ReferentialAction is the action taken on the referencing rows of a foreign key.
type ReferentialAction string

const (
	ActionNoAction   ReferentialAction = "NO ACTION"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionCascade    ReferentialAction = "CASCADE"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// ForeignKey represents a foreign key constraint. Name is optional.
type ForeignKey struct {
	Name              string            `json:"name,omitempty"`
	Columns           []string          `json:"columns"`
	ReferencedTable   string            `json:"referencedTable"`
	ReferencedColumns []string          `json:"referencedColumns"`
	OnDelete          ReferentialAction `json:"onDelete,omitempty"`
	OnUpdate          ReferentialAction `json:"onUpdate,omitempty"`
}

// GetName methods implement the Named interface used for sorting.
func (t *Table) GetName() string      { return t.Name }
func (c *Column) GetName() string     { return c.Name }
func (i *Index) GetName() string      { return i.Name }
func (f *ForeignKey) GetName() string { return f.Name }

// FindTable returns the table with the given name (case-insensitive) or nil.
func (db *Database) FindTable(name string) *Table {
	for _, t := range db.Tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// FindColumn returns the column with the given name (case-insensitive) or nil.
func (t *Table) FindColumn(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// FindIndex returns the index with the given name (case-insensitive) or nil.
func (t *Table) FindIndex(name string) *Index {
	for _, i := range t.Indexes {
		if strings.EqualFold(i.Name, name) {
			return i
		}
	}
	return nil
}

// FindForeignKey returns the foreign key with the given name (case-insensitive) or nil.
func (t *Table) FindForeignKey(name string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if strings.EqualFold(fk.Name, name) {
			return fk
		}
	}
	return nil
}

// PrimaryKey returns the primary key index of the table or nil.
func (t *Table) PrimaryKey() *Index {
	for _, i := range t.Indexes {
		if i.Primary {
			return i
		}
	}
	return nil
}

// ColumnNames returns the names of the index columns in order.
func (i *Index) ColumnNames() []string {
	names := make([]string, len(i.Columns))
	for n, c := range i.Columns {
		names[n] = c.Name
	}
	return names
}

// HasFlag reports whether the index carries the given flag.
func (i *Index) HasFlag(f IndexFlag) bool {
	for _, have := range i.Flags {
		if strings.EqualFold(string(have), string(f)) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the database.
func (db *Database) Clone() *Database {
	if db == nil {
		return nil
	}
	return &Database{Name: db.Name, Platform: db.Platform, Tables: cloneAll(db.Tables)}
}

// Clone returns a deep copy of the table. Snapshots handed to the comparator
// must not be mutated, so callers that want to alter one clone it first.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Name:        t.Name,
		Columns:     cloneAll(t.Columns),
		Indexes:     cloneAll(t.Indexes),
		ForeignKeys: cloneAll(t.ForeignKeys),
		Options:     t.Options,
	}
	out.Options.CreateOptions = maps.Clone(t.Options.CreateOptions)
	return out
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	if c == nil {
		return nil
	}
	out := *c
	out.Default = clonePtr(c.Default)
	out.OnUpdate = clonePtr(c.OnUpdate)
	return &out
}

// Clone returns a deep copy of the index.
func (i *Index) Clone() *Index {
	if i == nil {
		return nil
	}
	out := *i
	out.Columns = slices.Clone(i.Columns)
	out.Flags = slices.Clone(i.Flags)
	out.Options = maps.Clone(i.Options)
	return &out
}

// Clone returns a deep copy of the foreign key.
func (f *ForeignKey) Clone() *ForeignKey {
	if f == nil {
		return nil
	}
	out := *f
	out.Columns = slices.Clone(f.Columns)
	out.ReferencedColumns = slices.Clone(f.ReferencedColumns)
	return &out
}

// cloneAll deep-copies every element of s. A nil slice stays nil and an
// empty one stays empty.
func cloneAll[T interface{ Clone() T }](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	for i, v := range s {
		out[i] = v.Clone()
	}
	return out
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to s. It is a convenience for building defaults.
func Ptr(s string) *string {
	return &s
}
