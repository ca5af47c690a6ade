// Package diff compares schema snapshots and reports the changes needed to
// turn the current state into the desired state. Every comparison goes
// through a normalize.Normalizer, so that representations a platform treats
// as equivalent never show up as changes.
package diff

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/normalize"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

const (
	// renameDetectionScoreThreshold is the minimum similarity score for a
	// dropped+added column pair to count as a rename. See similarityScore for
	// the weights; the threshold tolerates at most two minor mismatches.
	renameDetectionScoreThreshold = 12

	// renameSharedTokenMinLen is the minimum length of a shared name token
	// (e.g. "user" in "user_id" and "user_name") accepted as rename evidence.
	renameSharedTokenMinLen = 3
)

// SchemaDiff holds the differences between two databases.
type SchemaDiff struct {
	Warnings       []string      `json:"warnings,omitempty"`
	AddedTables    []*core.Table `json:"addedTables,omitempty"`
	DroppedTables  []*core.Table `json:"droppedTables,omitempty"`
	ModifiedTables []*TableDiff  `json:"modifiedTables,omitempty"`
}

// TableDiff holds the differences between two versions of one table. Both
// versions are kept so that DDL can be generated without further lookups.
type TableDiff struct {
	Name     string      `json:"name"`
	Current  *core.Table `json:"-"`
	Desired  *core.Table `json:"-"`
	Warnings []string    `json:"warnings,omitempty"`

	AddedColumns    []*core.Column  `json:"addedColumns,omitempty"`
	DroppedColumns  []*core.Column  `json:"droppedColumns,omitempty"`
	ModifiedColumns []*ColumnChange `json:"modifiedColumns,omitempty"`
	RenamedColumns  []*ColumnRename `json:"renamedColumns,omitempty"`

	AddedIndexes    []*core.Index  `json:"addedIndexes,omitempty"`
	DroppedIndexes  []*core.Index  `json:"droppedIndexes,omitempty"`
	ModifiedIndexes []*IndexChange `json:"modifiedIndexes,omitempty"`
	RenamedIndexes  []*IndexRename `json:"renamedIndexes,omitempty"`

	PrimaryKey *PrimaryKeyChange `json:"primaryKey,omitempty"`

	AddedForeignKeys    []*core.ForeignKey  `json:"addedForeignKeys,omitempty"`
	DroppedForeignKeys  []*core.ForeignKey  `json:"droppedForeignKeys,omitempty"`
	ModifiedForeignKeys []*ForeignKeyChange `json:"modifiedForeignKeys,omitempty"`

	ModifiedOptions []*TableOptionChange `json:"modifiedOptions,omitempty"`
}

// ColumnChange is a column present on both sides with different attributes.
type ColumnChange struct {
	Name    string         `json:"name"`
	Old     *core.Column   `json:"old"`
	New     *core.Column   `json:"new"`
	Changes []*FieldChange `json:"changes"`
}

// ColumnRename is a dropped column paired with an added one. Changes lists
// attribute differences besides the name.
type ColumnRename struct {
	Old     *core.Column   `json:"old"`
	New     *core.Column   `json:"new"`
	Score   int            `json:"score"`
	Changes []*FieldChange `json:"changes,omitempty"`
}

// IndexChange is an index present on both sides under the same name with a
// different definition.
type IndexChange struct {
	Name    string         `json:"name"`
	Old     *core.Index    `json:"old"`
	New     *core.Index    `json:"new"`
	Changes []*FieldChange `json:"changes"`
}

// IndexRename is an index whose definition is unchanged but whose name is.
type IndexRename struct {
	Old *core.Index `json:"old"`
	New *core.Index `json:"new"`
}

// PrimaryKeyChange describes an added, dropped or redefined primary key. Old
// or New is nil when the key is added or dropped. AutoIncrementColumns lists
// the autoincrement columns of the current key; they must lose the
// autoincrement attribute before the key can be dropped.
type PrimaryKeyChange struct {
	Old                  *core.Index `json:"old,omitempty"`
	New                  *core.Index `json:"new,omitempty"`
	AutoIncrementColumns []string    `json:"autoIncrementColumns,omitempty"`
}

// ForeignKeyChange is a foreign key matched on both sides with a different
// definition. RebuildOnly is set when the definition is unchanged but one of
// its local columns is modified, which requires dropping and recreating it on
// some platforms.
type ForeignKeyChange struct {
	Name          string           `json:"name"`
	Old           *core.ForeignKey `json:"old"`
	New           *core.ForeignKey `json:"new"`
	Changes       []*FieldChange   `json:"changes,omitempty"`
	RebuildOnly   bool             `json:"rebuildOnly,omitempty"`
	RebuildReason string           `json:"rebuildReason,omitempty"`
}

// FieldChange is a single attribute difference.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// TableOptionChange is a single table option difference. An empty side means
// the option is absent there.
type TableOptionChange struct {
	Name string `json:"name"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// GetName methods implement the Named interface for sorting.
func (td *TableDiff) GetName() string          { return td.Name }
func (cc *ColumnChange) GetName() string       { return cc.Name }
func (ic *IndexChange) GetName() string        { return ic.Name }
func (fc *ForeignKeyChange) GetName() string   { return fc.Name }
func (toc *TableOptionChange) GetName() string { return toc.Name }

// Options tune the comparator.
type Options struct {
	DetectColumnRenames bool
	DetectIndexRenames  bool
}

// DefaultOptions enables column and index rename detection.
func DefaultOptions() Options {
	return Options{DetectColumnRenames: true, DetectIndexRenames: true}
}

// Comparator compares snapshots for one platform. It holds no mutable state
// and is safe for concurrent use.
type Comparator struct {
	norm *normalize.Normalizer
	opts Options
	log  *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithOptions replaces the default options.
func WithOptions(o Options) Option {
	return func(c *Comparator) { c.opts = o }
}

// WithLogger sets the logger used for matching decisions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Comparator) {
		if l != nil {
			c.log = l
		}
	}
}

// NewComparator returns a comparator for platform p.
func NewComparator(p platform.Provider, opts ...Option) *Comparator {
	c := &Comparator{
		norm: normalize.New(p),
		opts: DefaultOptions(),
		log:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Platform returns the provider the comparator normalizes with.
func (c *Comparator) Platform() platform.Provider { return c.norm.Provider() }

// CompareSchemas compares two databases table by table. Tables are matched by
// name, case-insensitively. Only tables with differences are reported as
// modified.
func (c *Comparator) CompareSchemas(current, desired *core.Database) (*SchemaDiff, error) {
	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("current schema: %w", err)
	}
	if err := desired.Validate(); err != nil {
		return nil, fmt.Errorf("desired schema: %w", err)
	}

	d := &SchemaDiff{}
	for _, dt := range desired.Tables {
		ct := current.FindTable(dt.Name)
		if ct == nil {
			d.AddedTables = append(d.AddedTables, dt)
			continue
		}
		if ct.Name != dt.Name {
			d.Warnings = append(d.Warnings, fmt.Sprintf("case-insensitive name collision: %q vs %q", ct.Name, dt.Name))
		}
		td, err := c.CompareTables(ct, dt)
		if err != nil {
			return nil, err
		}
		if !td.IsEmpty() {
			d.ModifiedTables = append(d.ModifiedTables, td)
		}
	}
	for _, ct := range current.Tables {
		if desired.FindTable(ct.Name) == nil {
			d.DroppedTables = append(d.DroppedTables, ct)
		}
	}

	sortNamed(d.AddedTables)
	sortNamed(d.DroppedTables)
	sortNamed(d.ModifiedTables)
	return d, nil
}

// IsEmpty reports whether the databases are equivalent.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.AddedTables) == 0 && len(d.DroppedTables) == 0 && len(d.ModifiedTables) == 0
}

// Table returns the diff of the named table, or nil.
func (d *SchemaDiff) Table(name string) *TableDiff {
	for _, td := range d.ModifiedTables {
		if strings.EqualFold(td.Name, name) {
			return td
		}
	}
	return nil
}
