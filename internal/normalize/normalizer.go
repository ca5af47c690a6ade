// Package normalize turns schema snapshots into canonical, directly
// comparable forms. Everything a platform treats as equivalent (synonymous
// default expressions, lengths within one storage tier, collations inherited
// from the table, options the server fills in on its own) collapses to the
// same value here, so that the comparator can use plain equality.
//
// A Normalizer never mutates its inputs.
package normalize

import (
	"slices"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

// Column is the canonical comparable form of a column.
type Column struct {
	Name          string
	Type          platform.ColumnType
	Nullable      bool
	Default       *string
	AutoIncrement bool
	Charset       string
	Collation     string
	Comment       string
	OnUpdate      *string
}

// Index is the canonical comparable form of an index. The name is not part of
// it.
type Index struct {
	Columns []IndexColumn
	Primary bool
	Unique  bool
	Flags   []string
	Options map[string]string
}

// IndexColumn is a canonical index column.
type IndexColumn struct {
	Name   string
	Length int
	Desc   bool
}

// Equal reports whether two indexes are structurally identical.
func (i Index) Equal(o Index) bool {
	return i.Unique == o.Unique &&
		i.Primary == o.Primary &&
		slices.Equal(i.Columns, o.Columns) &&
		slices.Equal(i.Flags, o.Flags) &&
		mapsEqual(i.Options, o.Options)
}

// ColumnNames returns the lower-cased column names in order.
func (i Index) ColumnNames() []string {
	out := make([]string, len(i.Columns))
	for k, c := range i.Columns {
		out[k] = c.Name
	}
	return out
}

// Normalizer produces canonical forms for one platform.
type Normalizer struct {
	p        platform.Provider
	features platform.Features
	synonyms map[string]string
}

// New returns a normalizer backed by provider p.
func New(p platform.Provider) *Normalizer {
	return &Normalizer{p: p, features: p.Features(), synonyms: p.DefaultSynonyms()}
}

// Provider returns the capability provider the normalizer was built with.
func (n *Normalizer) Provider() platform.Provider { return n.p }

// Column returns the canonical form of col as a member of table t.
func (n *Normalizer) Column(t *core.Table, col *core.Column) Column {
	out := Column{
		Name:          col.Name,
		Type:          n.p.ColumnType(col),
		Nullable:      col.Nullable,
		Default:       n.Default(col),
		AutoIncrement: col.AutoIncrement,
		OnUpdate:      n.expression(col.OnUpdate),
	}
	if n.features.ColumnComment {
		out.Comment = col.Comment
	}
	out.Charset, out.Collation = n.ColumnCharset(t, col)
	return out
}

// Default returns the canonical default of col, or nil when the column has no
// default the platform would store.
func (n *Normalizer) Default(col *core.Column) *string {
	if col.Default == nil || col.AutoIncrement || !n.p.SupportsDefault(col) {
		return nil
	}
	v, ok := n.p.UnwrapDefault(*col.Default)
	if !ok {
		return nil
	}
	if token, ok := n.synonyms[strings.ToLower(strings.TrimSpace(v))]; ok {
		return &token
	}

	switch {
	case col.Type.Category.IsNumeric():
		if num, ok := canonicalNumber(v); ok {
			return &num
		}
	case col.Type.Category == core.DataTypeBoolean:
		if b, ok := canonicalBool(v); ok {
			return &b
		}
	}
	return &v
}

// expression canonicalizes a stored expression such as ON UPDATE.
func (n *Normalizer) expression(e *string) *string {
	if e == nil {
		return nil
	}
	v := strings.TrimSpace(*e)
	if v == "" {
		return nil
	}
	if token, ok := n.synonyms[strings.ToLower(v)]; ok {
		return &token
	}
	return &v
}

// IndexColumns returns the canonical form of idx.
func (n *Normalizer) IndexColumns(idx *core.Index) Index {
	out := Index{
		Columns: make([]IndexColumn, len(idx.Columns)),
		Primary: idx.Primary,
		Unique:  idx.Unique || idx.Primary,
	}
	for i, c := range idx.Columns {
		ic := IndexColumn{
			Name: strings.ToLower(strings.TrimSpace(c.Name)),
			Desc: strings.EqualFold(string(c.Order), string(core.SortDesc)),
		}
		if n.features.IndexLengths {
			ic.Length = c.Length
		}
		out.Columns[i] = ic
	}
	for _, f := range idx.Flags {
		out.Flags = append(out.Flags, strings.ToLower(string(f)))
	}
	slices.Sort(out.Flags)
	out.Flags = slices.Compact(out.Flags)
	if len(idx.Options) > 0 {
		out.Options = make(map[string]string, len(idx.Options))
		for k, v := range idx.Options {
			if v = strings.TrimSpace(v); v != "" {
				out.Options[strings.ToLower(k)] = v
			}
		}
	}
	return out
}

// ReferentialAction returns the canonical action for the platform.
func (n *Normalizer) ReferentialAction(a core.ReferentialAction) core.ReferentialAction {
	return n.p.ReferentialAction(a)
}

// ImplicitOption reports whether value is what the platform reports for the
// table option key when nobody set it.
func (n *Normalizer) ImplicitOption(key, value string) bool {
	return n.p.ImplicitTableOption(key, value)
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
