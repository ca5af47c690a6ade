package document

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

const (
	defaultCreatedColumn = "created_at"
	defaultUpdatedColumn = "updated_at"
)

// Convert resolves the document against reg and returns the snapshot.
func (d *Document) Convert(reg *core.TypeRegistry) (*core.Database, error) {
	c := &converter{reg: reg}
	if d.Database.Platform != "" {
		if _, err := platform.Get(d.Database.Platform); err != nil {
			return nil, err
		}
		c.platform = platform.Canonical(d.Database.Platform)
	}

	db := &core.Database{
		Name:     d.Database.Name,
		Platform: c.platform,
		Tables:   make([]*core.Table, 0, len(d.Tables)),
	}
	for i := range d.Tables {
		t, err := c.convertTable(&d.Tables[i])
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", d.Tables[i].Name, err)
		}
		db.Tables = append(db.Tables, t)
	}
	return db, nil
}

type converter struct {
	reg      *core.TypeRegistry
	platform string
}

func (c *converter) convertTable(dt *Table) (*core.Table, error) {
	if strings.TrimSpace(dt.Name) == "" {
		return nil, errors.New("table name is empty")
	}

	t := &core.Table{
		Name: dt.Name,
		Options: core.TableOptions{
			Engine:        dt.Options.Engine,
			Charset:       dt.Options.Charset,
			Collation:     dt.Options.Collation,
			Comment:       dt.Comment,
			AutoIncrement: dt.Options.AutoIncrement,
			CreateOptions: dt.Options.CreateOptions,
		},
	}

	pkColumns := append([]string(nil), dt.PrimaryKey...)
	for i := range dt.Columns {
		dc := &dt.Columns[i]
		col, err := c.convertColumn(dc)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", dc.Name, err)
		}
		t.Columns = append(t.Columns, col)

		if dc.PrimaryKey && !slices.ContainsFunc(pkColumns, func(s string) bool { return strings.EqualFold(s, dc.Name) }) {
			pkColumns = append(pkColumns, dc.Name)
		}
		if dc.Unique {
			t.Indexes = append(t.Indexes, &core.Index{Unique: true, Columns: []core.IndexColumn{{Name: dc.Name}}})
		}
		if dc.References != "" {
			fk, err := inlineForeignKey(dc)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", dc.Name, err)
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}

	if dt.Timestamps != nil && dt.Timestamps.Enabled {
		if err := c.addTimestamps(t, dt.Timestamps); err != nil {
			return nil, err
		}
	}

	if len(pkColumns) > 0 {
		pk := &core.Index{Name: "PRIMARY", Primary: true}
		for _, name := range pkColumns {
			pk.Columns = append(pk.Columns, core.IndexColumn{Name: name})
		}
		t.Indexes = append([]*core.Index{pk}, t.Indexes...)
	}

	for i := range dt.Indexes {
		idx, err := convertIndex(&dt.Indexes[i])
		if err != nil {
			return nil, err
		}
		t.Indexes = append(t.Indexes, idx)
	}

	for i := range dt.ForeignKeys {
		df := &dt.ForeignKeys[i]
		t.ForeignKeys = append(t.ForeignKeys, &core.ForeignKey{
			Name:              df.Name,
			Columns:           df.Columns,
			ReferencedTable:   df.ReferencedTable,
			ReferencedColumns: df.ReferencedColumns,
			OnDelete:          referentialAction(df.OnDelete),
			OnUpdate:          referentialAction(df.OnUpdate),
		})
	}

	return t, nil
}

func (c *converter) convertColumn(dc *Column) (*core.Column, error) {
	if strings.TrimSpace(dc.Name) == "" {
		return nil, errors.New("column name is empty")
	}
	col, err := c.resolveType(dc.Name, dc.Type)
	if err != nil {
		return nil, err
	}

	if dc.Length > 0 {
		col.Length = dc.Length
	}
	if dc.Precision > 0 {
		col.Precision = dc.Precision
	}
	if dc.Scale > 0 {
		col.Scale = dc.Scale
	}
	col.Fixed = col.Fixed || dc.Fixed
	col.Unsigned = col.Unsigned || dc.Unsigned
	col.Nullable = dc.Nullable && !dc.PrimaryKey
	col.AutoIncrement = dc.AutoIncrement
	col.Comment = dc.Comment
	col.Charset = dc.Charset
	col.Collation = dc.Collation

	if col.Default, err = formatDefault(dc.Default); err != nil {
		return nil, err
	}
	if dc.References == "" && dc.OnUpdate != "" {
		col.OnUpdate = core.Ptr(dc.OnUpdate)
	}
	return col, nil
}

// resolveType looks the type up by registered name first and falls back to a
// raw declaration of the document platform.
func (c *converter) resolveType(name, typ string) (*core.Column, error) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return nil, errors.New("type is empty")
	}
	if _, ok := c.reg.Lookup(typ); ok {
		return c.reg.NewColumn(name, typ)
	}
	if c.platform == "" {
		return nil, &core.UnknownTypeError{Type: typ}
	}
	return c.reg.ColumnFromRaw(c.platform, name, typ)
}

func (c *converter) addTimestamps(t *core.Table, ts *Timestamps) error {
	created := cmp.Or(strings.TrimSpace(ts.CreatedColumn), defaultCreatedColumn)
	updated := cmp.Or(strings.TrimSpace(ts.UpdatedColumn), defaultUpdatedColumn)

	for _, name := range []string{created, updated} {
		if t.FindColumn(name) != nil {
			return fmt.Errorf("timestamps: column %q already exists", name)
		}
		col, err := c.reg.NewColumn(name, string(core.DataTypeDateTime))
		if err != nil {
			return err
		}
		col.Default = core.Ptr(platform.CurrentTimestamp)
		if name == updated {
			col.OnUpdate = core.Ptr(platform.CurrentTimestamp)
		}
		t.Columns = append(t.Columns, col)
	}
	return nil
}

func convertIndex(di *Index) (*core.Index, error) {
	if len(di.Columns) == 0 {
		name := di.Name
		if name == "" {
			name = "(unnamed)"
		}
		return nil, fmt.Errorf("index %s has no columns", name)
	}
	if len(di.Lengths) > len(di.Columns) || len(di.Orders) > len(di.Columns) {
		return nil, fmt.Errorf("index %s: more lengths or orders than columns", di.Name)
	}

	idx := &core.Index{Name: di.Name, Unique: di.Unique, Options: di.Options}
	for i, name := range di.Columns {
		ic := core.IndexColumn{Name: name}
		if i < len(di.Lengths) {
			ic.Length = di.Lengths[i]
		}
		if i < len(di.Orders) {
			ic.Order = core.SortOrder(strings.ToUpper(di.Orders[i]))
		}
		idx.Columns = append(idx.Columns, ic)
	}
	for _, f := range di.Flags {
		idx.Flags = append(idx.Flags, core.IndexFlag(strings.ToLower(f)))
	}
	return idx, nil
}

func inlineForeignKey(dc *Column) (*core.ForeignKey, error) {
	table, column, ok := parseReferences(dc.References)
	if !ok {
		return nil, fmt.Errorf("invalid references %q: expected format \"table.column\"", dc.References)
	}
	return &core.ForeignKey{
		Columns:           []string{dc.Name},
		ReferencedTable:   table,
		ReferencedColumns: []string{column},
		OnDelete:          referentialAction(dc.OnDelete),
		OnUpdate:          referentialAction(dc.OnUpdate),
	}, nil
}

func parseReferences(ref string) (table, column string, ok bool) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return strings.TrimSpace(ref[:i]), strings.TrimSpace(ref[i+1:]), true
}

func referentialAction(s string) core.ReferentialAction {
	return core.ReferentialAction(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
}

func formatDefault(v any) (*string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &val, nil
	case bool:
		if val {
			return core.Ptr("1"), nil
		}
		return core.Ptr("0"), nil
	case int:
		return core.Ptr(strconv.Itoa(val)), nil
	case int64:
		return core.Ptr(strconv.FormatInt(val, 10)), nil
	case uint64:
		return core.Ptr(strconv.FormatUint(val, 10)), nil
	case float64:
		return core.Ptr(strconv.FormatFloat(val, 'f', -1, 64)), nil
	}
	return nil, fmt.Errorf("unsupported default value type %T", v)
}
