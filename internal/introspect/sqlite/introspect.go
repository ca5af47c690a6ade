// Package sqlite reads SQLite schemas through sqlite_master and the
// table-valued pragma functions, using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect"
)

func init() {
	introspect.Register(core.PlatformSQLite, New)
}

type introspecter struct {
	log *slog.Logger
}

// New returns a SQLite introspecter. A nil log discards output.
func New(log *slog.Logger) introspect.Introspecter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &introspecter{log: log}
}

type tableInfo struct {
	table *core.Table
	sql   string
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB, reg *core.TypeRegistry) (*core.Database, error) {
	d := &core.Database{Name: "main", Platform: core.PlatformSQLite, Tables: []*core.Table{}}

	rows, err := db.QueryContext(ctx, `
		SELECT name, COALESCE(sql, '')
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}
	var infos []tableInfo
	for rows.Next() {
		info := tableInfo{table: &core.Table{}}
		if err := rows.Scan(&info.table.Name, &info.sql); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: list tables: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}
	rows.Close()

	for _, info := range infos {
		t := info.table
		i.log.Debug("introspecting table", "table", t.Name)
		autoIncrement := strings.Contains(strings.ToUpper(info.sql), "AUTOINCREMENT")
		if err := introspectColumns(ctx, db, reg, t, autoIncrement); err != nil {
			return nil, fmt.Errorf("sqlite: table %q columns: %w", t.Name, err)
		}
		if err := introspectIndexes(ctx, db, t); err != nil {
			return nil, fmt.Errorf("sqlite: table %q indexes: %w", t.Name, err)
		}
		if err := introspectForeignKeys(ctx, db, t); err != nil {
			return nil, fmt.Errorf("sqlite: table %q foreign keys: %w", t.Name, err)
		}
		d.Tables = append(d.Tables, t)
	}
	return d, nil
}

func introspectColumns(ctx context.Context, db *sql.DB, reg *core.TypeRegistry, t *core.Table, autoIncrement bool) error {
	rows, err := db.QueryContext(ctx, `
		SELECT name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	type pkPart struct {
		name string
		pos  int
	}
	var pkParts []pkPart
	for rows.Next() {
		var name, typ string
		var notNull, pk int
		var defaultVal sql.NullString
		if err := rows.Scan(&name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return err
		}

		col, err := reg.ColumnFromRaw(core.PlatformSQLite, name, typ)
		if err != nil {
			return err
		}
		col.Nullable = notNull == 0 && pk == 0
		if defaultVal.Valid {
			v := defaultVal.String
			col.Default = &v
		}
		if pk > 0 {
			pkParts = append(pkParts, pkPart{name: name, pos: pk})
		}
		t.Columns = append(t.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(pkParts) == 0 {
		return nil
	}
	pk := &core.Index{Name: "PRIMARY", Primary: true, Columns: make([]core.IndexColumn, len(pkParts))}
	for _, p := range pkParts {
		pk.Columns[p.pos-1] = core.IndexColumn{Name: p.name}
	}
	t.Indexes = append(t.Indexes, pk)

	// Only a single INTEGER PRIMARY KEY column can carry AUTOINCREMENT.
	if autoIncrement && len(pkParts) == 1 {
		if col := t.FindColumn(pkParts[0].name); col != nil && col.Type.Category == core.DataTypeInteger {
			col.AutoIncrement = true
		}
	}
	return nil
}

func introspectIndexes(ctx context.Context, db *sql.DB, t *core.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT name, "unique", origin
		FROM pragma_index_list(?)
		ORDER BY name
	`, t.Name)
	if err != nil {
		return err
	}

	type listed struct {
		name   string
		unique bool
		origin string
	}
	var indexes []listed
	for rows.Next() {
		var l listed
		if err := rows.Scan(&l.name, &l.unique, &l.origin); err != nil {
			rows.Close()
			return err
		}
		indexes = append(indexes, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, l := range indexes {
		// The primary key was read from table_info.
		if l.origin == "pk" {
			continue
		}
		idx := &core.Index{Unique: l.unique}
		// Indexes backing UNIQUE constraints get generated names.
		if l.origin != "u" {
			idx.Name = l.name
		}
		if err := indexColumns(ctx, db, l.name, idx); err != nil {
			return err
		}
		t.Indexes = append(t.Indexes, idx)
	}
	return nil
}

func indexColumns(ctx context.Context, db *sql.DB, index string, idx *core.Index) error {
	rows, err := db.QueryContext(ctx, `
		SELECT name, "desc"
		FROM pragma_index_xinfo(?)
		WHERE "key" = 1
		ORDER BY seqno
	`, index)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name sql.NullString
		var desc bool
		if err := rows.Scan(&name, &desc); err != nil {
			return err
		}
		if !name.Valid {
			continue
		}
		part := core.IndexColumn{Name: name.String}
		if desc {
			part.Order = core.SortDesc
		}
		idx.Columns = append(idx.Columns, part)
	}
	return rows.Err()
}

func introspectForeignKeys(ctx context.Context, db *sql.DB, t *core.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT id, "table", "from", "to", on_update, on_delete
		FROM pragma_foreign_key_list(?)
		ORDER BY id, seq
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	var current *core.ForeignKey
	currentID := -1
	for rows.Next() {
		var id int
		var refTable, from, onUpdate, onDelete string
		var to sql.NullString
		if err := rows.Scan(&id, &refTable, &from, &to, &onUpdate, &onDelete); err != nil {
			return err
		}
		if current == nil || id != currentID {
			current = &core.ForeignKey{
				ReferencedTable: refTable,
				OnUpdate:        core.ReferentialAction(strings.ToUpper(onUpdate)),
				OnDelete:        core.ReferentialAction(strings.ToUpper(onDelete)),
			}
			currentID = id
			t.ForeignKeys = append(t.ForeignKeys, current)
		}
		current.Columns = append(current.Columns, from)
		current.ReferencedColumns = append(current.ReferencedColumns, to.String)
	}
	return rows.Err()
}
