// Package postgresql reads PostgreSQL schemas from information_schema and the
// pg_catalog. Both the lib/pq ("postgres") and pgx ("pgx") drivers are
// registered.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect"
)

func init() {
	introspect.Register(core.PlatformPostgreSQL, New)
}

type introspecter struct {
	log *slog.Logger
}

// New returns a PostgreSQL introspecter. A nil log discards output.
func New(log *slog.Logger) introspect.Introspecter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &introspecter{log: log}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB, reg *core.TypeRegistry) (*core.Database, error) {
	d := &core.Database{Platform: core.PlatformPostgreSQL, Tables: []*core.Table{}}
	if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&d.Name); err != nil {
		return nil, fmt.Errorf("postgresql: current database: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT c.relname, COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = current_schema() AND c.relkind IN ('r', 'p')
		ORDER BY c.relname
	`)
	if err != nil {
		return nil, fmt.Errorf("postgresql: list tables: %w", err)
	}
	for rows.Next() {
		t := &core.Table{}
		if err := rows.Scan(&t.Name, &t.Options.Comment); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgresql: list tables: %w", err)
		}
		d.Tables = append(d.Tables, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("postgresql: list tables: %w", err)
	}
	rows.Close()

	for _, t := range d.Tables {
		i.log.Debug("introspecting table", "table", t.Name)
		if err := introspectColumns(ctx, db, reg, t); err != nil {
			return nil, fmt.Errorf("postgresql: table %q columns: %w", t.Name, err)
		}
		if err := introspectIndexes(ctx, db, t); err != nil {
			return nil, fmt.Errorf("postgresql: table %q indexes: %w", t.Name, err)
		}
		if err := introspectForeignKeys(ctx, db, t); err != nil {
			return nil, fmt.Errorf("postgresql: table %q foreign keys: %w", t.Name, err)
		}
	}
	return d, nil
}

func introspectColumns(ctx context.Context, db *sql.DB, reg *core.TypeRegistry, t *core.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_nullable,
			c.column_default,
			c.collation_name,
			COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int), '')
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r columnRow
		if err := rows.Scan(&r.name, &r.dataType, &r.length, &r.precision, &r.scale, &r.nullable, &r.defaultVal, &r.collation, &r.comment); err != nil {
			return err
		}
		col, err := r.column(reg)
		if err != nil {
			return err
		}
		t.Columns = append(t.Columns, col)
	}
	return rows.Err()
}

// columnRow is one row of information_schema.columns.
type columnRow struct {
	name, dataType, nullable, comment string
	length, precision, scale          sql.NullInt64
	defaultVal, collation             sql.NullString
}

// column maps the row to a column. A nextval() default marks a serial column.
func (r columnRow) column(reg *core.TypeRegistry) (*core.Column, error) {
	col, err := reg.ColumnFromRaw(core.PlatformPostgreSQL, r.name, rawType(r.dataType, r.length, r.precision, r.scale))
	if err != nil {
		return nil, err
	}
	col.Nullable = r.nullable == "YES"
	col.Comment = r.comment
	col.Collation = r.collation.String

	if r.defaultVal.Valid {
		if strings.HasPrefix(r.defaultVal.String, "nextval(") {
			col.AutoIncrement = true
		} else {
			v := r.defaultVal.String
			col.Default = &v
		}
	}
	return col, nil
}

func rawType(dataType string, length, precision, scale sql.NullInt64) string {
	switch {
	case length.Valid:
		return dataType + "(" + strconv.FormatInt(length.Int64, 10) + ")"
	case dataType == "numeric" && precision.Valid:
		return dataType + "(" + strconv.FormatInt(precision.Int64, 10) + "," + strconv.FormatInt(scale.Int64, 10) + ")"
	}
	return dataType
}

func introspectIndexes(ctx context.Context, db *sql.DB, t *core.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			ic.relname,
			ix.indisprimary,
			ix.indisunique,
			a.attname,
			(ix.indoption[k.ord - 1] & 1) = 1,
			COALESCE(pg_get_expr(ix.indpred, ix.indrelid), '')
		FROM pg_index ix
		JOIN pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = tc.relnamespace
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = tc.oid AND a.attnum = k.attnum
		WHERE n.nspname = current_schema() AND tc.relname = $1
		ORDER BY ic.relname, k.ord
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := make(map[string]*core.Index)
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.name, &r.primary, &r.unique, &r.column, &r.desc, &r.where); err != nil {
			return err
		}
		addIndexRow(t, byName, r)
	}
	return rows.Err()
}

// indexRow is one indexed column. Rows of an index arrive in key order.
type indexRow struct {
	name, column, where   string
	primary, unique, desc bool
}

func addIndexRow(t *core.Table, byName map[string]*core.Index, r indexRow) {
	idx, ok := byName[r.name]
	if !ok {
		idx = &core.Index{Name: r.name, Primary: r.primary, Unique: r.unique && !r.primary}
		if r.where != "" {
			idx.Options = map[string]string{"where": r.where}
		}
		byName[r.name] = idx
		t.Indexes = append(t.Indexes, idx)
	}
	part := core.IndexColumn{Name: r.column}
	if r.desc {
		part.Order = core.SortDesc
	}
	idx.Columns = append(idx.Columns, part)
}

func introspectForeignKeys(ctx context.Context, db *sql.DB, t *core.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			con.conname,
			a.attname,
			rt.relname,
			ra.attname,
			con.confupdtype,
			con.confdeltype
		FROM pg_constraint con
		JOIN pg_class tc ON tc.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = tc.relnamespace
		JOIN pg_class rt ON rt.oid = con.confrelid
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refattnum, ord)
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refattnum
		WHERE con.contype = 'f' AND n.nspname = current_schema() AND tc.relname = $1
		ORDER BY con.conname, k.ord
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	var current *core.ForeignKey
	for rows.Next() {
		var r foreignKeyRow
		if err := rows.Scan(&r.name, &r.column, &r.refTable, &r.refColumn, &r.onUpdate, &r.onDelete); err != nil {
			return err
		}
		current = addForeignKeyRow(t, current, r)
	}
	return rows.Err()
}

// foreignKeyRow is one column pair of a constraint, ordered by constraint
// name and key position.
type foreignKeyRow struct {
	name, column, refTable, refColumn string
	onUpdate, onDelete                string
}

// addForeignKeyRow appends r to current, or to a new key on t when r starts
// another constraint. It returns the key r was added to.
func addForeignKeyRow(t *core.Table, current *core.ForeignKey, r foreignKeyRow) *core.ForeignKey {
	if current == nil || current.Name != r.name {
		current = &core.ForeignKey{
			Name:            r.name,
			ReferencedTable: r.refTable,
			OnUpdate:        actionFromCode(r.onUpdate),
			OnDelete:        actionFromCode(r.onDelete),
		}
		t.ForeignKeys = append(t.ForeignKeys, current)
	}
	current.Columns = append(current.Columns, r.column)
	current.ReferencedColumns = append(current.ReferencedColumns, r.refColumn)
	return current
}

// actionFromCode decodes pg_constraint.confupdtype and confdeltype.
func actionFromCode(code string) core.ReferentialAction {
	switch code {
	case "r":
		return core.ActionRestrict
	case "c":
		return core.ActionCascade
	case "n":
		return core.ActionSetNull
	case "d":
		return core.ActionSetDefault
	default:
		return core.ActionNoAction
	}
}
