// Package sqlserver reads SQL Server schemas from the sys catalog views of
// the default schema.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect"
)

func init() {
	introspect.Register(core.PlatformSQLServer, New)
}

type introspecter struct {
	log *slog.Logger
}

// New returns a SQL Server introspecter. A nil log discards output.
func New(log *slog.Logger) introspect.Introspecter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &introspecter{log: log}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB, reg *core.TypeRegistry) (*core.Database, error) {
	d := &core.Database{Platform: core.PlatformSQLServer, Tables: []*core.Table{}}
	if err := db.QueryRowContext(ctx, "SELECT DB_NAME()").Scan(&d.Name); err != nil {
		return nil, fmt.Errorf("sqlserver: current database: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT t.name, COALESCE(CAST(ep.value AS NVARCHAR(4000)), '')
		FROM sys.tables t
		LEFT JOIN sys.extended_properties ep
			ON ep.major_id = t.object_id AND ep.minor_id = 0 AND ep.class = 1 AND ep.name = 'MS_Description'
		WHERE t.schema_id = SCHEMA_ID()
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlserver: list tables: %w", err)
	}
	for rows.Next() {
		t := &core.Table{}
		if err := rows.Scan(&t.Name, &t.Options.Comment); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlserver: list tables: %w", err)
		}
		d.Tables = append(d.Tables, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlserver: list tables: %w", err)
	}
	rows.Close()

	for _, t := range d.Tables {
		i.log.Debug("introspecting table", "table", t.Name)
		if err := introspectColumns(ctx, db, reg, t); err != nil {
			return nil, fmt.Errorf("sqlserver: table %q columns: %w", t.Name, err)
		}
		if err := introspectIndexes(ctx, db, t); err != nil {
			return nil, fmt.Errorf("sqlserver: table %q indexes: %w", t.Name, err)
		}
		if err := introspectForeignKeys(ctx, db, t); err != nil {
			return nil, fmt.Errorf("sqlserver: table %q foreign keys: %w", t.Name, err)
		}
	}
	return d, nil
}

func introspectColumns(ctx context.Context, db *sql.DB, reg *core.TypeRegistry, t *core.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			c.name,
			ty.name,
			c.max_length,
			c.precision,
			c.scale,
			c.is_nullable,
			c.is_identity,
			dc.definition,
			c.collation_name,
			COALESCE(CAST(ep.value AS NVARCHAR(4000)), '')
		FROM sys.columns c
		JOIN sys.types ty ON ty.user_type_id = c.user_type_id
		LEFT JOIN sys.default_constraints dc ON dc.object_id = c.default_object_id
		LEFT JOIN sys.extended_properties ep
			ON ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.class = 1 AND ep.name = 'MS_Description'
		WHERE c.object_id = OBJECT_ID(@p1)
		ORDER BY c.column_id
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r columnRow
		if err := rows.Scan(&r.name, &r.typeName, &r.maxLength, &r.precision, &r.scale, &r.nullable, &r.identity, &r.defaultVal, &r.collation, &r.comment); err != nil {
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

// columnRow is one row of sys.columns joined with its type, default and
// description.
type columnRow struct {
	name, typeName, comment     string
	maxLength, precision, scale int
	nullable, identity          bool
	defaultVal, collation       sql.NullString
}

func (r columnRow) column(reg *core.TypeRegistry) (*core.Column, error) {
	col, err := reg.ColumnFromRaw(core.PlatformSQLServer, r.name, rawType(r.typeName, r.maxLength, r.precision, r.scale))
	if err != nil {
		return nil, err
	}
	col.Nullable = r.nullable
	col.AutoIncrement = r.identity
	col.Comment = r.comment
	col.Collation = r.collation.String
	if r.defaultVal.Valid {
		v := r.defaultVal.String
		col.Default = &v
	}
	return col, nil
}

// rawType rebuilds a declaration from sys.columns. max_length is in bytes
// and -1 stands for MAX.
func rawType(typeName string, maxLength, precision, scale int) string {
	typeName = strings.ToLower(typeName)
	switch typeName {
	case "varchar", "char", "varbinary", "binary", "nvarchar", "nchar":
		if maxLength == -1 {
			return typeName + "(max)"
		}
		if typeName == "nvarchar" || typeName == "nchar" {
			maxLength /= 2
		}
		return typeName + "(" + strconv.Itoa(maxLength) + ")"
	case "decimal", "numeric":
		return typeName + "(" + strconv.Itoa(precision) + "," + strconv.Itoa(scale) + ")"
	}
	return typeName
}

func introspectIndexes(ctx context.Context, db *sql.DB, t *core.Table) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			i.name,
			i.is_primary_key,
			i.is_unique,
			i.type_desc,
			COALESCE(i.filter_definition, ''),
			c.name,
			ic.is_descending_key
		FROM sys.indexes i
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
		WHERE i.object_id = OBJECT_ID(@p1) AND i.name IS NOT NULL AND ic.is_included_column = 0
		ORDER BY i.name, ic.key_ordinal
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := make(map[string]*core.Index)
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.name, &r.primary, &r.unique, &r.typeDesc, &r.filter, &r.column, &r.desc); err != nil {
			return err
		}
		addIndexRow(t, byName, r)
	}
	return rows.Err()
}

type indexRow struct {
	name, typeDesc, filter, column string
	primary, unique, desc          bool
}

// addIndexRow adds one key column to its index on t. Only a clustering that
// differs from the default for the index kind becomes a flag.
func addIndexRow(t *core.Table, byName map[string]*core.Index, r indexRow) {
	idx, ok := byName[r.name]
	if !ok {
		idx = &core.Index{Name: r.name, Primary: r.primary, Unique: r.unique && !r.primary}
		switch strings.ToUpper(r.typeDesc) {
		case "CLUSTERED":
			if !r.primary {
				idx.Flags = []core.IndexFlag{core.IndexFlagClustered}
			}
		case "NONCLUSTERED":
			if r.primary {
				idx.Flags = []core.IndexFlag{core.IndexFlagNonClustered}
			}
		}
		if r.filter != "" {
			idx.Options = map[string]string{"where": r.filter}
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
			fk.name,
			pc.name,
			rt.name,
			rc.name,
			fk.update_referential_action_desc,
			fk.delete_referential_action_desc
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE fk.parent_object_id = OBJECT_ID(@p1)
		ORDER BY fk.name, fkc.constraint_column_id
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

type foreignKeyRow struct {
	name, column, refTable, refColumn string
	onUpdate, onDelete                string
}

// addForeignKeyRow appends r to current, or to a new key on t when r starts
// another constraint.
func addForeignKeyRow(t *core.Table, current *core.ForeignKey, r foreignKeyRow) *core.ForeignKey {
	if current == nil || current.Name != r.name {
		current = &core.ForeignKey{
			Name:            r.name,
			ReferencedTable: r.refTable,
			OnUpdate:        actionFromDesc(r.onUpdate),
			OnDelete:        actionFromDesc(r.onDelete),
		}
		t.ForeignKeys = append(t.ForeignKeys, current)
	}
	current.Columns = append(current.Columns, r.column)
	current.ReferencedColumns = append(current.ReferencedColumns, r.refColumn)
	return current
}

// actionFromDesc turns NO_ACTION, SET_NULL and friends into actions.
func actionFromDesc(desc string) core.ReferentialAction {
	return core.ReferentialAction(strings.ReplaceAll(strings.ToUpper(desc), "_", " "))
}
