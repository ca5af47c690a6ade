package mysql

import (
	"database/sql"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func introspectTables(ic *introspectCtx, db *core.Database) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			t.table_name,
			t.table_comment,
			t.engine,
			t.table_collation,
			t.auto_increment,
			t.create_options,
			c.character_set_name
		FROM information_schema.tables t
		LEFT JOIN information_schema.collation_character_set_applicability c
			ON c.collation_name = t.table_collation
		WHERE t.table_schema = DATABASE() AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name
	`)
	if err != nil {
		return err
	}

	var tables []*core.Table
	for rows.Next() {
		var name string
		var comment, engine, collation, createOptions, charset sql.NullString
		var autoIncrement sql.NullInt64
		if err := rows.Scan(&name, &comment, &engine, &collation, &autoIncrement, &createOptions, &charset); err != nil {
			rows.Close()
			return err
		}

		t := &core.Table{
			Name: name,
			Options: core.TableOptions{
				Engine:        engine.String,
				Charset:       charset.String,
				Collation:     collation.String,
				Comment:       comment.String,
				CreateOptions: parseCreateOptions(createOptions.String),
			},
		}
		if autoIncrement.Valid && autoIncrement.Int64 > 0 {
			t.Options.AutoIncrement = uint64(autoIncrement.Int64)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, t := range tables {
		ic.log.Debug("introspecting table", "table", t.Name)
		if err := introspectColumns(ic, t); err != nil {
			return err
		}
		if err := introspectIndexes(ic, t); err != nil {
			return err
		}
		if err := introspectForeignKeys(ic, t); err != nil {
			return err
		}
		db.Tables = append(db.Tables, t)
	}
	return nil
}

// parseCreateOptions splits the create_options column, e.g.
// "row_format=DYNAMIC partitioned", into a map. Flags without a value are
// stored as "true".
func parseCreateOptions(s string) map[string]string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	opts := make(map[string]string, len(fields))
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			value = "true"
		}
		opts[strings.ToLower(key)] = strings.Trim(value, "'\"")
	}
	return opts
}
