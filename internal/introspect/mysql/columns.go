package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func introspectColumns(ic *introspectCtx, t *core.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			c.column_name,
			c.column_type,
			c.column_comment,
			c.is_nullable,
			c.column_default,
			c.extra,
			c.character_set_name,
			c.collation_name
		FROM information_schema.columns c
		WHERE c.table_schema = DATABASE() AND c.table_name = ?
		ORDER BY c.ordinal_position
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, colType, comment, nullable, defaultVal, extra, charset, collation sql.NullString
		if err := rows.Scan(&name, &colType, &comment, &nullable, &defaultVal, &extra, &charset, &collation); err != nil {
			return err
		}

		col, err := ic.reg.ColumnFromRaw(ic.platform, name.String, colType.String)
		if err != nil {
			return fmt.Errorf("table %q column %q: %w", t.Name, name.String, err)
		}
		col.Nullable = nullable.String == "YES"
		col.Comment = comment.String
		col.Charset = charset.String
		col.Collation = collation.String

		lowerExtra := strings.ToLower(extra.String)
		col.AutoIncrement = strings.Contains(lowerExtra, "auto_increment")
		if i := strings.Index(lowerExtra, "on update "); i >= 0 {
			expr := strings.TrimSpace(extra.String[i+len("on update "):])
			col.OnUpdate = &expr
		}
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}

		t.Columns = append(t.Columns, col)
	}

	return rows.Err()
}
