package mysql

import (
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func introspectForeignKeys(ic *introspectCtx, t *core.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			k.constraint_name,
			k.column_name,
			k.referenced_table_name,
			k.referenced_column_name,
			r.update_rule,
			r.delete_rule
		FROM information_schema.key_column_usage k
		JOIN information_schema.referential_constraints r
			ON r.constraint_schema = k.constraint_schema
			AND r.constraint_name = k.constraint_name
			AND r.table_name = k.table_name
		WHERE k.table_schema = DATABASE()
			AND k.table_name = ?
			AND k.referenced_table_name IS NOT NULL
		ORDER BY k.constraint_name, k.ordinal_position
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	var current *core.ForeignKey
	for rows.Next() {
		var name, column, refTable, refColumn, onUpdate, onDelete string
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &onUpdate, &onDelete); err != nil {
			return err
		}
		if current == nil || current.Name != name {
			current = &core.ForeignKey{
				Name:            name,
				ReferencedTable: refTable,
				OnUpdate:        core.ReferentialAction(onUpdate),
				OnDelete:        core.ReferentialAction(onDelete),
			}
			t.ForeignKeys = append(t.ForeignKeys, current)
		}
		current.Columns = append(current.Columns, column)
		current.ReferencedColumns = append(current.ReferencedColumns, refColumn)
	}

	return rows.Err()
}
