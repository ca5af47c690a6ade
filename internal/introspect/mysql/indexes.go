package mysql

import (
	"database/sql"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func introspectIndexes(ic *introspectCtx, t *core.Table) error {
	rows, err := ic.db.QueryContext(ic.ctx, `
		SELECT
			s.index_name,
			s.non_unique,
			s.column_name,
			s.sub_part,
			s.collation,
			s.index_type,
			s.index_comment
		FROM information_schema.statistics s
		WHERE s.table_schema = DATABASE() AND s.table_name = ?
		ORDER BY s.index_name, s.seq_in_index
	`, t.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := make(map[string]*core.Index)
	for rows.Next() {
		var indexName, column, collation, indexType, comment sql.NullString
		var nonUnique int
		var subPart sql.NullInt64
		if err := rows.Scan(&indexName, &nonUnique, &column, &subPart, &collation, &indexType, &comment); err != nil {
			return err
		}
		// Functional key parts have no column name.
		if !column.Valid {
			continue
		}

		idx, ok := byName[indexName.String]
		if !ok {
			idx = newIndex(indexName.String, nonUnique == 0, indexType.String, comment.String)
			byName[indexName.String] = idx
			if idx.Primary {
				t.Indexes = append([]*core.Index{idx}, t.Indexes...)
			} else {
				t.Indexes = append(t.Indexes, idx)
			}
		}

		part := core.IndexColumn{Name: column.String}
		if subPart.Valid {
			part.Length = int(subPart.Int64)
		}
		if collation.String == "D" {
			part.Order = core.SortDesc
		}
		idx.Columns = append(idx.Columns, part)
	}

	return rows.Err()
}

func newIndex(name string, unique bool, indexType, comment string) *core.Index {
	idx := &core.Index{Name: name, Unique: unique}
	if strings.EqualFold(name, "PRIMARY") {
		idx.Primary = true
		idx.Unique = false
	}
	switch strings.ToUpper(indexType) {
	case "FULLTEXT":
		idx.Flags = []core.IndexFlag{core.IndexFlagFulltext}
	case "SPATIAL":
		idx.Flags = []core.IndexFlag{core.IndexFlagSpatial}
	}
	if comment != "" {
		idx.Options = map[string]string{"comment": comment}
	}
	return idx
}
