package mysql

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	tmysql "github.com/pingcap/tidb/pkg/parser/mysql"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func (p *Parser) parseColumns(cols []*ast.ColumnDef, table *core.Table) error {
	for _, colDef := range cols {
		col, err := p.newColumnFromDef(colDef)
		if err != nil {
			return err
		}
		table.Columns = append(table.Columns, col)
		for _, opt := range colDef.Options {
			p.applyColumnOption(table, col, opt)
		}
	}
	return nil
}

func (p *Parser) newColumnFromDef(colDef *ast.ColumnDef) (*core.Column, error) {
	raw := colDef.Tp.CompactStr()
	if tmysql.HasUnsignedFlag(colDef.Tp.GetFlag()) {
		raw += " unsigned"
	}

	col, err := p.reg.ColumnFromRaw(p.platform, colDef.Name.Name.O, raw)
	if err != nil {
		return nil, err
	}
	col.Nullable = true
	col.Charset = colDef.Tp.GetCharset()
	col.Collation = colDef.Tp.GetCollate()
	return col, nil
}

func (p *Parser) applyColumnOption(table *core.Table, col *core.Column, opt *ast.ColumnOption) {
	if opt == nil {
		return
	}

	switch opt.Tp {
	case ast.ColumnOptionNotNull:
		col.Nullable = false
	case ast.ColumnOptionNull:
		col.Nullable = true
	case ast.ColumnOptionPrimaryKey:
		col.Nullable = false
		ensurePrimaryKeyColumn(table, col.Name)
	case ast.ColumnOptionAutoIncrement:
		col.AutoIncrement = true
	case ast.ColumnOptionDefaultValue:
		col.Default = p.exprToString(opt.Expr)
	case ast.ColumnOptionOnUpdate:
		col.OnUpdate = p.exprToString(opt.Expr)
	case ast.ColumnOptionUniqKey:
		table.Indexes = append(table.Indexes, &core.Index{
			Unique:  true,
			Columns: []core.IndexColumn{{Name: col.Name}},
		})
	case ast.ColumnOptionComment:
		if s := p.exprToString(opt.Expr); s != nil {
			col.Comment = *s
		}
	case ast.ColumnOptionCollate:
		if opt.StrValue != "" {
			col.Collation = opt.StrValue
		}
	case ast.ColumnOptionFulltext:
		table.Indexes = append(table.Indexes, &core.Index{
			Columns: []core.IndexColumn{{Name: col.Name}},
			Flags:   []core.IndexFlag{core.IndexFlagFulltext},
		})
	case ast.ColumnOptionReference:
		table.ForeignKeys = append(table.ForeignKeys, foreignKeyFromRefer("", []string{col.Name}, opt.Refer))
	case ast.ColumnOptionNoOption:
	}
}

// ensurePrimaryKeyColumn appends colName to the table primary key, creating
// it when needed.
func ensurePrimaryKeyColumn(table *core.Table, colName string) {
	colName = strings.TrimSpace(colName)
	if colName == "" {
		return
	}

	pk := table.PrimaryKey()
	if pk == nil {
		pk = &core.Index{Name: "PRIMARY", Primary: true}
		table.Indexes = append([]*core.Index{pk}, table.Indexes...)
	}
	for _, c := range pk.Columns {
		if strings.EqualFold(c.Name, colName) {
			return
		}
	}
	pk.Columns = append(pk.Columns, core.IndexColumn{Name: colName})
	if col := table.FindColumn(colName); col != nil {
		col.Nullable = false
	}
}

func (p *Parser) parseConstraints(constraints []*ast.Constraint, table *core.Table) error {
	for _, constraint := range constraints {
		if constraint == nil {
			continue
		}
		indexCols := constraintColumns(constraint)

		switch constraint.Tp {
		case ast.ConstraintPrimaryKey:
			pk := table.PrimaryKey()
			if pk == nil {
				pk = &core.Index{Name: "PRIMARY", Primary: true}
				table.Indexes = append([]*core.Index{pk}, table.Indexes...)
			}
			pk.Columns = indexCols
			for _, ic := range indexCols {
				if col := table.FindColumn(ic.Name); col != nil {
					col.Nullable = false
				}
			}
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			idx := p.newIndex(constraint, indexCols)
			idx.Unique = true
			table.Indexes = append(table.Indexes, idx)
		case ast.ConstraintIndex, ast.ConstraintKey:
			table.Indexes = append(table.Indexes, p.newIndex(constraint, indexCols))
		case ast.ConstraintFulltext:
			idx := p.newIndex(constraint, indexCols)
			idx.Flags = append(idx.Flags, core.IndexFlagFulltext)
			table.Indexes = append(table.Indexes, idx)
		case ast.ConstraintForeignKey:
			columns := make([]string, len(indexCols))
			for i, ic := range indexCols {
				columns[i] = ic.Name
			}
			table.ForeignKeys = append(table.ForeignKeys, foreignKeyFromRefer(constraint.Name, columns, constraint.Refer))
		case ast.ConstraintCheck, ast.ConstraintNoConstraint:
		}
	}
	return nil
}

func constraintColumns(constraint *ast.Constraint) []core.IndexColumn {
	cols := make([]core.IndexColumn, 0, len(constraint.Keys))
	for _, key := range constraint.Keys {
		if key.Column == nil {
			continue
		}
		ic := core.IndexColumn{Name: key.Column.Name.O}
		if key.Length > 0 {
			ic.Length = key.Length
		}
		if key.Desc {
			ic.Order = core.SortDesc
		}
		cols = append(cols, ic)
	}
	return cols
}

func (p *Parser) newIndex(constraint *ast.Constraint, cols []core.IndexColumn) *core.Index {
	idx := &core.Index{Name: constraint.Name, Columns: cols}
	if constraint.Option != nil && constraint.Option.Comment != "" {
		idx.Options = map[string]string{"comment": constraint.Option.Comment}
	}
	return idx
}

func foreignKeyFromRefer(name string, columns []string, refer *ast.ReferenceDef) *core.ForeignKey {
	fk := &core.ForeignKey{Name: name, Columns: columns}
	if refer == nil {
		return fk
	}
	fk.ReferencedTable = refer.Table.Name.O
	for _, spec := range refer.IndexPartSpecifications {
		if spec.Column != nil {
			fk.ReferencedColumns = append(fk.ReferencedColumns, spec.Column.Name.O)
		}
	}
	if refer.OnDelete != nil && refer.OnDelete.ReferOpt != ast.ReferOptionNoOption {
		fk.OnDelete = core.ReferentialAction(refer.OnDelete.ReferOpt.String())
	}
	if refer.OnUpdate != nil && refer.OnUpdate.ReferOpt != ast.ReferOptionNoOption {
		fk.OnUpdate = core.ReferentialAction(refer.OnUpdate.ReferOpt.String())
	}
	return fk
}
