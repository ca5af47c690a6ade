package mysql

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

type alterSpecEffect struct {
	blockingReason    string
	destructiveReason string
}

var alterSpecEffects = map[ast.AlterTableType]alterSpecEffect{
	ast.AlterTableAddColumns: {
		blockingReason: "ADD COLUMN may require a table rebuild depending on MySQL version and column position",
	},
	ast.AlterTableDropColumn: {
		blockingReason:    "DROP COLUMN typically requires a full table rebuild and will lock the table",
		destructiveReason: "DROP COLUMN will permanently delete the column and its data",
	},
	ast.AlterTableModifyColumn: {
		blockingReason: "MODIFY COLUMN may require a table rebuild if changing column type or size",
	},
	ast.AlterTableChangeColumn: {
		blockingReason: "CHANGE COLUMN may require a table rebuild",
	},
	ast.AlterTableDropIndex: {
		blockingReason: "DROP INDEX may briefly lock the table",
	},
	ast.AlterTableDropForeignKey: {
		blockingReason: "DROP FOREIGN KEY may briefly lock the table",
	},
	ast.AlterTableDropPrimaryKey: {
		blockingReason: "DROP PRIMARY KEY requires a full table rebuild and will lock the table",
	},
}

// statementRisk is what running one statement may do to a live table.
type statementRisk struct {
	blocking    []string
	destructive string
}

// analyzer classifies generated statements by parsing them back. A parser
// is not safe for concurrent use, so every plan gets its own analyzer.
type analyzer struct {
	p *parser.Parser
}

func newAnalyzer() *analyzer {
	return &analyzer{p: parser.New()}
}

func (a *analyzer) analyze(sql string) statementRisk {
	var r statementRisk
	nodes, _, err := a.p.Parse(sql, "", "")
	if err != nil || len(nodes) == 0 {
		return r
	}

	switch stmt := nodes[0].(type) {
	case *ast.DropTableStmt:
		r.destructive = "DROP TABLE will permanently delete the table and all its data"
	case *ast.DropIndexStmt:
		r.blocking = append(r.blocking, "DROP INDEX may briefly lock the table")
	case *ast.CreateIndexStmt:
		r.blocking = append(r.blocking, "CREATE INDEX may lock the table for the duration of index creation")
	case *ast.AlterTableStmt:
		for _, spec := range stmt.Specs {
			a.analyzeAlterSpec(spec, &r)
		}
	}
	return r
}

func (a *analyzer) analyzeAlterSpec(spec *ast.AlterTableSpec, r *statementRisk) {
	if spec.Tp == ast.AlterTableAddConstraint {
		reason := "ADD CONSTRAINT may lock the table while validating existing data"
		if spec.Constraint != nil {
			switch spec.Constraint.Tp {
			case ast.ConstraintForeignKey:
				reason = "ADD FOREIGN KEY may lock the table while validating existing data"
			case ast.ConstraintIndex, ast.ConstraintKey, ast.ConstraintUniq,
				ast.ConstraintUniqKey, ast.ConstraintUniqIndex, ast.ConstraintFulltext:
				reason = "ADD INDEX may lock the table for the duration of index creation on large tables"
			}
		}
		r.blocking = append(r.blocking, reason)
		return
	}

	effect, ok := alterSpecEffects[spec.Tp]
	if !ok {
		return
	}
	if effect.blockingReason != "" {
		r.blocking = append(r.blocking, effect.blockingReason)
	}
	if effect.destructiveReason != "" {
		r.destructive = effect.destructiveReason
	}
}

// annotate sets Risk and Reason on the SQL operations of m that have no risk
// yet. It reports whether any of them may lock a table.
func (a *analyzer) annotate(m *migration.Migration) bool {
	blocking := false
	for i := range m.Operations {
		op := &m.Operations[i]
		if op.Kind != migration.OperationSQL || op.Risk != "" || op.SQL == "" {
			continue
		}
		r := a.analyze(op.SQL)
		switch {
		case r.destructive != "":
			op.Risk = migration.RiskBreaking
			op.Reason = r.destructive
		case len(r.blocking) > 0:
			op.Risk = migration.RiskWarning
			op.Reason = strings.Join(r.blocking, "; ")
		default:
			op.Risk = migration.RiskInfo
		}
		blocking = blocking || len(r.blocking) > 0
	}
	return blocking
}
