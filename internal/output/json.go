package output

import (
	"encoding/json"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

type jsonFormatter struct{}

type diffSummary struct {
	AddedTables    int `json:"addedTables"`
	DroppedTables  int `json:"droppedTables"`
	ModifiedTables int `json:"modifiedTables"`
}

type diffPayload struct {
	Format         string            `json:"format"`
	Summary        diffSummary       `json:"summary"`
	Warnings       []string          `json:"warnings,omitempty"`
	AddedTables    []*core.Table     `json:"addedTables,omitempty"`
	DroppedTables  []*core.Table     `json:"droppedTables,omitempty"`
	ModifiedTables []*diff.TableDiff `json:"modifiedTables,omitempty"`
}

type migrationSummary struct {
	BreakingChanges    int `json:"breakingChanges"`
	Unresolved         int `json:"unresolved"`
	Notes              int `json:"notes"`
	SQLStatements      int `json:"sqlStatements"`
	RollbackStatements int `json:"rollbackStatements"`
}

type migrationPayload struct {
	Format          string                `json:"format"`
	Summary         migrationSummary      `json:"summary"`
	BreakingChanges []string              `json:"breakingChanges,omitempty"`
	Unresolved      []string              `json:"unresolved,omitempty"`
	Notes           []string              `json:"notes,omitempty"`
	SQL             []string              `json:"sql,omitempty"`
	Rollback        []string              `json:"rollback,omitempty"`
	Operations      []migration.Operation `json:"operations,omitempty"`
}

type payload interface {
	diffPayload | migrationPayload
}

func (jsonFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	p := diffPayload{Format: string(FormatJSON)}
	if d != nil {
		p.Warnings = d.Warnings
		p.AddedTables = d.AddedTables
		p.DroppedTables = d.DroppedTables
		p.ModifiedTables = d.ModifiedTables
		p.Summary = diffSummary{
			AddedTables:    len(d.AddedTables),
			DroppedTables:  len(d.DroppedTables),
			ModifiedTables: len(d.ModifiedTables),
		}
	}
	return marshalJSON(p)
}

func (jsonFormatter) FormatMigration(m *migration.Migration) (string, error) {
	p := migrationPayload{Format: string(FormatJSON)}
	if m != nil {
		breaking := m.BreakingNotes()
		unresolved := m.UnresolvedNotes()
		notes := m.Notes()
		sql := normalizeStatements(m.Statements())
		rollback := normalizeStatements(m.RollbackStatements())

		p.BreakingChanges = breaking
		p.Unresolved = unresolved
		p.Notes = notes
		p.SQL = sql
		p.Rollback = rollback
		p.Operations = m.Operations
		p.Summary = migrationSummary{
			BreakingChanges:    len(breaking),
			Unresolved:         len(unresolved),
			Notes:              len(notes),
			SQLStatements:      len(sql),
			RollbackStatements: len(rollback),
		}
	}
	return marshalJSON(p)
}

func marshalJSON[T payload](p T) (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
