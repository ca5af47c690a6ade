// Package migration holds the ordered plan of DDL statements and notes that
// turns a current schema into a desired one. Plans are produced by the
// generators in internal/dialect from a diff.
package migration

import "strings"

// OperationKind identifies what a single plan entry carries.
type OperationKind string

const (
	OperationSQL        OperationKind = "SQL"
	OperationNote       OperationKind = "NOTE"
	OperationBreaking   OperationKind = "BREAKING"
	OperationUnresolved OperationKind = "UNRESOLVED"
)

// Risk is the risk level attached to an operation.
type Risk string

const (
	RiskInfo     Risk = "INFO"
	RiskWarning  Risk = "WARNING"
	RiskBreaking Risk = "BREAKING"
)

// Operation is one entry of a plan. SQL operations may carry the statement
// that reverses them.
type Operation struct {
	Kind OperationKind `json:"kind"`

	SQL         string `json:"sql,omitempty"`
	RollbackSQL string `json:"rollbackSql,omitempty"`

	Risk   Risk   `json:"risk,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Migration is an ordered list of operations.
type Migration struct {
	Operations []Operation `json:"operations"`
}

// IsEmpty reports whether the plan has no operations at all.
func (m *Migration) IsEmpty() bool {
	return m == nil || len(m.Operations) == 0
}

// Statements returns the forward SQL statements in order.
func (m *Migration) Statements() []string {
	return m.filterByKind(OperationSQL, func(op Operation) string { return op.SQL })
}

// RollbackStatements returns the reverse statements in the order they must
// run, which is the reverse of the forward order.
func (m *Migration) RollbackStatements() []string {
	out := m.filterByKind(OperationSQL, func(op Operation) string { return op.RollbackSQL })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Notes returns informational notes.
func (m *Migration) Notes() []string {
	return m.filterByKind(OperationNote, func(op Operation) string { return op.SQL })
}

// BreakingNotes returns descriptions of changes that lose data or break
// existing readers.
func (m *Migration) BreakingNotes() []string {
	return m.filterByKind(OperationBreaking, func(op Operation) string { return op.SQL })
}

// UnresolvedNotes returns changes the generator could not express in SQL.
func (m *Migration) UnresolvedNotes() []string {
	return m.filterByKind(OperationUnresolved, func(op Operation) string { return op.Reason })
}

func (m *Migration) AddStatement(stmt string) {
	m.AddStatementWithRollback(stmt, "")
}

func (m *Migration) AddStatementWithRollback(up, down string) {
	up = strings.TrimSpace(up)
	down = strings.TrimSpace(down)
	if up == "" && down == "" {
		return
	}
	m.Operations = append(m.Operations, Operation{Kind: OperationSQL, SQL: up, RollbackSQL: down})
}

func (m *Migration) AddNote(msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	m.Operations = append(m.Operations, Operation{Kind: OperationNote, SQL: msg, Risk: RiskInfo})
}

func (m *Migration) AddBreaking(msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	m.Operations = append(m.Operations, Operation{Kind: OperationBreaking, SQL: msg, Risk: RiskBreaking})
}

func (m *Migration) AddUnresolved(msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	m.Operations = append(m.Operations, Operation{Kind: OperationUnresolved, Reason: msg, Risk: RiskWarning})
}

// Append copies the operations of other to the end of m.
func (m *Migration) Append(other *Migration) {
	if other == nil {
		return
	}
	m.Operations = append(m.Operations, other.Operations...)
}

// Dedupe trims every operation and removes repeated notes and repeated
// rollback statements. Forward SQL statements are never removed: running the
// same statement twice is something the caller asked for.
func (m *Migration) Dedupe() {
	if len(m.Operations) == 0 {
		return
	}
	seen := make(map[OperationKind]map[string]struct{}, 4)
	firstSeen := func(kind OperationKind, key string) bool {
		set, ok := seen[kind]
		if !ok {
			set = make(map[string]struct{})
			seen[kind] = set
		}
		if _, dup := set[key]; dup {
			return false
		}
		set[key] = struct{}{}
		return true
	}

	out := make([]Operation, 0, len(m.Operations))
	for _, op := range m.Operations {
		op.SQL = strings.TrimSpace(op.SQL)
		op.RollbackSQL = strings.TrimSpace(op.RollbackSQL)
		op.Reason = strings.TrimSpace(op.Reason)

		switch op.Kind {
		case OperationSQL:
			if op.RollbackSQL != "" && !firstSeen("ROLLBACK", op.RollbackSQL) {
				op.RollbackSQL = ""
			}
			if op.SQL == "" && op.RollbackSQL == "" {
				continue
			}
		case OperationUnresolved:
			if op.Reason == "" || !firstSeen(op.Kind, op.Reason) {
				continue
			}
		default:
			if op.SQL == "" || !firstSeen(op.Kind, op.SQL) {
				continue
			}
		}
		out = append(out, op)
	}
	m.Operations = out
}

func (m *Migration) filterByKind(kind OperationKind, field func(Operation) string) []string {
	if m == nil {
		return []string{}
	}
	out := make([]string, 0, len(m.Operations))
	for _, op := range m.Operations {
		if op.Kind != kind {
			continue
		}
		if val := strings.TrimSpace(field(op)); val != "" {
			out = append(out, val)
		}
	}
	return out
}
