package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchemaState is wrapped by every validation error. A snapshot in
// an invalid state cannot be compared.
var ErrInvalidSchemaState = errors.New("invalid schema state")

// ValidationError represents an error during schema validation.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidSchemaState.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSchemaState
}

// Validate checks the database and all of its tables. In addition to the
// per-table checks it rejects duplicate table names and foreign keys whose
// target table or columns do not exist in the database.
func (db *Database) Validate() error {
	if db == nil {
		return &ValidationError{Entity: "database", Message: "database is nil"}
	}

	seen := make(map[string]bool, len(db.Tables))
	for i, t := range db.Tables {
		if t == nil {
			return &ValidationError{Entity: "database", Name: db.Name, Message: fmt.Sprintf("table at index %d is nil", i)}
		}
		nameLower := strings.ToLower(t.Name)
		if seen[nameLower] {
			return &ValidationError{Entity: "database", Name: db.Name, Message: fmt.Sprintf("duplicate table name %q", t.Name)}
		}
		seen[nameLower] = true

		if err := t.Validate(); err != nil {
			return err
		}
	}

	for _, t := range db.Tables {
		for _, fk := range t.ForeignKeys {
			if err := validateForeignKeyTarget(db, t, fk); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateForeignKeyTarget(db *Database, t *Table, fk *ForeignKey) error {
	target := db.FindTable(fk.ReferencedTable)
	if target == nil {
		return &ValidationError{
			Entity:  "foreign key",
			Name:    fkLabel(t, fk),
			Field:   "ReferencedTable",
			Message: fmt.Sprintf("referenced table %q does not exist", fk.ReferencedTable),
		}
	}
	for _, col := range fk.ReferencedColumns {
		if target.FindColumn(col) == nil {
			return &ValidationError{
				Entity:  "foreign key",
				Name:    fkLabel(t, fk),
				Field:   "ReferencedColumns",
				Message: fmt.Sprintf("referenced column %q does not exist in table %q", col, target.Name),
			}
		}
	}
	return nil
}

// Validate checks that the table is internally consistent: unique column and
// index names, a single primary key, indexes and foreign keys that only use
// existing columns, and well-formed foreign key references. A foreign key
// referencing its own table is valid when the referenced columns exist.
func (t *Table) Validate() error {
	if t == nil {
		return &ValidationError{Entity: "table", Message: "table is nil"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Entity: "table", Name: "(empty)", Message: "table name is empty"}
	}

	seenCols := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if c == nil {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("column at index %d is nil", i)}
		}
		if strings.TrimSpace(c.Name) == "" {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("column at index %d has empty name", i)}
		}
		nameLower := strings.ToLower(c.Name)
		if seenCols[nameLower] {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		seenCols[nameLower] = true
	}

	if err := t.validateIndexes(seenCols); err != nil {
		return err
	}
	return t.validateForeignKeys(seenCols)
}

func (t *Table) validateIndexes(columns map[string]bool) error {
	seen := make(map[string]bool, len(t.Indexes))
	primaries := 0
	for i, idx := range t.Indexes {
		if idx == nil {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("index at index %d is nil", i)}
		}
		if idx.Primary {
			primaries++
			if primaries > 1 {
				return &ValidationError{Entity: "table", Name: t.Name, Message: "table has more than one primary key"}
			}
		}
		if len(idx.Columns) == 0 {
			return &ValidationError{Entity: "index", Name: idx.Name, Field: "Columns", Message: "index has no columns"}
		}
		for _, col := range idx.Columns {
			if !columns[strings.ToLower(col.Name)] {
				return &ValidationError{Entity: "index", Name: idx.Name, Field: "Columns", Message: fmt.Sprintf("column %q does not exist in table %q", col.Name, t.Name)}
			}
		}
		if idx.Name == "" {
			continue
		}
		nameLower := strings.ToLower(idx.Name)
		if seen[nameLower] {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("duplicate index name %q", idx.Name)}
		}
		seen[nameLower] = true
	}
	return nil
}

func (t *Table) validateForeignKeys(columns map[string]bool) error {
	for i, fk := range t.ForeignKeys {
		if fk == nil {
			return &ValidationError{Entity: "table", Name: t.Name, Message: fmt.Sprintf("foreign key at index %d is nil", i)}
		}
		label := fkLabel(t, fk)
		if len(fk.Columns) == 0 {
			return &ValidationError{Entity: "foreign key", Name: label, Field: "Columns", Message: "foreign key has no columns"}
		}
		for _, col := range fk.Columns {
			if !columns[strings.ToLower(col)] {
				return &ValidationError{Entity: "foreign key", Name: label, Field: "Columns", Message: fmt.Sprintf("column %q does not exist in table %q", col, t.Name)}
			}
		}
		if strings.TrimSpace(fk.ReferencedTable) == "" {
			return &ValidationError{Entity: "foreign key", Name: label, Field: "ReferencedTable", Message: "foreign key must reference a table"}
		}
		if len(fk.ReferencedColumns) != len(fk.Columns) {
			return &ValidationError{Entity: "foreign key", Name: label, Message: "foreign key column count mismatch"}
		}
		if strings.EqualFold(fk.ReferencedTable, t.Name) {
			for _, col := range fk.ReferencedColumns {
				if !columns[strings.ToLower(col)] {
					return &ValidationError{Entity: "foreign key", Name: label, Field: "ReferencedColumns", Message: fmt.Sprintf("self-referenced column %q does not exist", col)}
				}
			}
		}
	}
	return nil
}

func fkLabel(t *Table, fk *ForeignKey) string {
	if fk.Name != "" {
		return fk.Name
	}
	return t.Name + "(" + strings.Join(fk.Columns, ", ") + ")"
}
