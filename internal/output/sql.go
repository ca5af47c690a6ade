package output

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

type sqlFormatter struct {
	color bool
}

// FormatDiff prints the diff report as a SQL comment block.
func (f sqlFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	if d == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(d.String(), "\n"), "\n") {
		if line == "" {
			sb.WriteString("--\n")
			continue
		}
		sb.WriteString("-- " + line + "\n")
	}
	return f.highlight(sb.String())
}

// FormatMigration prints the plan as a runnable script. Notes become comment
// sections and the rollback is appended as comments.
func (f sqlFormatter) FormatMigration(m *migration.Migration) (string, error) {
	var sb strings.Builder
	sb.WriteString("-- dbal migration\n")
	sb.WriteString("-- Review before running in production.\n")

	writeCommentSection(&sb, "BREAKING CHANGES (manual review required)", m.BreakingNotes())
	writeCommentSection(&sb, "UNRESOLVED (cannot auto-generate safely)", m.UnresolvedNotes())
	writeCommentSection(&sb, "NOTES", m.Notes())

	ops := sqlOperations(m)
	rb := normalizeStatements(m.RollbackStatements())

	if len(ops) == 0 {
		sb.WriteString("\n-- No SQL statements generated.\n")
	} else {
		sb.WriteString("\n-- SQL\n")
		for _, op := range ops {
			writeRiskComment(&sb, op)
			sb.WriteString(normalizeStatements([]string{op.SQL})[0] + "\n")
		}
	}

	if len(rb) > 0 {
		sb.WriteString("\n-- ROLLBACK SQL (run separately)\n")
		writeRollbackAsComments(&sb, rb)
	}

	return f.highlight(sb.String())
}

// FormatRollbackSQL returns the rollback statements of m as a runnable
// script.
func FormatRollbackSQL(m *migration.Migration) string {
	var sb strings.Builder
	sb.WriteString("-- dbal rollback\n")
	sb.WriteString("-- Run to revert the migration (review carefully).\n")

	rb := normalizeStatements(m.RollbackStatements())
	if len(rb) == 0 {
		sb.WriteString("\n-- No rollback statements generated.\n")
		return sb.String()
	}

	sb.WriteString("\n-- SQL\n")
	for _, stmt := range rb {
		sb.WriteString(stmt + "\n")
	}
	return sb.String()
}

// WriteRollback writes the rollback script of m to w.
func WriteRollback(m *migration.Migration, w io.Writer) error {
	_, err := io.WriteString(w, FormatRollbackSQL(m))
	return err
}

func (f sqlFormatter) highlight(src string) (string, error) {
	if !f.color {
		return src, nil
	}

	lexer := lexers.Get("mysql")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func sqlOperations(m *migration.Migration) []migration.Operation {
	if m == nil {
		return nil
	}
	var out []migration.Operation
	for _, op := range m.Operations {
		if op.Kind == migration.OperationSQL && strings.TrimSpace(op.SQL) != "" {
			out = append(out, op)
		}
	}
	return out
}

func writeRiskComment(sb *strings.Builder, op migration.Operation) {
	if op.Risk != migration.RiskWarning && op.Risk != migration.RiskBreaking {
		return
	}
	sb.WriteString("-- [" + string(op.Risk) + "]")
	if op.Reason != "" {
		sb.WriteString(" " + op.Reason)
	}
	sb.WriteString("\n")
}

func writeCommentSection(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\n-- " + title + "\n")
	for _, item := range items {
		for _, line := range splitCommentLines(item) {
			if line == "" {
				continue
			}
			sb.WriteString("-- - " + line + "\n")
		}
	}
}

func splitCommentLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

func writeRollbackAsComments(sb *strings.Builder, rollback []string) {
	for _, stmt := range rollback {
		for _, line := range splitCommentLines(stmt) {
			if line == "" {
				continue
			}
			sb.WriteString("-- " + line + "\n")
		}
	}
}
