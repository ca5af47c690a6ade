package output

import (
	"strings"

	"github.com/fatih/color"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/diff"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/migration"
)

// textFormatter prints the diff report with its section headers colored by
// kind of change: green for additions, red for drops, yellow for the rest.
type textFormatter struct {
	green, red, yellow, magenta, bold *color.Color
}

func newTextFormatter(enabled bool) textFormatter {
	f := textFormatter{
		green:   color.New(color.FgGreen, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		yellow:  color.New(color.FgYellow, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{f.green, f.red, f.yellow, f.magenta, f.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

func (f textFormatter) FormatDiff(d *diff.SchemaDiff) (string, error) {
	if d == nil {
		return "", nil
	}
	return f.colorize(d.String()), nil
}

func (f textFormatter) colorize(report string) string {
	lines := strings.Split(report, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasSuffix(trimmed, ":") {
			continue
		}
		var c *color.Color
		switch {
		case strings.HasPrefix(trimmed, "Added"):
			c = f.green
		case strings.HasPrefix(trimmed, "Dropped"):
			c = f.red
		case strings.HasPrefix(trimmed, "Warnings"):
			c = f.magenta
		case strings.HasPrefix(trimmed, "Schema differences"):
			c = f.bold
		default:
			c = f.yellow
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		lines[i] = indent + c.Sprint(trimmed)
	}
	return strings.Join(lines, "\n")
}

func (f textFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m.IsEmpty() {
		return "No migration operations.\n", nil
	}

	var sb strings.Builder
	f.writeSection(&sb, f.red, "Breaking changes", m.BreakingNotes())
	f.writeSection(&sb, f.magenta, "Unresolved", m.UnresolvedNotes())
	f.writeSection(&sb, f.yellow, "Notes", m.Notes())
	f.writeSection(&sb, f.green, "Statements", normalizeStatements(m.Statements()))
	return sb.String(), nil
}

func (f textFormatter) writeSection(sb *strings.Builder, c *color.Color, title string, items []string) {
	if len(items) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(c.Sprint(title+":") + "\n")
	for _, item := range items {
		sb.WriteString("  - " + item + "\n")
	}
}
