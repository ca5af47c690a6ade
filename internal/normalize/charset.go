package normalize

import (
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// TableCharset resolves the effective charset and collation of t. A collation
// implies its charset. A charset alone implies its default collation. A table
// without either gets the platform defaults.
func (n *Normalizer) TableCharset(t *core.Table) (charset, collation string) {
	if !n.features.ColumnCharset {
		return "", lower(t.Options.Collation)
	}
	charset, collation = lower(t.Options.Charset), lower(t.Options.Collation)
	defCharset, defCollation := n.p.TableDefaults()

	switch {
	case charset == "" && collation == "":
		return defCharset, defCollation
	case charset == "":
		charset = n.p.CollationCharset(collation)
	case collation == "":
		collation = n.p.DefaultCollation(charset)
	}
	return charset, collation
}

// ColumnCharset resolves the effective charset and collation of col within t.
// Columns without character data have neither.
func (n *Normalizer) ColumnCharset(t *core.Table, col *core.Column) (charset, collation string) {
	if !col.Type.Category.IsCharacter() || !n.features.ColumnCollation {
		return "", ""
	}
	tableCharset, tableCollation := n.TableCharset(t)
	collation = lower(col.Collation)

	if !n.features.ColumnCharset {
		if collation == tableCollation {
			collation = ""
		}
		return "", collation
	}

	charset = lower(col.Charset)
	if charset == "" && collation != "" {
		charset = n.p.CollationCharset(collation)
	}
	if charset == "" {
		charset = tableCharset
	}
	if collation == "" {
		if charset == tableCharset {
			collation = tableCollation
		} else {
			collation = n.p.DefaultCollation(charset)
		}
	}
	return charset, collation
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
