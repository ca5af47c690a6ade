package normalize

import (
	"strconv"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// Table option keys of the normalized option map.
const (
	OptionEngine        = "engine"
	OptionCharset       = "charset"
	OptionCollation     = "collation"
	OptionComment       = "comment"
	OptionAutoIncrement = "auto_increment"

	// CreateOptionPrefix prefixes free-form create options, e.g.
	// create_options.row_format.
	CreateOptionPrefix = "create_options."
)

// caseInsensitiveCreateOptions hold keyword values the server reports in
// its own letter case.
var caseInsensitiveCreateOptions = map[string]bool{
	"row_format":       true,
	"partitioned":      true,
	"stats_persistent": true,
	"pack_keys":        true,
}

// TableOptions returns the table options of t as a flat map. Empty values are
// left out. Platforms without table options return an empty map.
func (n *Normalizer) TableOptions(t *core.Table) map[string]string {
	out := make(map[string]string)
	if !n.features.TableOptions {
		return out
	}

	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}

	o := t.Options
	set(OptionEngine, strings.ToLower(o.Engine))
	charset, collation := n.TableCharset(t)
	set(OptionCharset, charset)
	set(OptionCollation, collation)
	set(OptionComment, o.Comment)
	if o.AutoIncrement > 0 {
		set(OptionAutoIncrement, strconv.FormatUint(o.AutoIncrement, 10))
	}
	for k, v := range o.CreateOptions {
		key := strings.ToLower(strings.TrimSpace(k))
		if caseInsensitiveCreateOptions[key] {
			v = strings.ToLower(v)
		}
		set(CreateOptionPrefix+key, v)
	}
	return out
}
