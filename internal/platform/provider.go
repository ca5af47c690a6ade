// Package platform describes what each database vendor can store and how it
// reports what it stores. Providers answer questions asked during
// normalization and DDL generation: storage tiers of large objects, the
// physical declaration of a column type, which default expressions are
// synonyms, how defaults come back quoted, charset and collation fallbacks,
// and which table options a server fills in on its own.
//
// Providers hold no mutable state and are safe for concurrent use.
package platform

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

// Canonical tokens for the current-time default expressions.
const (
	CurrentTimestamp = "CURRENT_TIMESTAMP"
	CurrentDate      = "CURRENT_DATE"
	CurrentTime      = "CURRENT_TIME"
)

// Tier is a storage bucket for large objects, e.g. MEDIUMTEXT. Every length
// up to Max fits the tier.
type Tier struct {
	Name string
	Max  int
}

// ColumnType is the physical declaration of a column on a platform. Two
// columns with equal ColumnType values are stored identically.
type ColumnType struct {
	Name      string `json:"name"`
	Length    int    `json:"length,omitempty"`
	Precision int    `json:"precision,omitempty"`
	Scale     int    `json:"scale,omitempty"`
	Unsigned  bool   `json:"unsigned,omitempty"`
}

// String renders the declaration as it would appear in DDL.
func (t ColumnType) String() string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	switch {
	case t.Precision > 0:
		fmt.Fprintf(&sb, "(%d,%d)", t.Precision, t.Scale)
	case t.Length > 0:
		fmt.Fprintf(&sb, "(%d)", t.Length)
	}
	if t.Unsigned {
		sb.WriteString(" UNSIGNED")
	}
	return sb.String()
}

// Features lists optional schema capabilities of a platform.
type Features struct {
	ColumnCharset   bool
	ColumnCollation bool
	ColumnComment   bool
	IndexLengths    bool
	TableOptions    bool
	Unsigned        bool
}

// Provider answers vendor-specific questions. It never consults a live
// connection.
type Provider interface {
	Name() string
	QuoteIdentifier(name string) string

	// LOBTier returns the smallest storage tier that holds length bytes or
	// characters of a TEXT or BLOB column. ok is false when the platform
	// stores large objects without tiers.
	LOBTier(category core.DataType, length int) (tier Tier, ok bool)

	// ColumnType returns the physical declaration of col.
	ColumnType(col *core.Column) ColumnType

	// DefaultSynonyms maps lower-cased default expressions to one of the
	// canonical current-time tokens.
	DefaultSynonyms() map[string]string

	// UnwrapDefault strips the quoting the platform adds when it reports a
	// default value. ok is false when the default is SQL NULL.
	UnwrapDefault(raw string) (value string, ok bool)

	// SupportsDefault reports whether the platform can store a default for col.
	SupportsDefault(col *core.Column) bool

	DefaultCollation(charset string) string
	CollationCharset(collation string) string
	TableDefaults() (charset, collation string)

	// ImplicitTableOption reports whether value is what the platform reports
	// for key when the option was never set.
	ImplicitTableOption(key, value string) bool

	ReferentialAction(a core.ReferentialAction) core.ReferentialAction
	Features() Features

	CurrentTimestampSQL() string
	CurrentDateSQL() string
	CurrentTimeSQL() string
}

// UnsupportedPlatformError is returned by Get for names with no provider.
type UnsupportedPlatformError struct {
	Name string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q", e.Name)
}

// Factory builds a provider.
type Factory func() Provider

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

var aliases = map[string]string{
	"postgres": core.PlatformPostgreSQL,
	"pgsql":    core.PlatformPostgreSQL,
	"pgx":      core.PlatformPostgreSQL,
	"mssql":    core.PlatformSQLServer,
	"sqlite3":  core.PlatformSQLite,
	"ibm_db2":  core.PlatformDB2,
}

// Register adds a provider factory under name. A later registration under the
// same name replaces the earlier one.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

// Get returns a provider for the named platform.
func Get(name string) (Provider, error) {
	key := Canonical(name)
	registryMu.RLock()
	f, ok := registry[key]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnsupportedPlatformError{Name: name}
	}
	return f(), nil
}

// MustGet is Get for names known at compile time.
func MustGet(name string) Provider {
	p, err := Get(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Canonical resolves aliases such as "postgres" to a registered platform name.
func Canonical(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// Names returns the registered platform names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func init() {
	Register(core.PlatformMySQL, func() Provider { return NewMySQL() })
	Register(core.PlatformMariaDB, func() Provider { return NewMariaDB() })
	Register(core.PlatformPostgreSQL, func() Provider { return NewPostgreSQL() })
	Register(core.PlatformSQLServer, func() Provider { return NewSQLServer() })
	Register(core.PlatformSQLite, func() Provider { return NewSQLite() })
	Register(core.PlatformDB2, func() Provider { return NewDB2() })
}

// base carries the behavior shared by most platforms. Vendors embed it and
// override what differs.
type base struct{}

func (base) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (base) LOBTier(core.DataType, int) (Tier, bool) { return Tier{}, false }

func (base) UnwrapDefault(raw string) (string, bool) {
	return unwrapQuoted(raw)
}

func (base) SupportsDefault(*core.Column) bool { return true }

func (base) DefaultCollation(string) string { return "" }

func (base) CollationCharset(string) string { return "" }

func (base) TableDefaults() (string, string) { return "", "" }

func (base) ImplicitTableOption(string, string) bool { return false }

func (base) ReferentialAction(a core.ReferentialAction) core.ReferentialAction {
	return canonicalAction(a)
}

func (base) CurrentTimestampSQL() string { return CurrentTimestamp }
func (base) CurrentDateSQL() string      { return CurrentDate }
func (base) CurrentTimeSQL() string      { return CurrentTime }

func canonicalAction(a core.ReferentialAction) core.ReferentialAction {
	s := strings.ToUpper(strings.Join(strings.Fields(string(a)), " "))
	if s == "" {
		return core.ActionNoAction
	}
	return core.ReferentialAction(s)
}

// unwrapQuoted handles the common reporting style where string defaults are
// single-quoted and a missing default is the bare word NULL.
func unwrapQuoted(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "NULL") {
		return "", false
	}
	if v, ok := unquoteString(s); ok {
		return v, true
	}
	return s, true
}

// unquoteString removes one level of SQL single quotes, including an N or
// charset introducer prefix, and collapses doubled quotes.
func unquoteString(s string) (string, bool) {
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", false
	}
	q := strings.IndexByte(s, '\'')
	if q == len(s)-1 {
		return "", false
	}
	if prefix := s[:q]; prefix != "" && !strings.EqualFold(prefix, "N") && !strings.HasPrefix(prefix, "_") {
		return "", false
	}
	inner := s[q+1 : len(s)-1]
	if strings.Contains(strings.ReplaceAll(inner, "''", ""), "'") {
		return "", false
	}
	return strings.ReplaceAll(inner, "''", "'"), true
}

// collationPrefix returns the part of a collation name before the first
// underscore, which is the charset on MySQL-like platforms.
func collationPrefix(collation string) string {
	c := strings.ToLower(strings.TrimSpace(collation))
	if c == "" {
		return ""
	}
	if i := strings.IndexByte(c, '_'); i > 0 {
		return c[:i]
	}
	return c
}

// lengthOr returns n when set and def otherwise.
func lengthOr(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

// declared returns the registered declaration of a custom type.
func declared(platform string, col *core.Column) (ColumnType, bool) {
	decl, ok := col.Type.Declaration(platform)
	if !ok {
		return ColumnType{}, false
	}
	return ColumnType{Name: decl}, true
}
