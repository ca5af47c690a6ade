// Package introspect contains the Introspecter interface used to read the
// current state of a live database. Implementations return a core.Database
// snapshot, or an error if the connection or a catalog query failed.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/xo/dburl"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/platform"
)

// Introspecter builds a snapshot of the schema db is connected to. Column
// types are resolved through reg.
type Introspecter interface {
	Introspect(ctx context.Context, db *sql.DB, reg *core.TypeRegistry) (*core.Database, error)
}

// Factory builds an introspecter logging through log.
type Factory func(log *slog.Logger) Introspecter

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register adds an introspecter factory for a platform.
func Register(platformName string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[platform.Canonical(platformName)] = f
}

// New returns the introspecter registered for platformName. A nil log
// discards output.
func New(platformName string, log *slog.Logger) (Introspecter, error) {
	mu.RLock()
	f, ok := registry[platform.Canonical(platformName)]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("introspect: unsupported platform %q", platformName)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return f(log), nil
}

// Names returns the platforms with a registered introspecter.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Conn is an open connection together with the platform it speaks.
type Conn struct {
	DB       *sql.DB
	Platform string
	Driver   string
}

// schemeAliases rewrites URL schemes used by other database abstraction
// layers to the ones dburl understands.
var schemeAliases = map[string]string{
	"pdo-mysql":  "mysql",
	"pdo_mysql":  "mysql",
	"mysql2":     "mysql",
	"mysqli":     "mysql",
	"pdo-pgsql":  "postgres",
	"pdo_pgsql":  "postgres",
	"pgsql":      "postgres",
	"pdo-sqlsrv": "sqlserver",
	"pdo_sqlsrv": "sqlserver",
	"pdo-sqlite": "sqlite",
	"pdo_sqlite": "sqlite",
	"sqlite3":    "sqlite",
}

// driverPlatforms maps a database/sql driver name to a platform.
var driverPlatforms = map[string]string{
	"mysql":     core.PlatformMySQL,
	"postgres":  core.PlatformPostgreSQL,
	"pgx":       core.PlatformPostgreSQL,
	"sqlserver": core.PlatformSQLServer,
	"sqlite":    core.PlatformSQLite,
}

// Parse resolves urlstr to a driver name, a DSN and a platform without
// connecting.
func Parse(urlstr string) (driver, dsn, platformName string, err error) {
	urlstr = strings.TrimSpace(urlstr)
	scheme, rest, ok := strings.Cut(urlstr, ":")
	if !ok || scheme == "" {
		return "", "", "", fmt.Errorf("introspect: invalid database url %q", urlstr)
	}
	scheme = strings.ToLower(scheme)
	if alias, ok := schemeAliases[scheme]; ok {
		scheme = alias
	}

	if scheme == "sqlite" || scheme == "file" {
		path := sqlitePath(rest)
		if path == "" {
			return "", "", "", fmt.Errorf("introspect: sqlite database path is required")
		}
		return "sqlite", path, core.PlatformSQLite, nil
	}

	u, err := dburl.Parse(scheme + ":" + rest)
	if err != nil {
		return "", "", "", fmt.Errorf("introspect: parse url: %w", err)
	}
	driver = u.Driver
	platformName, ok = driverPlatforms[driver]
	if !ok {
		return "", "", "", fmt.Errorf("introspect: no platform for driver %q", driver)
	}
	if scheme == "mariadb" || scheme == "maria" {
		platformName = core.PlatformMariaDB
	}
	return driver, u.DSN, platformName, nil
}

// sqlitePath extracts the file path of sqlite:///path, sqlite:path and
// file:path URLs. ":memory:" selects an in-memory database.
func sqlitePath(rest string) string {
	path := strings.TrimPrefix(rest, "//")
	switch strings.ToLower(path) {
	case ":memory:", "memory", "/:memory:":
		return ":memory:"
	}
	return path
}

// Open connects to the database named by urlstr and pings it.
func Open(ctx context.Context, urlstr string) (*Conn, error) {
	driver, dsn, platformName, err := Parse(urlstr)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("introspect: open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("introspect: connect %s: %w", driver, err)
	}
	return &Conn{DB: db, Platform: platformName, Driver: driver}, nil
}
