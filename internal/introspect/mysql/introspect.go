// Package mysql reads MySQL and MariaDB schemas from information_schema.
// Both servers speak the same protocol, so the flavor is detected from the
// server version comment.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
	"github.com/CNLSJohnDoe/doctrine-dbal/internal/introspect"
)

func init() {
	introspect.Register(core.PlatformMySQL, New)
	introspect.Register(core.PlatformMariaDB, New)
}

type introspecter struct {
	log *slog.Logger
}

type introspectCtx struct {
	platform string
	version  string
	db       *sql.DB
	reg      *core.TypeRegistry
	log      *slog.Logger
	ctx      context.Context
}

// New returns an introspecter for MySQL and MariaDB. A nil log discards
// output.
func New(log *slog.Logger) introspect.Introspecter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &introspecter{log: log}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB, reg *core.TypeRegistry) (*core.Database, error) {
	d := &core.Database{Tables: []*core.Table{}}
	var name sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return nil, fmt.Errorf("mysql: current database: %w", err)
	}
	if !name.Valid {
		return nil, fmt.Errorf("mysql: no database selected")
	}
	d.Name = name.String

	platform, version, err := detectPlatform(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("mysql: detect platform: %w", err)
	}
	d.Platform = platform
	i.log.Debug("introspecting database", "database", d.Name, "platform", platform, "version", version)

	ic := &introspectCtx{
		platform: platform,
		version:  version,
		db:       db,
		reg:      reg,
		log:      i.log,
		ctx:      ctx,
	}
	if err := introspectTables(ic, d); err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	return d, nil
}
