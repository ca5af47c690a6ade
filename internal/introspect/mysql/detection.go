package mysql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/CNLSJohnDoe/doctrine-dbal/internal/core"
)

func detectPlatform(ctx context.Context, db *sql.DB) (string, string, error) {
	var varName, comment string

	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", "", err
	}

	version := getVersion(ctx, db)
	if strings.Contains(strings.ToLower(comment), "mariadb") || strings.Contains(strings.ToLower(version), "mariadb") {
		return core.PlatformMariaDB, trimVersion(version), nil
	}
	return core.PlatformMySQL, trimVersion(version), nil
}

func getVersion(ctx context.Context, db *sql.DB) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return version
}

// trimVersion drops build suffixes, "10.11.6-MariaDB-1:10.11.6" becomes
// "10.11.6".
func trimVersion(version string) string {
	if idx := strings.Index(version, "-"); idx > 0 {
		return version[:idx]
	}
	return version
}
