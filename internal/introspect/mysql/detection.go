package mysql

import (
	"context"
	"database/sql"
	"strings"
)

const (
	FlavorMySQL   = "mysql"
	FlavorMariaDB = "mariadb"
	FlavorTiDB    = "tidb"
)

func detectFlavor(ctx context.Context, db *sql.DB) (string, string, error) {
	var varName, comment string

	err := db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment)
	if err != nil {
		return "", "", err
	}
	return flavorFromComment(comment), getVersion(ctx, db), nil
}

func flavorFromComment(comment string) string {
	comment = strings.ToLower(comment)
	switch {
	case strings.Contains(comment, "mariadb"):
		return FlavorMariaDB
	case strings.Contains(comment, "tidb"):
		return FlavorTiDB
	default:
		return FlavorMySQL
	}
}

func getVersion(ctx context.Context, db *sql.DB) string {
	var version string
	_ = db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return trimVersion(version)
}

func trimVersion(version string) string {
	if idx := strings.Index(version, "-"); idx > 0 {
		version = version[:idx]
	}
	return version
}
