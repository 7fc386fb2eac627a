package db

import (
	"fmt"
	"net/url"
	"strings"

	"go.squit.io/squit/pkg/models"
)

// Driver names registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// DataSource translates a JDBC style address into a database/sql driver name and DSN.
// Supported are jdbc:postgresql://host[:port]/db and jdbc:sqlite:path.
func DataSource(cfg models.DatabaseConfig) (driver, dsn string, err error) {
	address, ok := strings.CutPrefix(cfg.JdbcAddress, "jdbc:")
	if !ok {
		return "", "", fmt.Errorf("%q is not a jdbc address", cfg.JdbcAddress)
	}

	switch {
	case strings.HasPrefix(address, "postgresql:"):
		u, err := url.Parse(strings.Replace(address, "postgresql:", "postgres:", 1))
		if err != nil {
			return "", "", fmt.Errorf("invalid postgres address %q: %w", cfg.JdbcAddress, err)
		}
		q := u.Query()
		user, password := cfg.Username, cfg.Password
		// jdbc passes credentials as query parameters, the triple takes precedence
		if user == "" {
			user = q.Get("user")
		}
		if password == "" {
			password = q.Get("password")
		}
		q.Del("user")
		q.Del("password")
		u.RawQuery = q.Encode()
		u.User = url.UserPassword(user, password)
		return DriverPostgres, u.String(), nil
	case strings.HasPrefix(address, "sqlite:"):
		path := strings.TrimPrefix(address, "sqlite:")
		if path == "" {
			return "", "", fmt.Errorf("sqlite address %q has no path", cfg.JdbcAddress)
		}
		return DriverSQLite, path, nil
	default:
		return "", "", fmt.Errorf("unsupported jdbc address %q", cfg.JdbcAddress)
	}
}
