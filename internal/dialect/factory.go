package dialect

import "strings"

// Factory returns the appropriate Dialect implementation based on driver name.
func GetDialect(driver string) Dialect {
	switch driver {
	case "postgres", "postgresql":
		return &PostgresDialect{}
	default: // mysql
		return &MysqlDialect{}
	}
}

// DetectDriver guesses the driver from the DSN shape when MFG_DB_DRIVER is
// not set. MySQL DSNs look like user:pass@tcp(host:port)/db; Postgres DSNs
// use a URL scheme or key=value form with sslmode.
func DetectDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"),
		strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "sslmode="),
		strings.Contains(lower, "host="):
		return "postgres"
	default:
		return "mysql"
	}
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
