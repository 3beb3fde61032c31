package dialect

import (
	"fmt"
	"strings"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Driver() string { return "postgres" }

func (d *PostgresDialect) CurrentDate() string { return "CURRENT_DATE" }

func (d *PostgresDialect) DaysAgo(days int) string {
	return fmt.Sprintf("CURRENT_DATE - INTERVAL '%d day'", days)
}

func (d *PostgresDialect) MonthStart() string {
	return "DATE_TRUNC('month', CURRENT_DATE)"
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), vals)
}

func (d *PostgresDialect) AutoIncrementPK() string { return "BIGSERIAL PRIMARY KEY" }
