package dialect

import (
	"fmt"
	"strings"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Driver() string { return "mysql" }

func (d *MysqlDialect) CurrentDate() string { return "CURDATE()" }

func (d *MysqlDialect) DaysAgo(days int) string {
	return fmt.Sprintf("DATE_SUB(CURDATE(), INTERVAL %d DAY)", days)
}

func (d *MysqlDialect) MonthStart() string {
	return "DATE_FORMAT(CURDATE(), '%Y-%m-01')"
}

func (d *MysqlDialect) Placeholder(index int) string { return "?" }

func (d *MysqlDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), vals)
}

func (d *MysqlDialect) AutoIncrementPK() string { return "BIGINT AUTO_INCREMENT PRIMARY KEY" }
