package dialect

import "strings"

// Dialect abstracts the store-specific SQL fragments the pipeline and the
// seeding CLI need: relative-date expressions evaluated by the store at
// execution time, placeholder style, and DDL bits.
type Dialect interface {
	// Driver returns the database/sql driver name to open connections with.
	Driver() string

	// Date expressions for relative-date filters. All evaluate on the store
	// side, relative to the store's current date.
	CurrentDate() string
	DaysAgo(days int) string
	MonthStart() string

	// Query/DDL generation
	Placeholder(index int) string // Returns ? or $1, $2, ...
	InsertQuery(table string, cols []string) string
	AutoIncrementPK() string
}

// GeneratePlaceholders builds the VALUES placeholder list for n columns.
func GeneratePlaceholders(n int, placeholder func(int) string) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}
