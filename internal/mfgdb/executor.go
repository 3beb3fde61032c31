// Package mfgdb executes sanitized statements against the manufacturing
// store (MySQL or PostgreSQL) and shapes rows into a transport-friendly
// form. Nothing here validates SQL; callers must pass statements through
// sqlguard first.
package mfgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Result is one query's worth of rows. Row values are scalars only:
// string, float64, int64, bool or nil.
type Result struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	// ElapsedMS is the store round-trip time. Kept off the wire; the API
	// reports the whole pipeline's elapsed time instead.
	ElapsedMS float64 `json:"-"`
}

// ErrKind classifies execution failures.
type ErrKind string

const (
	ErrStoreRejected ErrKind = "store_rejected" // bad identifier, syntax error, permission
	ErrTimeout       ErrKind = "timeout"
)

type ExecError struct {
	Kind ErrKind
	Msg  string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Executor issues read-only statements against the manufacturing store.
// Safe for concurrent use; the underlying pool handles connection reuse.
type Executor struct {
	db *sql.DB
}

func Open(driver, dsn string) (*Executor, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open manufacturing store: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Executor{db: db}, nil
}

func (e *Executor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Executor) Close() error {
	return e.db.Close()
}

// Execute runs one sanitized statement under the caller's context deadline.
// Store-side rejections (unknown table, syntax) come back as StoreRejected;
// a deadline hit cancels the statement at the driver level and comes back
// as Timeout.
func (e *Executor) Execute(ctx context.Context, query string) (*Result, error) {
	start := time.Now()

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, execError(ctx, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, execError(ctx, err)
	}
	decimal := decimalColumns(rows, len(cols))

	out := make([]map[string]any, 0, 16)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, execError(ctx, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i], decimal[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, execError(ctx, err)
	}

	return &Result{
		Columns:   cols,
		Rows:      out,
		RowCount:  len(out),
		ElapsedMS: float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}

func execError(ctx context.Context, err error) *ExecError {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return &ExecError{Kind: ErrTimeout, Msg: "query exceeded the statement timeout"}
	}
	return &ExecError{Kind: ErrStoreRejected, Msg: err.Error()}
}

// decimalColumns marks which columns the store reports as DECIMAL/NUMERIC,
// so their byte-slice values can be converted to float64.
func decimalColumns(rows *sql.Rows, n int) []bool {
	decimal := make([]bool, n)
	types, err := rows.ColumnTypes()
	if err != nil || len(types) != n {
		return decimal
	}
	for i, t := range types {
		switch t.DatabaseTypeName() {
		case "DECIMAL", "NUMERIC":
			decimal[i] = true
		}
	}
	return decimal
}

// normalizeValue converts driver-native values into scalars that survive
// JSON round-trips: decimals to float64, times to RFC 3339 strings, other
// byte slices to plain strings.
func normalizeValue(v any, isDecimal bool) any {
	switch val := v.(type) {
	case []byte:
		if isDecimal {
			if f, err := strconv.ParseFloat(string(val), 64); err == nil {
				return f
			}
		}
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return v
	}
}
