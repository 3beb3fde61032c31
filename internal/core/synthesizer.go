package core

import (
	"fmt"
	"strings"

	"github.com/mes-labs/plantquery/internal/catalog"
)

// Synthesizer renders a QueryIntent into a single SQL statement. Clauses
// are emitted in a fixed order: SELECT, FROM, WHERE, GROUP BY, ORDER BY.
// The row cap is deliberately not applied here; appending LIMIT is the
// validator's job, so synthesis and safety stay separately testable.
type Synthesizer struct {
	snap *catalog.Snapshot
}

func NewSynthesizer(snap *catalog.Snapshot) *Synthesizer {
	return &Synthesizer{snap: snap}
}

// Synthesize is deterministic: the same intent always renders the same
// statement, whitespace included.
func (s *Synthesizer) Synthesize(intent QueryIntent) string {
	table := intent.Table()

	parts := []string{s.selectClause(intent), "FROM " + table}

	if where := whereClause(intent); where != "" {
		parts = append(parts, where)
	}
	if len(intent.GroupBy) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(intent.GroupBy, ", "))
	}
	if order := s.orderClause(intent, table); order != "" {
		parts = append(parts, order)
	}

	return strings.Join(parts, " ") + ";"
}

func (s *Synthesizer) selectClause(intent QueryIntent) string {
	if intent.Aggregation == "" {
		return "SELECT *"
	}
	cols := make([]string, 0, len(intent.GroupBy)+1)
	cols = append(cols, intent.GroupBy...)
	cols = append(cols, aggregateExpr(intent.Aggregation, intent.AggregateColumn))
	return "SELECT " + strings.Join(cols, ", ")
}

// aggregateExpr renders the aggregate with a stable alias so result columns
// keep the same name from one request to the next.
func aggregateExpr(op AggOp, col string) string {
	if op == AggCount {
		return "COUNT(*) AS total_count"
	}
	prefix := map[AggOp]string{
		AggSum: "total_",
		AggAvg: "avg_",
		AggMax: "max_",
		AggMin: "min_",
	}[op]
	alias := prefix + col
	if strings.HasPrefix(col, prefix) {
		alias = col
	}
	return fmt.Sprintf("%s(%s) AS %s", op, col, alias)
}

func whereClause(intent QueryIntent) string {
	var preds []string
	if intent.DateFilter != nil {
		preds = append(preds, fmt.Sprintf("%s = %s", intent.DateFilter.Column, intent.DateFilter.Expr))
	}
	if intent.StatusFilter != "" {
		preds = append(preds, fmt.Sprintf("status = '%s'", intent.StatusFilter))
	}
	if len(preds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(preds, " AND ")
}

// orderClause keeps results deterministic: grouped queries order by their
// grouping columns, plain listings by the identity column newest first.
// A bare aggregate returns a single row, so it gets no ORDER BY.
func (s *Synthesizer) orderClause(intent QueryIntent, table string) string {
	if len(intent.GroupBy) > 0 {
		return "ORDER BY " + strings.Join(intent.GroupBy, ", ")
	}
	if intent.Aggregation != "" {
		return ""
	}
	return fmt.Sprintf("ORDER BY %s DESC", s.snap.IdentityColumn(table))
}
