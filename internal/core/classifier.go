package core

import (
	"strings"

	"github.com/mes-labs/plantquery/internal/catalog"
	"github.com/mes-labs/plantquery/internal/dialect"
)

// AggOp is an aggregate function the synthesizer may render.
type AggOp string

const (
	AggSum   AggOp = "SUM"
	AggAvg   AggOp = "AVG"
	AggCount AggOp = "COUNT"
	AggMax   AggOp = "MAX"
	AggMin   AggOp = "MIN"
)

// DateFilter is an equality predicate on a date column, with the right-hand
// side a store-native expression evaluated at execution time.
type DateFilter struct {
	Column string
	Expr   string
}

// QueryIntent is the structured reading of a corrected question. It is
// created fresh per request and never mutated once the synthesizer has
// consumed it.
type QueryIntent struct {
	CandidateTables []string
	Aggregation     AggOp // empty when the question asks for rows, not a number
	AggregateColumn string
	GroupBy         []string
	DateFilter      *DateFilter
	StatusFilter    string
	RawQuestion     string
	Hints           []string
}

// Table returns the selected table: the first candidate, or the default
// production table when classification matched nothing.
func (qi *QueryIntent) Table() string {
	if len(qi.CandidateTables) > 0 {
		return qi.CandidateTables[0]
	}
	return defaultTable
}

const defaultTable = "production_data"

// Rule tables. Each is an ordered list evaluated top to bottom; for table,
// aggregation and status rules the first matching entry wins, which makes
// the tie-break between overlapping keywords explicit and auditable.

type tableRule struct {
	keywords []string
	table    string
}

var tableRules = []tableRule{
	{[]string{"설비", "장비", "다운타임", "가동", "정지", "점검", "정비", "유지보수"}, "equipment_data"},
	{[]string{"일별", "날짜별"}, "daily_production_summary"},
	{[]string{"시간별", "시각별"}, "hourly_production_summary"},
	{[]string{"불량", "결함"}, "defect_data"},
}

type aggRule struct {
	keywords []string
	op       AggOp
}

var aggRules = []aggRule{
	{[]string{"평균"}, AggAvg},
	{[]string{"최대", "최고"}, AggMax},
	{[]string{"최소", "최저"}, AggMin},
	{[]string{"몇개", "몇 개", "개수", "건수", "몇"}, AggCount},
	{[]string{"불량률", "불량율", "달성률", "달성율"}, AggAvg},
	{[]string{"합계", "총", "생산량", "생산", "불량량", "불량"}, AggSum},
}

// groupRules resolve per table because the grouping column differs between
// the production and equipment tables. Unlike table rules these combine:
// "라인별 시간별" groups by both.
type groupRule struct {
	keywords []string
	columns  map[string]string // table -> column
	fallback string
}

var groupRules = []groupRule{
	{[]string{"라인별"}, nil, "line_id"},
	{[]string{"제품별", "상품별"}, nil, "product_code"},
	{[]string{"시간별", "시각별"}, map[string]string{"equipment_data": "recorded_hour"}, "production_hour"},
	{[]string{"일별", "날짜별"}, map[string]string{"equipment_data": "recorded_date"}, "production_date"},
	{[]string{"근무조별", "조별"}, nil, "shift"},
	{[]string{"유형별"}, nil, "defect_type"},
	{[]string{"설비별"}, nil, "equipment_id"},
}

type statusRule struct {
	keyword string
	value   string
}

// Status keywords arrive already normalized by the term dictionary
// (가동중 -> 가동 and so on). First match wins.
var statusRules = []statusRule{
	{"가동", "가동"},
	{"정지", "정지"},
	{"점검", "점검"},
}

type dateRule struct {
	keyword string
	expr    string
}

// Classifier maps a corrected question to a QueryIntent using the ordered
// rule tables above. The schema snapshot is consulted so that a rule never
// emits a column the selected table does not have.
type Classifier struct {
	snap      *catalog.Snapshot
	dateRules []dateRule
}

// NewClassifier renders the relative-date table against the store dialect
// once, so every request reuses the same expressions.
func NewClassifier(snap *catalog.Snapshot, d dialect.Dialect) *Classifier {
	return &Classifier{
		snap: snap,
		dateRules: []dateRule{
			{"오늘", d.CurrentDate()},
			{"어제", d.DaysAgo(1)},
			{"그저께", d.DaysAgo(2)},
			{"지난주", d.DaysAgo(7)},
			{"최근7일", d.DaysAgo(7)},
			{"최근 7일", d.DaysAgo(7)},
			{"지난달", d.DaysAgo(30)},
			{"최근30일", d.DaysAgo(30)},
			{"최근 30일", d.DaysAgo(30)},
			{"이번달", d.MonthStart()},
		},
	}
}

// Classify never fails: a question that matches no rule degrades to an
// unfiltered listing on the default table, which the synthesizer turns into
// a bounded SELECT * ordered by the identity column.
func (c *Classifier) Classify(corrected string) QueryIntent {
	q := strings.ToLower(corrected)

	intent := QueryIntent{RawQuestion: corrected}

	table := c.selectTable(q)
	intent.CandidateTables = []string{table}

	if op, ok := c.detectAggregation(q); ok {
		intent.Aggregation = op
		if op != AggCount {
			intent.AggregateColumn = c.aggregateColumn(table, q)
		}
	}

	intent.GroupBy = c.buildGroupBy(table, q)

	if df, ok := c.dateFilter(table, q); ok {
		intent.DateFilter = &df
	}

	if c.snap.HasColumn(table, "status") {
		for _, r := range statusRules {
			if strings.Contains(q, r.keyword) {
				intent.StatusFilter = r.value
				break
			}
		}
	}

	intent.Hints = c.snap.KnowledgeFor(table, 3)

	return intent
}

// selectTable returns the first table whose keyword set matches, defaulting
// to production_data. Tables unknown to the snapshot are skipped so a stale
// rule cannot emit a query against a missing table.
func (c *Classifier) selectTable(q string) string {
	for _, r := range tableRules {
		if !c.snap.HasTable(r.table) {
			continue
		}
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.table
			}
		}
	}
	return defaultTable
}

func (c *Classifier) detectAggregation(q string) (AggOp, bool) {
	for _, r := range aggRules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.op, true
			}
		}
	}
	return "", false
}

// aggregateColumn picks the measure column for a table, steered by question
// context: "계획 생산량" sums the plan, plain "생산량" the actuals.
func (c *Classifier) aggregateColumn(table, q string) string {
	rate := strings.Contains(q, "률") || strings.Contains(q, "율")
	var col string
	switch table {
	case "production_data":
		switch {
		case strings.Contains(q, "계획"):
			col = "planned_quantity"
		case strings.Contains(q, "불량"):
			col = "defect_quantity"
		default:
			col = "actual_quantity"
		}
	case "defect_data":
		if rate {
			col = "defect_rate"
		} else {
			col = "defect_quantity"
		}
	case "equipment_data":
		if strings.Contains(q, "정지") || strings.Contains(q, "다운타임") {
			col = "downtime"
		} else {
			col = "operation_time"
		}
	case "daily_production_summary":
		switch {
		case strings.Contains(q, "달성"):
			col = "achievement_rate"
		case strings.Contains(q, "불량") && rate:
			col = "defect_rate"
		case strings.Contains(q, "불량"):
			col = "total_defects"
		case strings.Contains(q, "계획"):
			col = "total_planned"
		default:
			col = "total_actual"
		}
	case "hourly_production_summary":
		if strings.Contains(q, "불량") {
			col = "total_defects"
		} else {
			col = "total_actual"
		}
	}
	if col == "" || !c.snap.HasColumn(table, col) {
		return c.snap.IdentityColumn(table)
	}
	return col
}

// buildGroupBy collects every grouping keyword present in the question.
// Keywords resolving to a column the table lacks are dropped, and a column
// is never listed twice.
func (c *Classifier) buildGroupBy(table, q string) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range groupRules {
		matched := false
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		col := r.fallback
		if override, ok := r.columns[table]; ok {
			col = override
		}
		if !c.snap.HasColumn(table, col) || seen[col] {
			continue
		}
		seen[col] = true
		cols = append(cols, col)
	}
	return cols
}

// dateFilter resolves the first relative-date keyword against the table's
// date column. Questions with no date keyword get no implicit filter.
func (c *Classifier) dateFilter(table, q string) (DateFilter, bool) {
	for _, r := range c.dateRules {
		if !strings.Contains(q, r.keyword) {
			continue
		}
		return DateFilter{Column: dateColumnFor(table), Expr: r.expr}, true
	}
	return DateFilter{}, false
}

func dateColumnFor(table string) string {
	switch table {
	case "equipment_data":
		return "recorded_date"
	case "defect_data":
		// detected_at is a timestamp, so compare its date part.
		return "DATE(detected_at)"
	default:
		return "production_date"
	}
}
