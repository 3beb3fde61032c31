package core

import (
	"reflect"
	"testing"

	"github.com/mes-labs/plantquery/internal/catalog"
	"github.com/mes-labs/plantquery/internal/dialect"
)

func newTestClassifier() *Classifier {
	return NewClassifier(testSnapshot(), dialect.GetDialect("mysql"))
}

func TestClassify(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name     string
		question string
		table    string
		agg      AggOp
		aggCol   string
		groupBy  []string
		dateCol  string
		dateExpr string
		status   string
	}{
		{
			name:     "sum of today's production",
			question: "오늘 생산량은?",
			table:    "production_data",
			agg:      AggSum,
			aggCol:   "actual_quantity",
			dateCol:  "production_date",
			dateExpr: "CURDATE()",
		},
		{
			name:     "production grouped by line",
			question: "라인별 생산량은?",
			table:    "production_data",
			agg:      AggSum,
			aggCol:   "actual_quantity",
			groupBy:  []string{"line_id"},
		},
		{
			name:     "defect count for yesterday",
			question: "어제 불량 몇개야?",
			table:    "defect_data",
			agg:      AggCount,
			dateCol:  "DATE(detected_at)",
			dateExpr: "DATE_SUB(CURDATE(), INTERVAL 1 DAY)",
		},
		{
			name:     "downtime total for equipment",
			question: "설비 다운타임 합계",
			table:    "equipment_data",
			agg:      AggSum,
			aggCol:   "downtime",
		},
		{
			name:     "average achievement rate per day",
			question: "일별 달성률 평균은?",
			table:    "daily_production_summary",
			agg:      AggAvg,
			aggCol:   "achievement_rate",
			groupBy:  []string{"production_date"},
		},
		{
			name:     "hourly defect count groups by hour",
			question: "시간별 불량 개수",
			table:    "hourly_production_summary",
			agg:      AggCount,
			groupBy:  []string{"production_hour"},
		},
		{
			name:     "stopped equipment listing",
			question: "정지된 설비 목록",
			table:    "equipment_data",
			status:   "정지",
		},
		{
			name:     "grouping by line and hour combines",
			question: "라인별 시간별 생산량",
			table:    "hourly_production_summary",
			agg:      AggSum,
			aggCol:   "total_actual",
			groupBy:  []string{"line_id", "production_hour"},
		},
		{
			name:     "planned quantity steering",
			question: "이번달 계획 생산량 합계",
			table:    "production_data",
			agg:      AggSum,
			aggCol:   "planned_quantity",
			dateCol:  "production_date",
			dateExpr: "DATE_FORMAT(CURDATE(), '%Y-%m-01')",
		},
		{
			name:     "defect rate averages over the rate column",
			question: "불량률 평균",
			table:    "defect_data",
			agg:      AggAvg,
			aggCol:   "defect_rate",
		},
		{
			name:     "equipment date filter uses recorded_date",
			question: "오늘 설비 가동 시간 평균",
			table:    "equipment_data",
			agg:      AggAvg,
			aggCol:   "operation_time",
			dateCol:  "recorded_date",
			dateExpr: "CURDATE()",
			status:   "가동",
		},
		{
			name:     "grouping keyword dropped when the table lacks the column",
			question: "유형별 생산량",
			table:    "production_data",
			agg:      AggSum,
			aggCol:   "actual_quantity",
		},
		{
			name:     "unrecognized question falls back to a listing",
			question: "안녕하세요",
			table:    "production_data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := c.Classify(tt.question)

			if got := intent.Table(); got != tt.table {
				t.Errorf("table = %s, want %s", got, tt.table)
			}
			if intent.Aggregation != tt.agg {
				t.Errorf("aggregation = %q, want %q", intent.Aggregation, tt.agg)
			}
			if intent.AggregateColumn != tt.aggCol {
				t.Errorf("aggregate column = %q, want %q", intent.AggregateColumn, tt.aggCol)
			}
			if !reflect.DeepEqual(intent.GroupBy, tt.groupBy) {
				t.Errorf("group by = %v, want %v", intent.GroupBy, tt.groupBy)
			}
			if tt.dateCol == "" {
				if intent.DateFilter != nil {
					t.Errorf("unexpected date filter %+v", intent.DateFilter)
				}
			} else {
				if intent.DateFilter == nil {
					t.Fatalf("expected date filter on %s", tt.dateCol)
				}
				if intent.DateFilter.Column != tt.dateCol || intent.DateFilter.Expr != tt.dateExpr {
					t.Errorf("date filter = %+v, want %s = %s", intent.DateFilter, tt.dateCol, tt.dateExpr)
				}
			}
			if intent.StatusFilter != tt.status {
				t.Errorf("status filter = %q, want %q", intent.StatusFilter, tt.status)
			}
			if intent.RawQuestion != tt.question {
				t.Errorf("raw question = %q, want %q", intent.RawQuestion, tt.question)
			}
		})
	}
}

func TestClassifyAttachesKnowledgeHints(t *testing.T) {
	intent := newTestClassifier().Classify("오늘 생산량은?")

	if len(intent.Hints) == 0 {
		t.Fatal("expected knowledge hints for production_data")
	}
	if len(intent.Hints) > 3 {
		t.Errorf("hints = %d entries, want at most 3", len(intent.Hints))
	}
}

func TestClassifySkipsTablesMissingFromSnapshot(t *testing.T) {
	snap := catalog.New(nil, []catalog.TableMeta{
		{Name: "production_data", Columns: []catalog.ColumnMeta{
			{Name: "id", Type: "BIGINT"},
			{Name: "actual_quantity", Type: "INT"},
		}},
	}, nil)
	c := NewClassifier(snap, dialect.GetDialect("mysql"))

	intent := c.Classify("설비 가동 현황")

	if got := intent.Table(); got != "production_data" {
		t.Errorf("table = %s, want fallback to production_data", got)
	}
	if intent.StatusFilter != "" {
		t.Errorf("status filter = %q, want none without a status column", intent.StatusFilter)
	}
}

func TestIntentTableDefault(t *testing.T) {
	var intent QueryIntent
	if got := intent.Table(); got != "production_data" {
		t.Errorf("Table() = %s, want production_data", got)
	}
}
