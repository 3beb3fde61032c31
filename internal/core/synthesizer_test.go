package core

import (
	"testing"

	"github.com/mes-labs/plantquery/internal/catalog"
)

func TestSynthesize(t *testing.T) {
	s := NewSynthesizer(testSnapshot())

	tests := []struct {
		name   string
		intent QueryIntent
		want   string
	}{
		{
			"bare aggregate with date filter",
			QueryIntent{
				CandidateTables: []string{"production_data"},
				Aggregation:     AggSum,
				AggregateColumn: "actual_quantity",
				DateFilter:      &DateFilter{Column: "production_date", Expr: "CURDATE()"},
			},
			"SELECT SUM(actual_quantity) AS total_actual_quantity FROM production_data WHERE production_date = CURDATE();",
		},
		{
			"grouped aggregate orders by its grouping columns",
			QueryIntent{
				CandidateTables: []string{"production_data"},
				Aggregation:     AggSum,
				AggregateColumn: "actual_quantity",
				GroupBy:         []string{"line_id"},
			},
			"SELECT line_id, SUM(actual_quantity) AS total_actual_quantity FROM production_data GROUP BY line_id ORDER BY line_id;",
		},
		{
			"plain listing orders by identity descending",
			QueryIntent{CandidateTables: []string{"production_data"}},
			"SELECT * FROM production_data ORDER BY id DESC;",
		},
		{
			"count renders a star count",
			QueryIntent{
				CandidateTables: []string{"defect_data"},
				Aggregation:     AggCount,
				DateFilter:      &DateFilter{Column: "DATE(detected_at)", Expr: "DATE_SUB(CURDATE(), INTERVAL 1 DAY)"},
			},
			"SELECT COUNT(*) AS total_count FROM defect_data WHERE DATE(detected_at) = DATE_SUB(CURDATE(), INTERVAL 1 DAY);",
		},
		{
			"date and status predicates combine with AND",
			QueryIntent{
				CandidateTables: []string{"equipment_data"},
				DateFilter:      &DateFilter{Column: "recorded_date", Expr: "CURDATE()"},
				StatusFilter:    "가동",
			},
			"SELECT * FROM equipment_data WHERE recorded_date = CURDATE() AND status = '가동' ORDER BY id DESC;",
		},
		{
			"alias does not double a shared prefix",
			QueryIntent{
				CandidateTables: []string{"hourly_production_summary"},
				Aggregation:     AggSum,
				AggregateColumn: "total_actual",
				GroupBy:         []string{"line_id", "production_hour"},
			},
			"SELECT line_id, production_hour, SUM(total_actual) AS total_actual FROM hourly_production_summary GROUP BY line_id, production_hour ORDER BY line_id, production_hour;",
		},
		{
			"average aliases with avg prefix",
			QueryIntent{
				CandidateTables: []string{"daily_production_summary"},
				Aggregation:     AggAvg,
				AggregateColumn: "achievement_rate",
				GroupBy:         []string{"production_date"},
			},
			"SELECT production_date, AVG(achievement_rate) AS avg_achievement_rate FROM daily_production_summary GROUP BY production_date ORDER BY production_date;",
		},
		{
			"empty intent falls back to the default table",
			QueryIntent{},
			"SELECT * FROM production_data ORDER BY id DESC;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Synthesize(tt.intent); got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	s := NewSynthesizer(testSnapshot())
	intent := QueryIntent{
		CandidateTables: []string{"production_data"},
		Aggregation:     AggSum,
		AggregateColumn: "actual_quantity",
		GroupBy:         []string{"line_id", "shift"},
		DateFilter:      &DateFilter{Column: "production_date", Expr: "CURDATE()"},
	}

	first := s.Synthesize(intent)
	for i := 0; i < 10; i++ {
		if got := s.Synthesize(intent); got != first {
			t.Fatalf("rendering changed between calls: %q vs %q", first, got)
		}
	}
}

func TestSynthesizeIdentityFallbackWithoutIDColumn(t *testing.T) {
	snap := catalog.New(nil, []catalog.TableMeta{
		{Name: "production_data", Columns: []catalog.ColumnMeta{
			{Name: "production_date", Type: "DATE"},
			{Name: "line_id", Type: "VARCHAR"},
		}},
	}, nil)
	s := NewSynthesizer(snap)

	got := s.Synthesize(QueryIntent{CandidateTables: []string{"production_data"}})
	want := "SELECT * FROM production_data ORDER BY production_date DESC;"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
