package main

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"github.com/mes-labs/plantquery/internal/dialect"
)

var (
	pumpDays int
	pumpDrop bool
)

var pumpCmd = &cobra.Command{
	Use:   "pump",
	Short: "Create the manufacturing tables and fill them with sample data",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, d, err := openMfg()
		if err != nil {
			return err
		}
		defer db.Close()

		if pumpDrop {
			log.Println("Dropping existing manufacturing tables...")
			for _, stmt := range dropStatements() {
				if _, err := db.Exec(stmt); err != nil {
					return fmt.Errorf("drop failed: %w", err)
				}
			}
		}

		log.Println("Creating manufacturing schema...")
		for _, stmt := range createStatements(d) {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("schema creation failed: %w", err)
			}
		}

		log.Printf("Generating %d days of sample data...", pumpDays)
		start := time.Now()
		uiprogress.Start()

		production, err := pumpProduction(db, d, pumpDays)
		if err != nil {
			uiprogress.Stop()
			return err
		}
		defects, err := pumpDefects(db, d)
		if err != nil {
			uiprogress.Stop()
			return err
		}
		equipment, err := pumpEquipment(db, d, pumpDays)
		if err != nil {
			uiprogress.Stop()
			return err
		}

		uiprogress.Stop()

		fmt.Println("\nSummary:")
		fmt.Printf("  production_data: %d rows\n", production)
		fmt.Printf("  defect_data:     %d rows\n", defects)
		fmt.Printf("  equipment_data:  %d rows\n", equipment)
		log.Printf("Pump done in %s", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pumpCmd)

	pumpCmd.Flags().IntVar(&pumpDays, "days", 7, "Number of days of data to generate, ending today")
	pumpCmd.Flags().BoolVar(&pumpDrop, "drop", false, "Drop and recreate the manufacturing tables first")
}

// dropStatements tears down in dependency order: views first, then
// referencing tables, then production_data.
func dropStatements() []string {
	return []string{
		"DROP VIEW IF EXISTS hourly_production_summary",
		"DROP VIEW IF EXISTS daily_production_summary",
		"DROP TABLE IF EXISTS defect_data",
		"DROP TABLE IF EXISTS equipment_data",
		"DROP TABLE IF EXISTS production_data",
	}
}

func createStatements(d dialect.Dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS production_data (
	id %s,
	line_id VARCHAR(20) NOT NULL,
	product_code VARCHAR(20) NOT NULL,
	product_name VARCHAR(100) NOT NULL,
	planned_quantity INT NOT NULL,
	actual_quantity INT NOT NULL,
	defect_quantity INT NOT NULL,
	production_date DATE NOT NULL,
	production_hour SMALLINT NOT NULL,
	shift VARCHAR(10) NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, d.AutoIncrementPK()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS defect_data (
	id %s,
	production_id BIGINT NOT NULL,
	defect_code VARCHAR(20) NOT NULL,
	defect_name VARCHAR(100) NOT NULL,
	defect_quantity INT NOT NULL,
	defect_rate DECIMAL(5,2) NOT NULL,
	defect_type VARCHAR(20) NOT NULL,
	detected_at TIMESTAMP NOT NULL,
	FOREIGN KEY (production_id) REFERENCES production_data(id)
)`, d.AutoIncrementPK()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS equipment_data (
	id %s,
	equipment_id VARCHAR(20) NOT NULL,
	equipment_name VARCHAR(100) NOT NULL,
	line_id VARCHAR(20) NOT NULL,
	status VARCHAR(10) NOT NULL,
	operation_time INT NOT NULL,
	downtime INT NOT NULL,
	downtime_reason VARCHAR(100),
	recorded_date DATE NOT NULL,
	recorded_hour SMALLINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, d.AutoIncrementPK()),
		`CREATE OR REPLACE VIEW daily_production_summary AS
SELECT production_date,
	line_id,
	SUM(planned_quantity) AS total_planned,
	SUM(actual_quantity) AS total_actual,
	SUM(defect_quantity) AS total_defects,
	ROUND(SUM(defect_quantity) * 100.0 / NULLIF(SUM(actual_quantity), 0), 2) AS defect_rate,
	ROUND(SUM(actual_quantity) * 100.0 / NULLIF(SUM(planned_quantity), 0), 2) AS achievement_rate
FROM production_data
GROUP BY production_date, line_id`,
		`CREATE OR REPLACE VIEW hourly_production_summary AS
SELECT production_date,
	production_hour,
	line_id,
	SUM(actual_quantity) AS total_actual,
	SUM(defect_quantity) AS total_defects,
	ROUND(SUM(defect_quantity) * 100.0 / NULLIF(SUM(actual_quantity), 0), 2) AS defect_rate
FROM production_data
GROUP BY production_date, production_hour, line_id`,
	}
}

// pumpProduction inserts one row per line per hour for each generated day,
// the last day being today so relative-date queries return data.
func pumpProduction(db *sql.DB, d dialect.Dialect, days int) (int, error) {
	lines := []string{"LINE-01", "LINE-02", "LINE-03"}
	products := []struct{ code, name string }{
		{"P001", "제품A"},
		{"P002", "제품B"},
		{"P003", "제품C"},
	}

	total := days * len(lines) * 24
	bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return "production_data: "
	})

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(d.InsertQuery("production_data", []string{
		"line_id", "product_code", "product_name",
		"planned_quantity", "actual_quantity", "defect_quantity",
		"production_date", "production_hour", "shift", "created_at",
	}))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	today := time.Now()
	inserted := 0
	for day := days - 1; day >= 0; day-- {
		date := today.AddDate(0, 0, -day)
		for _, line := range lines {
			for hour := 0; hour < 24; hour++ {
				product := products[gofakeit.Number(0, len(products)-1)]
				planned := gofakeit.Number(80, 120)
				actual := planned + gofakeit.Number(-8, 5)
				defect := gofakeit.Number(0, actual/30)

				shift := "야간"
				if hour >= 8 && hour < 20 {
					shift = "주간"
				}
				createdAt := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.Local)

				_, err := stmt.Exec(line, product.code, product.name,
					planned, actual, defect,
					date.Format("2006-01-02"), hour, shift, createdAt)
				if err != nil {
					return inserted, fmt.Errorf("insert into production_data failed: %w", err)
				}
				inserted++
				bar.Incr()
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// pumpDefects reads back the production rows that recorded defects and
// files one defect record per row. Querying for the generated ids keeps
// this portable; lib/pq does not support LastInsertId.
func pumpDefects(db *sql.DB, d dialect.Dialect) (int, error) {
	types := []struct{ code, name, kind string }{
		{"D001", "외관 불량", "외관"},
		{"D002", "기능 불량", "기능"},
		{"D003", "치수 불량", "치수"},
	}

	rows, err := db.Query(`SELECT id, actual_quantity, defect_quantity, production_date, production_hour
FROM production_data WHERE defect_quantity > 0`)
	if err != nil {
		return 0, err
	}

	type candidate struct {
		id       int64
		actual   int
		quantity int
		date     time.Time
		hour     int
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var rawDate any
		if err := rows.Scan(&c.id, &c.actual, &c.quantity, &rawDate, &c.hour); err != nil {
			rows.Close()
			return 0, err
		}
		if c.date, err = asTime(rawDate); err != nil {
			rows.Close()
			return 0, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if len(candidates) == 0 {
		return 0, nil
	}

	bar := uiprogress.AddBar(len(candidates)).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return "defect_data:     "
	})

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(d.InsertQuery("defect_data", []string{
		"production_id", "defect_code", "defect_name",
		"defect_quantity", "defect_rate", "defect_type", "detected_at",
	}))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range candidates {
		t := types[gofakeit.Number(0, len(types)-1)]
		rate := 0.0
		if c.actual > 0 {
			rate = math.Round(float64(c.quantity)*10000/float64(c.actual)) / 100
		}
		detectedAt := time.Date(c.date.Year(), c.date.Month(), c.date.Day(),
			c.hour, gofakeit.Number(0, 59), 0, 0, time.Local)

		_, err := stmt.Exec(c.id, t.code, t.name, c.quantity, rate, t.kind, detectedAt)
		if err != nil {
			return inserted, fmt.Errorf("insert into defect_data failed: %w", err)
		}
		inserted++
		bar.Incr()
	}

	if err := tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// pumpEquipment inserts one status row per machine per hour for each
// generated day. Status is weighted so machines run most of the time.
func pumpEquipment(db *sql.DB, d dialect.Dialect, days int) (int, error) {
	machines := []struct{ id, name, line string }{
		{"EQ-01", "프레스 기계", "LINE-01"},
		{"EQ-02", "용접 기계", "LINE-01"},
		{"EQ-03", "조립 라인", "LINE-02"},
		{"EQ-04", "검사 기계", "LINE-02"},
		{"EQ-05", "포장 기계", "LINE-03"},
	}
	stopReasons := []string{"설비 고장", "자재 대기", "금형 교체"}

	total := days * len(machines) * 24
	bar := uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return "equipment_data:  "
	})

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(d.InsertQuery("equipment_data", []string{
		"equipment_id", "equipment_name", "line_id",
		"status", "operation_time", "downtime", "downtime_reason",
		"recorded_date", "recorded_hour", "created_at",
	}))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	today := time.Now()
	inserted := 0
	for day := days - 1; day >= 0; day-- {
		date := today.AddDate(0, 0, -day)
		for _, m := range machines {
			for hour := 0; hour < 24; hour++ {
				var status string
				var downtime int
				var reason any
				switch roll := gofakeit.Number(1, 100); {
				case roll <= 80:
					status = "가동"
					downtime = gofakeit.Number(0, 5)
					if downtime > 0 {
						reason = "자재 대기"
					}
				case roll <= 90:
					status = "정지"
					downtime = gofakeit.Number(30, 60)
					reason = stopReasons[gofakeit.Number(0, len(stopReasons)-1)]
				default:
					status = "점검"
					downtime = gofakeit.Number(15, 45)
					reason = "정기점검"
				}
				createdAt := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, time.Local)

				_, err := stmt.Exec(m.id, m.name, m.line,
					status, 60-downtime, downtime, reason,
					date.Format("2006-01-02"), hour, createdAt)
				if err != nil {
					return inserted, fmt.Errorf("insert into equipment_data failed: %w", err)
				}
				inserted++
				bar.Incr()
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// asTime normalizes a scanned DATE value. The MySQL driver returns []byte
// unless parseTime is set, Postgres returns time.Time.
func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return time.Parse("2006-01-02", string(t))
	case string:
		return time.Parse("2006-01-02", t)
	}
	return time.Time{}, fmt.Errorf("unsupported date value of type %T", v)
}
