package catalog

// Default seed content for the three catalogs. Loaded into the app store by
// `seedctl catalog` and used directly by tests.
//
// Date words (오늘, 어제, ...) are deliberately not dictionary entries: the
// classifier owns relative-date resolution, and a dictionary rewrite would
// remove the keyword before the classifier could see it.

func DefaultTerms() []TermEntry {
	return []TermEntry{
		// 생산 라인
		{Pattern: "1라인", Replacement: "LINE-01"},
		{Pattern: "2라인", Replacement: "LINE-02"},
		{Pattern: "3라인", Replacement: "LINE-03"},
		{Pattern: "라인1", Replacement: "LINE-01"},
		{Pattern: "라인2", Replacement: "LINE-02"},
		{Pattern: "라인3", Replacement: "LINE-03"},

		// 제품
		{Pattern: "제품A", Replacement: "P001"},
		{Pattern: "제품B", Replacement: "P002"},
		{Pattern: "제품C", Replacement: "P003"},
		{Pattern: "상품A", Replacement: "P001"},
		{Pattern: "상품B", Replacement: "P002"},
		{Pattern: "상품C", Replacement: "P003"},

		// 설비
		{Pattern: "Loading", Replacement: "로딩기"},
		{Pattern: "Unloader", Replacement: "언로더"},
		{Pattern: "프레스", Replacement: "프레스 기계"},
		{Pattern: "용접", Replacement: "용접 기계"},
		{Pattern: "조립", Replacement: "조립 라인"},
		{Pattern: "검사", Replacement: "검사 기계"},
		{Pattern: "포장", Replacement: "포장 기계"},

		// 상태
		{Pattern: "가동중", Replacement: "가동"},
		{Pattern: "점검중", Replacement: "점검"},
		{Pattern: "유지보수", Replacement: "정지"},

		// 근무조
		{Pattern: "낮", Replacement: "주간"},
		{Pattern: "밤", Replacement: "야간"},
	}
}

func DefaultTables() []TableMeta {
	return []TableMeta{
		{
			Name:        "production_data",
			Description: "생산 실적 데이터 (생산량, 불량량, 생산 시간 등)",
			Columns: []ColumnMeta{
				{Name: "id", Type: "BIGINT", Description: "생산 ID (PK)"},
				{Name: "line_id", Type: "VARCHAR", Description: "생산 라인 ID"},
				{Name: "product_code", Type: "VARCHAR", Description: "제품 코드"},
				{Name: "product_name", Type: "VARCHAR", Description: "제품명"},
				{Name: "planned_quantity", Type: "INT", Description: "계획 생산량"},
				{Name: "actual_quantity", Type: "INT", Description: "실제 생산량"},
				{Name: "defect_quantity", Type: "INT", Description: "불량 수량"},
				{Name: "production_date", Type: "DATE", Description: "생산 일자"},
				{Name: "production_hour", Type: "TINYINT", Description: "생산 시간 (0-23)"},
				{Name: "shift", Type: "VARCHAR", Description: "근무 조 (주간/야간)"},
				{Name: "created_at", Type: "TIMESTAMP", Description: "등록 일시"},
			},
		},
		{
			Name:        "defect_data",
			Description: "불량 데이터 (불량 코드, 불량 유형, 불량률 등)",
			Columns: []ColumnMeta{
				{Name: "id", Type: "BIGINT", Description: "불량 ID (PK)"},
				{Name: "production_id", Type: "BIGINT", Description: "생산 ID (FK)"},
				{Name: "defect_code", Type: "VARCHAR", Description: "불량 코드"},
				{Name: "defect_name", Type: "VARCHAR", Description: "불량명"},
				{Name: "defect_quantity", Type: "INT", Description: "불량 수량"},
				{Name: "defect_rate", Type: "DECIMAL", Description: "불량률 (%)"},
				{Name: "defect_type", Type: "VARCHAR", Description: "불량 유형 (외관/기능/치수)"},
				{Name: "detected_at", Type: "TIMESTAMP", Description: "감지 일시"},
			},
		},
		{
			Name:        "equipment_data",
			Description: "설비 가동 데이터 (설비 상태, 가동시간, 정지시간 등)",
			Columns: []ColumnMeta{
				{Name: "id", Type: "BIGINT", Description: "설비 ID (PK)"},
				{Name: "equipment_id", Type: "VARCHAR", Description: "설비 ID"},
				{Name: "equipment_name", Type: "VARCHAR", Description: "설비명"},
				{Name: "line_id", Type: "VARCHAR", Description: "라인 ID"},
				{Name: "status", Type: "VARCHAR", Description: "가동 상태 (가동/정지/점검)"},
				{Name: "operation_time", Type: "INT", Description: "가동 시간 (분)"},
				{Name: "downtime", Type: "INT", Description: "정지 시간 (분)"},
				{Name: "downtime_reason", Type: "VARCHAR", Description: "정지 사유"},
				{Name: "recorded_date", Type: "DATE", Description: "기록 일자"},
				{Name: "recorded_hour", Type: "TINYINT", Description: "기록 시간 (0-23)"},
				{Name: "created_at", Type: "TIMESTAMP", Description: "등록 일시"},
			},
		},
		{
			Name:        "daily_production_summary",
			Description: "일별 생산 통계 (일일 생산량, 불량률, 달성률 등)",
			Columns: []ColumnMeta{
				{Name: "production_date", Type: "DATE", Description: "집계 일자"},
				{Name: "line_id", Type: "VARCHAR", Description: "생산 라인 ID"},
				{Name: "total_planned", Type: "INT", Description: "계획 수량 합계"},
				{Name: "total_actual", Type: "INT", Description: "실제 수량 합계"},
				{Name: "total_defects", Type: "INT", Description: "불량 수량 합계"},
				{Name: "defect_rate", Type: "DECIMAL", Description: "불량률 (%)"},
				{Name: "achievement_rate", Type: "DECIMAL", Description: "달성률 (%)"},
			},
		},
		{
			Name:        "hourly_production_summary",
			Description: "시간별 생산 통계 (시간당 생산량, 불량률 등)",
			Columns: []ColumnMeta{
				{Name: "production_date", Type: "DATE", Description: "집계 일자"},
				{Name: "production_hour", Type: "TINYINT", Description: "집계 시간 (0-23)"},
				{Name: "line_id", Type: "VARCHAR", Description: "생산 라인 ID"},
				{Name: "total_actual", Type: "INT", Description: "실제 수량 합계"},
				{Name: "total_defects", Type: "INT", Description: "불량 수량 합계"},
				{Name: "defect_rate", Type: "DECIMAL", Description: "불량률 (%)"},
			},
		},
	}
}

func DefaultKnowledge() []string {
	return []string{
		"생산량은 production_data 테이블의 actual_quantity 컬럼을 합산합니다.",
		"계획 생산량은 production_data 테이블의 planned_quantity 컬럼을 합산합니다.",
		"불량율은 (defect_quantity / actual_quantity * 100)으로 계산합니다.",
		"달성률은 (actual_quantity / planned_quantity * 100)으로 계산합니다.",
		"생산 일자는 production_date를 기준으로 필터링합니다.",
		"생산 시간은 production_hour (0-23)로 시간별 데이터를 조회합니다.",
		"라인별 생산량은 line_id로 그룹화하여 조회합니다.",
		"제품별 생산량은 product_code나 product_name으로 그룹화합니다.",
		"근무조별 생산량은 shift (주간/야간)로 필터링합니다.",
		"설비 상태는 equipment_data의 status 컬럼으로 조회합니다 (가동/정지/점검).",
		"설비 다운타임은 equipment_data의 downtime (분) 컬럼으로 확인합니다.",
		"설비 가동률은 (operation_time / (operation_time + downtime) * 100)으로 계산합니다.",
		"불량 데이터는 defect_data 테이블에서 조회하며, production_id로 생산 데이터와 연결됩니다.",
		"불량 유형은 defect_type (외관/기능/치수)으로 분류할 수 있습니다.",
		"일별 생산 통계는 daily_production_summary VIEW에서 조회할 수 있습니다.",
		"시간별 생산 통계는 hourly_production_summary VIEW에서 조회할 수 있습니다.",
		"모든 쿼리 결과는 LIMIT 100으로 제한되어 성능을 보장합니다.",
		"날짜 필터링 시 production_date (DATE 타입)와 recorded_date (DATE 타입)를 구분합니다.",
	}
}
