package dto

// ── 给食模块 ──

// MealResponse 某日给食信息
type MealResponse struct {
	Date       string             `json:"date"`
	SchoolName string             `json:"school_name"`
	Meals      []MealItemResponse `json:"meals"`
}

// MealItemResponse 单餐条目
type MealItemResponse struct {
	Type     string `json:"type"` // 조식/중식/석식
	Menu     string `json:"menu"`
	Calories string `json:"calories"`
}
