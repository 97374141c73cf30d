package model

// MealRecord NEIS 给食原始记录（菜单文本已做展示清洗）
type MealRecord struct {
	Type     string `json:"type"`     // MMEAL_SC_NM：조식/중식/석식
	TypeCode string `json:"code"`     // MMEAL_SC_CODE
	Menu     string `json:"menu"`     // DDISH_NM，<br/> 换行、过敏原编号已去除
	Calories string `json:"calories"` // CAL_INFO
}
