package model

// SchoolRow 学校检索结果行
type SchoolRow struct {
	OfficeCode string `json:"office_code"` // ATPT_OFCDC_SC_CODE 教育厅代码
	SchoolCode string `json:"school_code"` // SD_SCHUL_CODE 学校代码
	Name       string `json:"name"`        // SCHUL_NM
	Address    string `json:"address"`     // ORG_RDNMA，可能为空
}

// Selection 当前选择状态（从共享存储读出）
// 任一字段缺失表示"尚未配置"，不是错误
type Selection struct {
	OfficeCode string `json:"office_code"`
	SchoolCode string `json:"school_code"`
	SchoolName string `json:"school_name"`
	Grade      string `json:"grade"`
	Class      string `json:"class"`
	DarkMode   bool   `json:"dark_mode"`
}

// Configured 是否已完成学校选择
// 未配置时所有抓取调用必须短路，不得携带空标识发起请求
func (s Selection) Configured() bool {
	return s.SchoolCode != ""
}
