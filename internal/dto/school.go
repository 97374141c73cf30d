package dto

// ── 学校模块 ──

// SchoolResponse 学校检索结果
type SchoolResponse struct {
	OfficeCode string `json:"office_code"`
	SchoolCode string `json:"school_code"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
}

// SelectSchoolRequest 选择学校请求
type SelectSchoolRequest struct {
	OfficeCode string `json:"office_code" binding:"required"`
	SchoolCode string `json:"school_code" binding:"required"`
	SchoolName string `json:"school_name" binding:"required"`
}

// UpdateSelectionRequest 修改年级/班级请求
type UpdateSelectionRequest struct {
	Grade string `json:"grade" binding:"required,numeric"`
	Class string `json:"class" binding:"required,numeric"`
}

// ThemeRequest 主题开关请求
type ThemeRequest struct {
	DarkMode *bool `json:"dark_mode" binding:"required"`
}

// SelectionResponse 当前选择状态
type SelectionResponse struct {
	OfficeCode string `json:"office_code"`
	SchoolCode string `json:"school_code"`
	SchoolName string `json:"school_name"`
	Grade      string `json:"grade"`
	Class      string `json:"class"`
	DarkMode   bool   `json:"dark_mode"`
	Configured bool   `json:"configured"`
}
