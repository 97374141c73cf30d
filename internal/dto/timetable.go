package dto

// ── 课表模块 ──

// TimetableItemResponse 解析后的课表条目
type TimetableItemResponse struct {
	Period  string `json:"period"`
	Subject string `json:"subject"`        // 应用覆盖层之后的展示文本
	Raw     string `json:"raw,omitempty"`  // NEIS 原始科目文本
	Edited  bool   `json:"edited"`         // 是否有任一覆盖层命中
}

// TimetableResponse 某日课表的展示流
type TimetableResponse struct {
	Date       string                  `json:"date"` // YYYYMMDD
	SchoolName string                  `json:"school_name"`
	Grade      string                  `json:"grade"`
	Class      string                  `json:"class"`
	Items      []TimetableItemResponse `json:"items"`
}

// DateOverrideRequest 日期覆盖写入/删除请求
// 由 (日期, 节次) 与当前选择的学校/年级/班级共同定位一条记录
type DateOverrideRequest struct {
	Date   string `json:"date" binding:"required,len=8,numeric"`
	Period string `json:"period" binding:"required"`
	Text   string `json:"text"` // 删除时忽略
}

// WeeklyOverrideRequest 每周覆盖写入/删除请求
// Date 仅用于计算星期（每周覆盖跟随当前查看日期的星期）
type WeeklyOverrideRequest struct {
	Date   string `json:"date" binding:"required,len=8,numeric"`
	Period string `json:"period" binding:"required"`
	Text   string `json:"text"`
}

// ReplaceRuleRequest 科目名替换规则写入/删除请求
type ReplaceRuleRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to"`
}

// ClearRecordRequest 清除某条记录所有覆盖的请求
type ClearRecordRequest struct {
	Date    string `json:"date" binding:"required,len=8,numeric"`
	Period  string `json:"period" binding:"required"`
	Subject string `json:"subject"` // 原始科目文本，用于定位替换规则
}
