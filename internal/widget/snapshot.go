package widget

import "time"

// ── 小组件快照 ──────────────────────────────────────────────
//
// 小组件进程每个刷新周期把渲染结果以 JSON 写入共享存储，
// 展示面只读快照，不直接访问 NEIS，也不依赖主应用进程存活
// ─────────────────────────────────────────────────────────────

// 快照状态
const (
	StatusOK         = "ok"          // 正常数据
	StatusNeedsSetup = "needs_setup" // 尚未在主应用中选择学校
	StatusEmpty      = "empty"       // 已配置但当日无数据
)

// TimetableSnapshot 课表小组件快照
type TimetableSnapshot struct {
	UpdatedAt  time.Time       `json:"updated_at"`
	Status     string          `json:"status"`
	SchoolName string          `json:"school_name"`
	Grade      string          `json:"grade"`
	Class      string          `json:"class"`
	DarkMode   bool            `json:"dark_mode"`
	Items      []TimetableItem `json:"items"`
}

// TimetableItem 快照中的课表条目（已应用覆盖层）
type TimetableItem struct {
	Period  string `json:"period"`
	Subject string `json:"subject"`
}

// MealSnapshot 给食小组件快照
type MealSnapshot struct {
	UpdatedAt  time.Time  `json:"updated_at"`
	Status     string     `json:"status"`
	SchoolName string     `json:"school_name"`
	DarkMode   bool       `json:"dark_mode"`
	Meals      []MealItem `json:"meals"`
}

// MealItem 快照中的单餐条目
type MealItem struct {
	Type     string `json:"type"`
	Menu     string `json:"menu"`
	Calories string `json:"calories"`
}
