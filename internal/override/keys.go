package override

import (
	"fmt"
	"time"

	"github.com/inw2st/SchoolLife/internal/model"
)

// ── 覆盖键派生 ──────────────────────────────────────────────
//
// 三个覆盖层各自有独立的寻址方式：
//   - 日期覆盖：学校|日期|年级|班级|节次，只命中某一天的某一条记录
//   - 每周覆盖：学校|G年级|C班级|W星期|P节次，命中该星期+节次的所有日期
//   - 替换规则：以去除首尾空白后的原始科目名为键，全校生效
//
// 键只从解析时刻可得的数据派生，纯函数，无隐藏状态
// ─────────────────────────────────────────────────────────────

// ymdLayout 日期统一使用 YYYYMMDD，与 NEIS 查询参数一致，
// 不受本地化/时区渲染影响
const ymdLayout = "20060102"

// Context 解析时刻的选择上下文
// Date 是"当前正在查看的日期"，每周覆盖键的星期由它实时计算
type Context struct {
	SchoolCode string
	Grade      string
	Class      string
	Date       time.Time
}

// YMD 当前查看日期的 YYYYMMDD 形式
func (c Context) YMD() string {
	return c.Date.Format(ymdLayout)
}

// DateKey 日期覆盖键：学校|日期|年级|班级|节次
func DateKey(schoolCode, ymd, grade, class, period string) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", schoolCode, ymd, grade, class, period)
}

// WeeklyKey 每周覆盖键：学校|G年级|C班级|W星期|P节次
// weekday 采用周日=1 … 周六=7 的编号（沿用历史存量键的约定）
func WeeklyKey(schoolCode, grade, class string, weekday int, period string) string {
	return fmt.Sprintf("%s|G%s|C%s|W%d|P%s", schoolCode, grade, class, weekday, period)
}

// Weekday 日期对应的星期编号（周日=1 … 周六=7）
func Weekday(date time.Time) int {
	return int(date.Weekday()) + 1
}

// DateKeyFor 派生一条记录的日期覆盖键
// 记录字段缺失时回退到上下文中的值（记录与查询同日同班，语义一致）
func (c Context) DateKeyFor(r model.TimetableRecord) string {
	ymd := r.Date
	if ymd == "" {
		ymd = c.YMD()
	}
	grade := r.Grade
	if grade == "" {
		grade = c.Grade
	}
	class := r.Class
	if class == "" {
		class = c.Class
	}
	return DateKey(c.SchoolCode, ymd, grade, class, r.Period)
}

// WeeklyKeyFor 派生一条记录的每周覆盖键
// 星期永远取自当前查看日期而非记录自带日期：
// 每周覆盖跟随日历重现，查看过去或未来的日期就按那天的星期解析
func (c Context) WeeklyKeyFor(r model.TimetableRecord) string {
	return WeeklyKey(c.SchoolCode, c.Grade, c.Class, Weekday(c.Date), r.Period)
}
