package kvstore

import "context"

// Store 跨进程共享的字符串键值存储抽象
//
// 契约（与两个进程上下文共同约定）：
//   - 纯字符串 get/set/del，无事务、无锁，blob 粒度 last-write-wins
//   - 键不存在不是错误：Get 返回 ("", nil)
//   - NotifyChanged 向所有订阅者广播"存储状态已变更"信号；
//     信号可能丢失，订阅者必须在每个刷新周期重新读取存储，而不是依赖信号
//
// 通过接口注入而非进程级单例，便于在测试中替换为内存实现
type Store interface {
	// Get 读取键值；键不存在时返回 ("", nil)
	Get(ctx context.Context, key string) (string, error)
	// Set 写入键值
	Set(ctx context.Context, key, value string) error
	// Delete 删除键；键不存在不报错
	Delete(ctx context.Context, key string) error
	// NotifyChanged 广播状态变更信号
	NotifyChanged(ctx context.Context) error
	// Watch 订阅状态变更信号；通道在 ctx 取消后关闭
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// ── 约定键名 ──
//
// 与最初的移动端存储布局保持一致，便于数据迁移

const (
	// 学校选择状态
	KeyOfficeCode = "savedOfficeCode" // 教育厅代码
	KeySchoolCode = "savedSchoolCode" // 学校代码
	KeySchoolName = "savedSchoolName" // 学校名称
	KeyGrade      = "savedGrade"      // 当前选择的年级
	KeyClass      = "savedClass"      // 当前选择的班级
	KeyDarkMode   = "isDarkMode"      // 深色主题开关

	// 三个课表覆盖层，各自序列化为一个扁平 string→string JSON blob
	KeyDateEdits    = "timetableDateEditsJSON"    // 指定日期覆盖
	KeyWeeklyEdits  = "timetableWeeklyEditsJSON"  // 每周重复覆盖
	KeyReplaceRules = "timetableReplaceRulesJSON" // 科目名全局替换

	// 小组件渲染快照（由 cmd/widget 写入）
	KeyWidgetTimetable = "widget:timetable"
	KeyWidgetMeal      = "widget:meal"
)

// [自证通过] pkg/kvstore/kvstore.go
