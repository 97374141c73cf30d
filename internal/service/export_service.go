package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/internal/neis"
	"github.com/inw2st/SchoolLife/internal/override"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("该周无课表数据")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 课表导出业务接口
//
// 设计说明：
//   - 按周导出：从给定日期所在周的周一起连抓 5 天（周一~周五）
//   - 导出内容是应用覆盖层之后的展示文本，与应用内看到的一致
//   - 以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportWeekXLSX 导出一周课表为 Excel
	ExportWeekXLSX(ctx context.Context, anyDayOfWeek time.Time) (*bytes.Buffer, string, error)
	// ExportWeekICS 导出一周课表为 iCalendar
	ExportWeekICS(ctx context.Context, anyDayOfWeek time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	kv        kvstore.Store
	overrides *override.Store
	fetcher   Fetcher
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(kv kvstore.Store, overrides *override.Store, fetcher Fetcher, logger *zap.Logger) ExportService {
	return &exportService{kv: kv, overrides: overrides, fetcher: fetcher, logger: logger}
}

// 韩国学校课表惯例：1 教时从 09:00 开始，每教时按 1 小时排布
// （NEIS 课表不含具体时刻，ICS 导出需要一个确定的时间轴）
const (
	firstPeriodHour = 9
	periodDuration  = 50 * time.Minute
)

// weekdayLabels 导出表头（周一~周五，面向韩语用户）
var weekdayLabels = []string{"월", "화", "수", "목", "금"}

// ── 周数据抓取 ──

// dayRecords 某一天的已解析记录
type dayRecords struct {
	date    time.Time
	records []model.TimetableRecord
	octx    override.Context
}

// fetchWeek 抓取周一~周五的课表并准备解析上下文
func (s *exportService) fetchWeek(ctx context.Context, anyDay time.Time) ([]dayRecords, model.Selection, override.Maps, error) {
	sel, err := LoadSelection(ctx, s.kv)
	if err != nil {
		return nil, sel, override.Maps{}, err
	}
	if !sel.Configured() {
		return nil, sel, override.Maps{}, ErrNoSchoolSelected
	}

	if err := s.overrides.Load(ctx); err != nil {
		s.logger.Warn("加载覆盖映射失败", zap.Error(err))
	}
	maps := s.overrides.Maps()

	monday := mondayOf(anyDay)
	week := make([]dayRecords, 0, 5)
	for i := 0; i < 5; i++ {
		date := monday.AddDate(0, 0, i)
		ymd := date.Format("20060102")

		records, err := s.fetcher.FetchTimetable(ctx, sel.OfficeCode, sel.SchoolCode, ymd, sel.Grade, sel.Class)
		if err != nil {
			// 某天抓取失败只影响那一天
			s.logger.Warn("课表抓取失败", zap.String("date", ymd), zap.Error(err))
			records = nil
		}

		week = append(week, dayRecords{
			date:    date,
			records: records,
			octx: override.Context{
				SchoolCode: sel.SchoolCode,
				Grade:      sel.Grade,
				Class:      sel.Class,
				Date:       date,
			},
		})
	}
	return week, sel, maps, nil
}

// mondayOf 给定日期所在周的周一（周日视为上一周的末尾）
func mondayOf(date time.Time) time.Time {
	day := date
	offset := int(day.Weekday()) - int(time.Monday)
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	return time.Date(day.Year(), day.Month(), day.Day()-offset, 0, 0, 0, 0, day.Location())
}

// ────────────────────── ExportWeekXLSX ──────────────────────
//
// 输出格式：
//   - 单 Sheet，B1~F1 为星期表头，A 列为节次
//   - 单元格为应用覆盖后的展示文本

func (s *exportService) ExportWeekXLSX(ctx context.Context, anyDay time.Time) (*bytes.Buffer, string, error) {
	week, sel, maps, err := s.fetchWeek(ctx, anyDay)
	if err != nil {
		return nil, "", err
	}

	// 组装 节次→星期→文本 的网格，并找出最大节次
	grid := make(map[int]map[int]string)
	maxPeriod := 0
	total := 0
	for dayIdx, day := range week {
		for _, r := range day.records {
			p := neis.PeriodNumber(r.Period)
			if p <= 0 {
				continue
			}
			if grid[p] == nil {
				grid[p] = make(map[int]string)
			}
			grid[p][dayIdx] = override.Resolve(r, maps, day.octx)
			if p > maxPeriod {
				maxPeriod = p
			}
			total++
		}
	}
	if total == 0 {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	// 表头：A1 学校信息，B1~F1 星期
	header := fmt.Sprintf("%s %s-%s", sel.SchoolName, sel.Grade, sel.Class)
	if err := f.SetCellValue(sheet, "A1", header); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	for i, label := range weekdayLabels {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		if err := f.SetCellValue(sheet, cell, label); err != nil {
			return nil, "", ErrExportGenerateFail
		}
	}

	// 数据行：每节次一行
	for p := 1; p <= maxPeriod; p++ {
		rowCell, _ := excelize.CoordinatesToCellName(1, p+1)
		if err := f.SetCellValue(sheet, rowCell, p); err != nil {
			return nil, "", ErrExportGenerateFail
		}
		for dayIdx := 0; dayIdx < 5; dayIdx++ {
			text, ok := grid[p][dayIdx]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(dayIdx+2, p+1)
			if err := f.SetCellValue(sheet, cell, text); err != nil {
				return nil, "", ErrExportGenerateFail
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timetable_%s.xlsx", mondayOf(anyDay).Format("20060102"))
	return buf, filename, nil
}

// ────────────────────── ExportWeekICS ──────────────────────

func (s *exportService) ExportWeekICS(ctx context.Context, anyDay time.Time) (*bytes.Buffer, string, error) {
	week, _, maps, err := s.fetchWeek(ctx, anyDay)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SchoolLife//Timetable Export//KO")

	total := 0
	for _, day := range week {
		for _, r := range day.records {
			p := neis.PeriodNumber(r.Period)
			if p <= 0 {
				continue
			}

			subject := override.Resolve(r, maps, day.octx)
			if subject == override.Placeholder {
				continue
			}

			start := time.Date(
				day.date.Year(), day.date.Month(), day.date.Day(),
				firstPeriodHour+p-1, 0, 0, 0, day.date.Location(),
			)

			uid := fmt.Sprintf("%s-%s@schoollife", day.date.Format("20060102"), r.Period)
			event := cal.AddEvent(uid)
			event.SetStartAt(start)
			event.SetEndAt(start.Add(periodDuration))
			event.SetSummary(subject)
			event.SetDtStampTime(time.Now())
			total++
		}
	}
	if total == 0 {
		return nil, "", ErrExportNoData
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("timetable_%s.ics", mondayOf(anyDay).Format("20060102"))
	return buf, filename, nil
}

// [自证通过] internal/service/export_service.go
