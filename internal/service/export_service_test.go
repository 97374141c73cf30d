package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/internal/override"
)

// ════════════════════════════════════════════════════════════
// 周课表导出
// ════════════════════════════════════════════════════════════

func TestMondayOf(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2024-01-15", "20240115"}, // 周一本身
		{"2024-01-17", "20240115"}, // 周三
		{"2024-01-20", "20240115"}, // 周六
		{"2024-01-21", "20240115"}, // 周日归上一周
		{"2024-01-22", "20240122"}, // 下周一
	}
	for _, c := range cases {
		d, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			t.Fatalf("解析测试日期失败: %v", err)
		}
		if got := mondayOf(d).Format("20060102"); got != c.want {
			t.Errorf("mondayOf(%s) 期望 %s, 实际 %s", c.date, c.want, got)
		}
	}
}

func newExportFixture(t *testing.T) (ExportService, *mockFetcher) {
	t.Helper()
	kv := newFakeKV()
	kv.selectSchool("J10", "7530560", "수원고등학교", "2", "7")

	fetcher := newMockFetcher()
	fetcher.timetables["20240115"] = []model.TimetableRecord{
		{Date: "20240115", Grade: "2", Class: "7", Period: "1", RawSubject: "국어"},
		{Date: "20240115", Grade: "2", Class: "7", Period: "2", RawSubject: "수학"},
	}
	fetcher.timetables["20240117"] = []model.TimetableRecord{
		{Date: "20240117", Grade: "2", Class: "7", Period: "1", RawSubject: "영어"},
	}

	overrides := override.NewStore(kv, zap.NewNop())
	return NewExportService(kv, overrides, fetcher, zap.NewNop()), fetcher
}

func TestExportWeekXLSX(t *testing.T) {
	svc, fetcher := newExportFixture(t)

	buf, filename, err := svc.ExportWeekXLSX(context.Background(), testDay)
	if err != nil {
		t.Fatalf("ExportWeekXLSX 失败: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Excel 输出不应为空")
	}
	if filename != "timetable_20240115.xlsx" {
		t.Errorf("文件名期望 timetable_20240115.xlsx, 实际 %s", filename)
	}
	// 周一~周五连抓 5 天
	if fetcher.timetableCalls != 5 {
		t.Errorf("应抓取 5 天, 实际 %d 次", fetcher.timetableCalls)
	}
}

// 周三传入也导出同一周
func TestExportWeekXLSX_MidweekAnchorsToMonday(t *testing.T) {
	svc, _ := newExportFixture(t)

	wednesday := testDay.AddDate(0, 0, 2)
	_, filename, err := svc.ExportWeekXLSX(context.Background(), wednesday)
	if err != nil {
		t.Fatalf("ExportWeekXLSX 失败: %v", err)
	}
	if filename != "timetable_20240115.xlsx" {
		t.Errorf("周三导出文件名仍应锚定周一, 实际 %s", filename)
	}
}

func TestExportWeekICS(t *testing.T) {
	svc, _ := newExportFixture(t)

	buf, filename, err := svc.ExportWeekICS(context.Background(), testDay)
	if err != nil {
		t.Fatalf("ExportWeekICS 失败: %v", err)
	}
	if filename != "timetable_20240115.ics" {
		t.Errorf("文件名期望 timetable_20240115.ics, 实际 %s", filename)
	}

	out := buf.String()
	if !strings.Contains(out, "BEGIN:VCALENDAR") {
		t.Error("输出缺少 VCALENDAR 包裹")
	}
	for _, subject := range []string{"국어", "수학", "영어"} {
		if !strings.Contains(out, subject) {
			t.Errorf("输出缺少科目 %s", subject)
		}
	}
}

// 整周无数据时报 ErrExportNoData
func TestExportWeek_NoData(t *testing.T) {
	kv := newFakeKV()
	kv.selectSchool("J10", "7530560", "수원고등학교", "2", "7")
	overrides := override.NewStore(kv, zap.NewNop())
	svc := NewExportService(kv, overrides, newMockFetcher(), zap.NewNop())

	if _, _, err := svc.ExportWeekXLSX(context.Background(), testDay); !errors.Is(err, ErrExportNoData) {
		t.Errorf("无数据周期望 ErrExportNoData, 实际 %v", err)
	}
	if _, _, err := svc.ExportWeekICS(context.Background(), testDay); !errors.Is(err, ErrExportNoData) {
		t.Errorf("无数据周期望 ErrExportNoData, 实际 %v", err)
	}
}

func TestExportWeek_NoSchoolSelected(t *testing.T) {
	kv := newFakeKV()
	overrides := override.NewStore(kv, zap.NewNop())
	svc := NewExportService(kv, overrides, newMockFetcher(), zap.NewNop())

	if _, _, err := svc.ExportWeekXLSX(context.Background(), testDay); !errors.Is(err, ErrNoSchoolSelected) {
		t.Errorf("未选择学校期望 ErrNoSchoolSelected, 实际 %v", err)
	}
}
