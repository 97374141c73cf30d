package widget

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/internal/override"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── Mock 共享存储与抓取器 ──

type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeKV) NotifyChanged(_ context.Context) error { return nil }

func (f *fakeKV) Watch(_ context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	close(ch)
	return ch, nil
}

type fakeFetcher struct {
	records []model.TimetableRecord
	meals   []model.MealRecord

	timetableErr error
	mealErr      error
}

func (f *fakeFetcher) FetchTimetable(_ context.Context, _, _, _, _, _ string) ([]model.TimetableRecord, error) {
	if f.timetableErr != nil {
		return nil, f.timetableErr
	}
	return f.records, nil
}

func (f *fakeFetcher) FetchMeals(_ context.Context, _, _, _ string) ([]model.MealRecord, error) {
	if f.mealErr != nil {
		return nil, f.mealErr
	}
	return f.meals, nil
}

// ════════════════════════════════════════════════════════════
// 刷新周期
// ════════════════════════════════════════════════════════════

// 2024-01-15（周一）固定时钟
var fixedNow = time.Date(2024, 1, 15, 8, 30, 0, 0, time.Local)

func newTestRefresher(kv *fakeKV, fetcher *fakeFetcher) *Refresher {
	overrides := override.NewStore(kv, zap.NewNop())
	r := NewRefresher(kv, overrides, fetcher, time.Hour, zap.NewNop())
	r.now = func() time.Time { return fixedNow }
	return r
}

func selectSchool(kv *fakeKV) {
	kv.data[kvstore.KeyOfficeCode] = "J10"
	kv.data[kvstore.KeySchoolCode] = "7530560"
	kv.data[kvstore.KeySchoolName] = "수원고등학교"
	kv.data[kvstore.KeyGrade] = "2"
	kv.data[kvstore.KeyClass] = "7"
}

func readTimetableSnapshot(t *testing.T, kv *fakeKV) TimetableSnapshot {
	t.Helper()
	raw := kv.data[kvstore.KeyWidgetTimetable]
	if raw == "" {
		t.Fatal("课表快照未写入")
	}
	var snap TimetableSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("课表快照解码失败: %v", err)
	}
	return snap
}

func readMealSnapshot(t *testing.T, kv *fakeKV) MealSnapshot {
	t.Helper()
	raw := kv.data[kvstore.KeyWidgetMeal]
	if raw == "" {
		t.Fatal("给食快照未写入")
	}
	var snap MealSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("给食快照解码失败: %v", err)
	}
	return snap
}

func TestRefreshOnce_WritesSnapshots(t *testing.T) {
	kv := newFakeKV()
	selectSchool(kv)

	fetcher := &fakeFetcher{
		records: []model.TimetableRecord{
			{Date: "20240115", Grade: "2", Class: "7", Period: "1", RawSubject: "국어"},
			{Date: "20240115", Grade: "2", Class: "7", Period: "2", RawSubject: "수학"},
		},
		meals: []model.MealRecord{
			{Type: "중식", Menu: "김치볶음밥", Calories: "812.5 Kcal"},
		},
	}
	r := newTestRefresher(kv, fetcher)
	r.RefreshOnce(context.Background())

	tt := readTimetableSnapshot(t, kv)
	if tt.Status != StatusOK {
		t.Errorf("课表快照状态期望 ok, 实际 %s", tt.Status)
	}
	if tt.SchoolName != "수원고등학교" || tt.Grade != "2" || tt.Class != "7" {
		t.Errorf("课表快照头字段错误: %+v", tt)
	}
	if len(tt.Items) != 2 || tt.Items[1].Subject != "수학" {
		t.Errorf("课表快照条目错误: %+v", tt.Items)
	}

	meal := readMealSnapshot(t, kv)
	if meal.Status != StatusOK || len(meal.Meals) != 1 || meal.Meals[0].Type != "중식" {
		t.Errorf("给食快照错误: %+v", meal)
	}
}

// 未选择学校时写入 needs_setup 快照，不发起任何抓取
func TestRefreshOnce_NeedsSetup(t *testing.T) {
	kv := newFakeKV()
	fetcher := &fakeFetcher{timetableErr: errors.New("不应被调用")}

	r := newTestRefresher(kv, fetcher)
	r.RefreshOnce(context.Background())

	tt := readTimetableSnapshot(t, kv)
	if tt.Status != StatusNeedsSetup {
		t.Errorf("课表快照状态期望 needs_setup, 实际 %s", tt.Status)
	}
	meal := readMealSnapshot(t, kv)
	if meal.Status != StatusNeedsSetup {
		t.Errorf("给食快照状态期望 needs_setup, 实际 %s", meal.Status)
	}
}

// 快照应用主应用写入的覆盖层（跨进程一致性）
func TestRefreshOnce_AppliesOverrides(t *testing.T) {
	kv := newFakeKV()
	selectSchool(kv)

	// 模拟主应用进程已写入的日期覆盖 blob
	dateEdits, _ := json.Marshal(map[string]string{
		"7530560|20240115|2|7|1": "국어(보충)",
	})
	kv.data[kvstore.KeyDateEdits] = string(dateEdits)

	fetcher := &fakeFetcher{
		records: []model.TimetableRecord{
			{Date: "20240115", Grade: "2", Class: "7", Period: "1", RawSubject: "국어"},
		},
	}
	r := newTestRefresher(kv, fetcher)
	r.RefreshOnce(context.Background())

	tt := readTimetableSnapshot(t, kv)
	if len(tt.Items) != 1 || tt.Items[0].Subject != "국어(보충)" {
		t.Errorf("快照应应用日期覆盖, 实际 %+v", tt.Items)
	}
}

// 抓取失败降级为 empty 快照，刷新器不退出
func TestRefreshOnce_FetchFailureDegrades(t *testing.T) {
	kv := newFakeKV()
	selectSchool(kv)

	fetcher := &fakeFetcher{
		timetableErr: errors.New("NEIS 超时"),
		mealErr:      errors.New("NEIS 超时"),
	}
	r := newTestRefresher(kv, fetcher)
	r.RefreshOnce(context.Background())

	tt := readTimetableSnapshot(t, kv)
	if tt.Status != StatusEmpty || len(tt.Items) != 0 {
		t.Errorf("抓取失败期望 empty 快照, 实际 %+v", tt)
	}
	meal := readMealSnapshot(t, kv)
	if meal.Status != StatusEmpty {
		t.Errorf("给食抓取失败期望 empty 快照, 实际 %s", meal.Status)
	}
}

// Run 在 ctx 取消后退出
func TestRun_StopsOnCancel(t *testing.T) {
	kv := newFakeKV()
	selectSchool(kv)
	r := newTestRefresher(kv, &fakeFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("期望 context.Canceled, 实际 %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run 未在取消后退出")
	}

	// 启动即刷新一次
	if kv.data[kvstore.KeyWidgetTimetable] == "" {
		t.Error("Run 启动时应立即写入一次快照")
	}
}
