package override

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── Mock 共享存储 ──

type fakeKV struct {
	data     map[string]string
	notified int
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

func (f *fakeKV) NotifyChanged(_ context.Context) error {
	f.notified++
	return nil
}

func (f *fakeKV) Watch(_ context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	close(ch)
	return ch, nil
}

func newTestStore(t *testing.T) (*Store, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	return NewStore(kv, zap.NewNop()), kv
}

// ════════════════════════════════════════════════════════════
// 覆盖存储测试
// ════════════════════════════════════════════════════════════

func TestStore_LoadEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("空存储 Load 失败: %v", err)
	}
	m := s.Maps()
	if len(m.Date) != 0 || len(m.Weekly) != 0 || len(m.Replace) != 0 {
		t.Error("空存储加载后三层应全为空映射")
	}
}

func TestStore_SetAndPersistRoundTrip(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	if err := s.SetDate(ctx, "S1|20240115|2|7|3", "수학(보충)"); err != nil {
		t.Fatalf("SetDate 失败: %v", err)
	}
	if err := s.SetWeekly(ctx, "S1|G2|C7|W2|P3", "수학(대체)"); err != nil {
		t.Fatalf("SetWeekly 失败: %v", err)
	}
	if err := s.SetReplaceRule(ctx, " 영어 ", "영어(원어민)"); err != nil {
		t.Fatalf("SetReplaceRule 失败: %v", err)
	}

	// 另一个 Store 实例从同一存储重新加载（模拟第二进程）
	other := NewStore(kv, zap.NewNop())
	if err := other.Load(ctx); err != nil {
		t.Fatalf("重新加载失败: %v", err)
	}
	m := other.Maps()

	if m.Date["S1|20240115|2|7|3"] != "수학(보충)" {
		t.Errorf("日期覆盖未持久化, 实际 %v", m.Date)
	}
	if m.Weekly["S1|G2|C7|W2|P3"] != "수학(대체)" {
		t.Errorf("每周覆盖未持久化, 实际 %v", m.Weekly)
	}
	// 替换键必须去除首尾空白
	if m.Replace["영어"] != "영어(원어민)" {
		t.Errorf("替换规则未按去空白键持久化, 实际 %v", m.Replace)
	}
}

// 任一层 blob 损坏只影响该层，其余两层照常加载
func TestStore_LoadIsolatesCorruptLayer(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	good, _ := json.Marshal(map[string]string{"S1|G2|C7|W2|P3": "수학(대체)"})
	kv.data[kvstore.KeyDateEdits] = "{broken json"
	kv.data[kvstore.KeyWeeklyEdits] = string(good)
	kv.data[kvstore.KeyReplaceRules] = "[1,2,3]" // 类型不符也算损坏

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load 不应因损坏层报错: %v", err)
	}
	m := s.Maps()

	if len(m.Date) != 0 {
		t.Errorf("损坏的日期层应置空, 实际 %v", m.Date)
	}
	if m.Weekly["S1|G2|C7|W2|P3"] != "수학(대체)" {
		t.Errorf("完好的每周层应正常加载, 实际 %v", m.Weekly)
	}
	if len(m.Replace) != 0 {
		t.Errorf("损坏的替换层应置空, 实际 %v", m.Replace)
	}
}

// 同一键重复写入与写入一次的最终状态完全相同（含持久化 blob）
func TestStore_SetDateIdempotent(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	key := "S1|20240115|2|7|3"
	if err := s.SetDate(ctx, key, "수학(보충)"); err != nil {
		t.Fatalf("首次 SetDate 失败: %v", err)
	}
	blobAfterFirst := kv.data[kvstore.KeyDateEdits]
	mapsAfterFirst := s.Maps()

	if err := s.SetDate(ctx, key, "수학(보충)"); err != nil {
		t.Fatalf("重复 SetDate 失败: %v", err)
	}

	if got := kv.data[kvstore.KeyDateEdits]; got != blobAfterFirst {
		t.Errorf("重复写入后持久化 blob 发生变化: %s → %s", blobAfterFirst, got)
	}
	m := s.Maps()
	if len(m.Date) != len(mapsAfterFirst.Date) || m.Date[key] != "수학(보충)" {
		t.Errorf("重复写入后内存状态发生变化: %v", m.Date)
	}
}

// 清除不存在的键是无操作，不报错
func TestStore_ClearMissingKeyIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.ClearDate(ctx, "S1|20240115|2|7|3"); err != nil {
		t.Errorf("清除不存在的日期覆盖不应报错: %v", err)
	}
	if err := s.ClearWeekly(ctx, "S1|G2|C7|W2|P3"); err != nil {
		t.Errorf("清除不存在的每周覆盖不应报错: %v", err)
	}
	if err := s.ClearReplaceRule(ctx, "수학"); err != nil {
		t.Errorf("清除不存在的替换规则不应报错: %v", err)
	}
}

// 写后清除等价于从未写过
func TestStore_SetThenClearRestoresOriginal(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	key := "S1|20240115|2|7|3"
	if err := s.SetDate(ctx, key, "수학(보충)"); err != nil {
		t.Fatalf("SetDate 失败: %v", err)
	}
	if err := s.ClearDate(ctx, key); err != nil {
		t.Fatalf("ClearDate 失败: %v", err)
	}
	if _, ok := s.Maps().Date[key]; ok {
		t.Error("清除后日期覆盖仍存在")
	}
}

func TestStore_ClearAllForRecord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	date, _ := time.Parse("20060102", "20240115")
	c := Context{SchoolCode: "S1", Grade: "2", Class: "7", Date: date}
	rec := model.TimetableRecord{
		Date: "20240115", Grade: "2", Class: "7", Period: "3", RawSubject: "수학",
	}

	s.SetDate(ctx, c.DateKeyFor(rec), "수학(보충)")
	s.SetWeekly(ctx, c.WeeklyKeyFor(rec), "수학(대체)")
	s.SetReplaceRule(ctx, "수학", "물리")
	// 无关条目不得被波及
	s.SetDate(ctx, "S1|20240116|2|7|3", "과학")

	if err := s.ClearAllForRecord(ctx, rec, c); err != nil {
		t.Fatalf("ClearAllForRecord 失败: %v", err)
	}
	m := s.Maps()

	if _, ok := m.Date[c.DateKeyFor(rec)]; ok {
		t.Error("日期覆盖未被清除")
	}
	if _, ok := m.Weekly[c.WeeklyKeyFor(rec)]; ok {
		t.Error("每周覆盖未被清除")
	}
	if _, ok := m.Replace["수학"]; ok {
		t.Error("替换规则未被清除")
	}
	if m.Date["S1|20240116|2|7|3"] != "과학" {
		t.Error("无关日期覆盖不应被波及")
	}
}

// 原始科目为空白的记录清除时不碰替换层
func TestStore_ClearAllForRecord_BlankSubjectKeepsReplace(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	date, _ := time.Parse("20060102", "20240115")
	c := Context{SchoolCode: "S1", Grade: "2", Class: "7", Date: date}

	s.SetReplaceRule(ctx, "수학", "물리")

	blank := model.TimetableRecord{Date: "20240115", Grade: "2", Class: "7", Period: "3"}
	if err := s.ClearAllForRecord(ctx, blank, c); err != nil {
		t.Fatalf("ClearAllForRecord 失败: %v", err)
	}
	if s.Maps().Replace["수학"] != "물리" {
		t.Error("空科目记录的清除不应触碰替换层")
	}
}

// 每次变更必须广播变更信号
func TestStore_MutationsNotify(t *testing.T) {
	s, kv := newTestStore(t)
	ctx := context.Background()

	s.SetDate(ctx, "k1", "v")
	s.ClearDate(ctx, "k1")
	s.SetWeekly(ctx, "k2", "v")
	s.SetReplaceRule(ctx, "수학", "물리")

	if kv.notified != 4 {
		t.Errorf("4 次变更期望 4 次广播, 实际 %d 次", kv.notified)
	}
}

// Maps 返回的是副本，调用方修改不得写穿内部状态
func TestStore_MapsReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.SetDate(ctx, "k1", "v1")
	m := s.Maps()
	m.Date["k1"] = "篡改"
	m.Date["k2"] = "新增"

	fresh := s.Maps()
	if fresh.Date["k1"] != "v1" {
		t.Errorf("内部状态被写穿, k1 = %q", fresh.Date["k1"])
	}
	if _, ok := fresh.Date["k2"]; ok {
		t.Error("内部状态被写穿, 出现外部新增键")
	}
}
