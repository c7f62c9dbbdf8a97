package handler

import (
	"github.com/gin-gonic/gin"

	"guardpost/backend/internal/service"
	"guardpost/backend/pkg/response"
)

// CoverageHandler 覆盖概览 HTTP 处理器
type CoverageHandler struct {
	coverageSvc service.CoverageService
}

// NewCoverageHandler 创建 CoverageHandler
func NewCoverageHandler(coverageSvc service.CoverageService) *CoverageHandler {
	return &CoverageHandler{coverageSvc: coverageSvc}
}

// Today 当日覆盖概览
// GET /api/v1/coverage/today
func (h *CoverageHandler) Today(c *gin.Context) {
	snapshot, err := h.coverageSvc.TodaySnapshot(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, snapshot)
}
