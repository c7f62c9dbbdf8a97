package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"guardpost/backend/internal/dto"
	"guardpost/backend/internal/service"
	"guardpost/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// CheckIn 上岗打卡
// POST /api/v1/assignments/:id/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "指派ID不能为空")
		return
	}

	// 定位可选：请求体为空时按无定位处理
	var req dto.CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 14001, "参数校验失败")
			return
		}
	}

	callerID, ok := MustGetWorkerID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckIn(c.Request.Context(), id, callerID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// CheckOut 下岗打卡
// POST /api/v1/assignments/:id/check-out
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "指派ID不能为空")
		return
	}

	// 定位可选：请求体为空时按无定位处理
	var req dto.CheckOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 14001, "参数校验失败")
			return
		}
	}

	callerID, ok := MustGetWorkerID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.CheckOut(c.Request.Context(), id, callerID, &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkNoShow 标记未到岗
// POST /api/v1/assignments/:id/no-show
func (h *AttendanceHandler) MarkNoShow(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "指派ID不能为空")
		return
	}

	callerID, ok := MustGetWorkerID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.MarkNoShow(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAttendanceError 统一处理考勤模块业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 14101, "指派记录不存在")
	case errors.Is(err, service.ErrInvalidAttendanceState):
		response.Conflict(c, 14102, "当前状态不允许此考勤操作")
	case errors.Is(err, service.ErrNotOwnAssignment):
		response.Forbidden(c, 14103, "只能为本人指派打卡")
	default:
		response.InternalError(c)
	}
}
