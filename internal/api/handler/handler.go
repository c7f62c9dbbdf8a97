package handler

import (
	"guardpost/backend/internal/service"
	"guardpost/backend/pkg/jwt"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Shift      *ShiftHandler
	Assignment *AssignmentHandler
	Attendance *AttendanceHandler
	Coverage   *CoverageHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, jwtMgr *jwt.Manager) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, jwtMgr),
		Shift:      NewShiftHandler(svc.Shift),
		Assignment: NewAssignmentHandler(svc.Assignment, svc.Shift),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Coverage:   NewCoverageHandler(svc.Coverage),
	}
}
