package dto

// ── 指派模块 DTO ──

// AssignWorkerRequest 指派队员请求；Role 为岗位标签，缺省 guard
type AssignWorkerRequest struct {
	WorkerID string `json:"worker_id" binding:"required,uuid"`
	Role     string `json:"role"      binding:"omitempty,max=50"`
}

// AssignmentResponse 指派响应
type AssignmentResponse struct {
	ID              string       `json:"id"`
	ShiftID         string       `json:"shift_id"`
	Worker          *WorkerBrief `json:"worker,omitempty"`
	Role            string       `json:"role"`
	Status          string       `json:"status"`
	CheckInTime     *string      `json:"check_in_time,omitempty"`
	CheckOutTime    *string      `json:"check_out_time,omitempty"`
	ActualHours     *float64     `json:"actual_hours,omitempty"`
	LocationWarning bool         `json:"location_warning"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
}

// ConflictDetail 时间冲突详情
type ConflictDetail struct {
	ShiftID   string `json:"shift_id"`
	ShiftDate string `json:"shift_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
