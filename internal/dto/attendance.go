package dto

// ── 考勤模块 DTO ──

// CheckInRequest 上岗打卡请求
type CheckInRequest struct {
	Lat *float64 `json:"lat" binding:"omitempty,min=-90,max=90"`
	Lng *float64 `json:"lng" binding:"omitempty,min=-180,max=180"`
}

// CheckOutRequest 下岗打卡请求，定位同样可选
type CheckOutRequest struct {
	Lat *float64 `json:"lat" binding:"omitempty,min=-90,max=90"`
	Lng *float64 `json:"lng" binding:"omitempty,min=-180,max=180"`
}

// CheckInResponse 上岗打卡响应
type CheckInResponse struct {
	Assignment      *AssignmentResponse `json:"assignment"`
	LocationWarning bool                `json:"location_warning"`
	DistanceM       *float64            `json:"distance_m,omitempty"`
}

// CheckOutResponse 下岗打卡响应
type CheckOutResponse struct {
	Assignment      *AssignmentResponse `json:"assignment"`
	ActualHours     float64             `json:"actual_hours"`
	LocationWarning bool                `json:"location_warning"`
	DistanceM       *float64            `json:"distance_m,omitempty"`
}
