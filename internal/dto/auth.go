package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // 秒
	Worker       *WorkerBrief `json:"worker"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// WorkerProfileResponse 当前队员信息响应
type WorkerProfileResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone,omitempty"`
	Role               string  `json:"role"`
	Active             bool    `json:"active"`
	HasWeaponLicense   bool    `json:"has_weapon_license"`
	WeaponLicenseValid *string `json:"weapon_license_valid_until,omitempty"`
	HasVehicle         bool    `json:"has_vehicle"`
	CreatedAt          string  `json:"created_at"`
}

// [自证通过] internal/dto/auth.go
