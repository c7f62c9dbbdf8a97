package repository

import (
	"context"

	"gorm.io/gorm"

	"guardpost/backend/internal/model"
)

// NotificationRepository 通知数据访问接口
// 仅供事件发射器落库；投递与已读管理归外部消息模块
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.Notification, int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepo) ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("worker_id = ?", workerID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, total, err
}
