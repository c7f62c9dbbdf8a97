package repository

import (
	"context"

	"gorm.io/gorm"

	"guardpost/backend/internal/model"
)

// WorkerRepository 队员数据访问接口
// 排班引擎只读取队员；密码等写入仅服务于认证模块
type WorkerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Worker, error)
	GetByEmail(ctx context.Context, email string) (*model.Worker, error)
	List(ctx context.Context, activeOnly bool) ([]model.Worker, error)
	Create(ctx context.Context, worker *model.Worker) error
}

type workerRepo struct {
	db *gorm.DB
}

func NewWorkerRepo(db *gorm.DB) WorkerRepository {
	return &workerRepo{db: db}
}

func (r *workerRepo) GetByID(ctx context.Context, id string) (*model.Worker, error) {
	var worker model.Worker
	err := r.db.WithContext(ctx).
		Where("worker_id = ?", id).
		First(&worker).Error
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepo) GetByEmail(ctx context.Context, email string) (*model.Worker, error) {
	var worker model.Worker
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&worker).Error
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepo) List(ctx context.Context, activeOnly bool) ([]model.Worker, error) {
	var workers []model.Worker
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("name ASC").Find(&workers).Error
	return workers, err
}

func (r *workerRepo) Create(ctx context.Context, worker *model.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}
