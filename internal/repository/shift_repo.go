package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"guardpost/backend/internal/model"
)

// ShiftFilter 班次列表查询条件
type ShiftFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	SiteID   string
	Status   string
}

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	List(ctx context.Context, filter ShiftFilter, offset, limit int) ([]model.Shift, int64, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Shift, error)
	ListForWorkerByDateRange(ctx context.Context, workerID string, from, to time.Time) ([]model.Shift, error)
	ListOnDateWithAssignments(ctx context.Context, date time.Time) ([]model.Shift, error)
	// AdvanceStatus 条件推进班次状态（WHERE status = from），重复调用为幂等 no-op。
	// 返回是否真正发生了推进。
	AdvanceStatus(ctx context.Context, id, from, to string) (bool, error)
	// DeleteCascade 在单事务内硬删除班次及其全部指派
	DeleteCascade(ctx context.Context, id string) error
}

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Site").
		Preload("Assignments").
		Preload("Assignments.Worker").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) List(ctx context.Context, filter ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Shift{})
	if filter.DateFrom != nil {
		q = q.Where("shift_date >= ?", filter.DateFrom.Format("2006-01-02"))
	}
	if filter.DateTo != nil {
		q = q.Where("shift_date <= ?", filter.DateTo.Format("2006-01-02"))
	}
	if filter.SiteID != "" {
		q = q.Where("site_id = ?", filter.SiteID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Customer").Preload("Site").
		Offset(offset).Limit(limit).
		Order("shift_date ASC, start_time ASC").
		Find(&shifts).Error
	return shifts, total, err
}

func (r *shiftRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Site").
		Preload("Assignments").
		Preload("Assignments.Worker").
		Where("shift_date >= ? AND shift_date <= ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("shift_date ASC, start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListForWorkerByDateRange(ctx context.Context, workerID string, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Site").
		Joins("JOIN shift_assignments a ON a.shift_id = shifts.shift_id AND a.deleted_at IS NULL").
		Where("a.worker_id = ?", workerID).
		Where("shifts.shift_date >= ? AND shifts.shift_date <= ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("shifts.shift_date ASC, shifts.start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListOnDateWithAssignments(ctx context.Context, date time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Site").
		Preload("Assignments").
		Preload("Assignments.Worker").
		Where("shift_date = ?", date.Format("2006-01-02")).
		Order("start_time ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) AdvanceStatus(ctx context.Context, id, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *shiftRepo) DeleteCascade(ctx context.Context, id string) error {
	// 级联删除必须原子：指派与班次同事务硬删，避免悬挂指派
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("shift_id = ?", id).
			Delete(&model.ShiftAssignment{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().
			Where("shift_id = ?", id).
			Delete(&model.Shift{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
