package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guardpost/backend/internal/model"
	pkgerrors "guardpost/backend/pkg/errors"
)

// AssignmentRepository 班次指派数据访问接口
type AssignmentRepository interface {
	// CreateExclusive 原子化的"查重+冲突检测+插入"。
	// 事务内先对队员行加锁，把同一队员的并发指派串行化，之后的重复/
	// 重叠检测与插入在同一隔离边界内完成；(shift_id, worker_id) 唯一
	// 索引作为最后防线。返回 pkg/errors 中的存储层哨兵错误。
	CreateExclusive(ctx context.Context, assignment *model.ShiftAssignment, date time.Time, startTime, endTime string) error
	GetByID(ctx context.Context, id string) (*model.ShiftAssignment, error)
	ListByShift(ctx context.Context, shiftID string) ([]model.ShiftAssignment, error)
	ListForWorkerOnDate(ctx context.Context, workerID string, date time.Time) ([]model.ShiftAssignment, error)
	ListOnDate(ctx context.Context, date time.Time) ([]model.ShiftAssignment, error)
	ListPendingOnDate(ctx context.Context, date time.Time) ([]model.ShiftAssignment, error)
	CountByShift(ctx context.Context, shiftID string) (int64, error)
	// UpdateAttendance 乐观锁更新考勤字段（状态/时间戳/工时）
	UpdateAttendance(ctx context.Context, assignment *model.ShiftAssignment) error
	// Delete 硬删除指派（仅撤销未开始的指派时使用）
	Delete(ctx context.Context, id string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) CreateExclusive(ctx context.Context, assignment *model.ShiftAssignment, date time.Time, startTime, endTime string) error {
	dateStr := date.Format("2006-01-02")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 锁队员行：同一队员的并发指派在此串行
		var worker model.Worker
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("worker_id = ?", assignment.WorkerID).
			First(&worker).Error; err != nil {
			return err
		}

		// 2. 查重：同班次同队员
		var dup int64
		if err := tx.Model(&model.ShiftAssignment{}).
			Where("shift_id = ? AND worker_id = ?", assignment.ShiftID, assignment.WorkerID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return pkgerrors.ErrDuplicateAssignment
		}

		// 3. 半开区间重叠检测：existing.start < cand.end AND existing.end > cand.start
		//    首尾相接（end == start）不算冲突
		var conflicts int64
		if err := tx.Model(&model.ShiftAssignment{}).
			Joins("JOIN shifts s ON s.shift_id = shift_assignments.shift_id AND s.deleted_at IS NULL").
			Where("shift_assignments.worker_id = ?", assignment.WorkerID).
			Where("s.shift_date = ?", dateStr).
			Where("s.start_time < ? AND s.end_time > ?", endTime, startTime).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return pkgerrors.ErrSchedulingConflict
		}

		// 4. 插入
		return tx.Create(assignment).Error
	})

	// 唯一索引兜底：极端情况下的并发插入由数据库拒绝
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateAssignment
	}
	return err
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.ShiftAssignment, error) {
	var assignment model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Shift.Site").
		Preload("Worker").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) ListByShift(ctx context.Context, shiftID string) ([]model.ShiftAssignment, error) {
	var assignments []model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Worker").
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListForWorkerOnDate(ctx context.Context, workerID string, date time.Time) ([]model.ShiftAssignment, error) {
	var assignments []model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Joins("JOIN shifts s ON s.shift_id = shift_assignments.shift_id AND s.deleted_at IS NULL").
		Where("shift_assignments.worker_id = ?", workerID).
		Where("s.shift_date = ?", date.Format("2006-01-02")).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListOnDate(ctx context.Context, date time.Time) ([]model.ShiftAssignment, error) {
	var assignments []model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Worker").
		Joins("JOIN shifts s ON s.shift_id = shift_assignments.shift_id AND s.deleted_at IS NULL").
		Where("s.shift_date = ?", date.Format("2006-01-02")).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListPendingOnDate(ctx context.Context, date time.Time) ([]model.ShiftAssignment, error) {
	var assignments []model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Shift.Site").
		Preload("Worker").
		Joins("JOIN shifts s ON s.shift_id = shift_assignments.shift_id AND s.deleted_at IS NULL").
		Where("s.shift_date = ?", date.Format("2006-01-02")).
		Where("shift_assignments.status = ?", model.AssignmentStatusAssigned).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) CountByShift(ctx context.Context, shiftID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ShiftAssignment{}).
		Where("shift_id = ?", shiftID).
		Count(&count).Error
	return count, err
}

func (r *assignmentRepo) UpdateAttendance(ctx context.Context, assignment *model.ShiftAssignment) error {
	oldVersion := assignment.Version
	result := r.db.WithContext(ctx).
		Model(assignment).
		Where("assignment_id = ? AND version = ?", assignment.AssignmentID, oldVersion).
		Updates(map[string]interface{}{
			"status":           assignment.Status,
			"check_in_time":    assignment.CheckInTime,
			"check_out_time":   assignment.CheckOutTime,
			"actual_hours":     assignment.ActualHours,
			"location_warning": assignment.LocationWarning,
			"updated_by":       assignment.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	assignment.Version = oldVersion + 1
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("assignment_id = ?", id).
		Delete(&model.ShiftAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
