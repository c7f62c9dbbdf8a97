package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"guardpost/backend/internal/dto"
	"guardpost/backend/internal/model"
	"guardpost/backend/internal/repository"
	pkgerrors "guardpost/backend/pkg/errors"
)

// ── 指派模块业务错误 ──

var (
	ErrWorkerNotFound        = errors.New("队员不存在")
	ErrWorkerInactive        = errors.New("队员已停用，不可指派")
	ErrWeaponLicenseRequired = errors.New("该班次要求有效持枪证")
	ErrVehicleRequired       = errors.New("该班次要求驾驶能力")
	ErrDuplicateAssignment   = errors.New("该队员已被指派到此班次")
	ErrSchedulingConflict    = errors.New("该队员当日存在时间冲突的班次")
	ErrAssignmentNotFound    = errors.New("指派记录不存在")
	ErrAlreadyStarted        = errors.New("队员已打卡，不可撤销指派")
)

// AssignmentService 指派业务接口
type AssignmentService interface {
	// 指派队员到班次（防重复、防同日时间冲突）
	Assign(ctx context.Context, shiftID string, req *dto.AssignWorkerRequest, callerID string) (*dto.AssignmentResponse, error)
	// 撤销指派（仅限尚未打卡的指派）
	Unassign(ctx context.Context, assignmentID, callerID string) error
	// 班次的全部指派
	ListByShift(ctx context.Context, shiftID string) ([]dto.AssignmentResponse, error)
	// 冲突详情（指派失败时供前端展示）
	ConflictsFor(ctx context.Context, workerID string, date time.Time, startTime, endTime string) ([]dto.ConflictDetail, error)
}

type assignmentService struct {
	repo    *repository.Repository
	emitter Emitter
	logger  *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, emitter Emitter, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, emitter: emitter, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Assign — 前置校验 + 排他插入
// ════════════════════════════════════════════════════════════

func (s *assignmentService) Assign(ctx context.Context, shiftID string, req *dto.AssignWorkerRequest, callerID string) (*dto.AssignmentResponse, error) {
	// 1. 班次校验
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, err
	}

	// 2. 队员校验：在职 + 资质前置条件
	worker, err := s.repo.Worker.GetByID(ctx, req.WorkerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		s.logger.Error("查询队员失败", zap.Error(err))
		return nil, err
	}
	if !worker.IsActive {
		return nil, ErrWorkerInactive
	}
	if shift.RequiresWeapon && !worker.WeaponLicenseValid(shift.ShiftDate) {
		return nil, ErrWeaponLicenseRequired
	}
	if shift.RequiresVehicle && !worker.VehicleCapable {
		return nil, ErrVehicleRequired
	}

	// 3. 排他插入：查重与同日重叠检测在存储层事务内完成
	role := req.Role
	if role == "" {
		role = "guard"
	}
	assignment := &model.ShiftAssignment{
		ShiftID:  shiftID,
		WorkerID: req.WorkerID,
		Role:     role,
		Status:   model.AssignmentStatusAssigned,
	}
	assignment.CreatedBy = &callerID
	assignment.UpdatedBy = &callerID

	err = s.repo.Assignment.CreateExclusive(ctx, assignment, shift.ShiftDate, shift.StartTime, shift.EndTime)
	switch {
	case err == nil:
	case errors.Is(err, pkgerrors.ErrDuplicateAssignment):
		return nil, ErrDuplicateAssignment
	case errors.Is(err, pkgerrors.ErrSchedulingConflict):
		return nil, ErrSchedulingConflict
	default:
		s.logger.Error("创建指派失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("队员已指派",
		zap.String("shift_id", shiftID),
		zap.String("worker_id", req.WorkerID),
		zap.String("operator", callerID))

	// 4. 发出即忘的指派通知
	s.emitter.Emit(ctx, model.EventAssignmentCreated, req.WorkerID,
		"assignment", assignment.AssignmentID,
		map[string]interface{}{
			"shift_id":   shiftID,
			"shift_date": shift.ShiftDate.Format("2006-01-02"),
			"start_time": shift.StartTime,
			"end_time":   shift.EndTime,
		})

	assignment.Worker = worker
	return toAssignmentResponse(assignment), nil
}

// ════════════════════════════════════════════════════════════
// Unassign — 仅撤销未开始的指派
// ════════════════════════════════════════════════════════════

func (s *assignmentService) Unassign(ctx context.Context, assignmentID, callerID string) error {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.Error(err))
		return err
	}
	if assignment.Status != model.AssignmentStatusAssigned {
		return ErrAlreadyStarted
	}

	if err := s.repo.Assignment.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("撤销指派失败", zap.Error(err))
		return err
	}

	s.logger.Info("指派已撤销",
		zap.String("assignment_id", assignmentID),
		zap.String("worker_id", assignment.WorkerID),
		zap.String("operator", callerID))
	return nil
}

func (s *assignmentService) ListByShift(ctx context.Context, shiftID string) ([]dto.AssignmentResponse, error) {
	if _, err := s.repo.Shift.GetByID(ctx, shiftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	assignments, err := s.repo.Assignment.ListByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("查询班次指派失败", zap.Error(err))
		return nil, err
	}
	items := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		items = append(items, *toAssignmentResponse(&assignments[i]))
	}
	return items, nil
}

// ConflictsFor 列出与给定时间窗重叠的既有班次，用于冲突响应的 details
func (s *assignmentService) ConflictsFor(ctx context.Context, workerID string, date time.Time, startTime, endTime string) ([]dto.ConflictDetail, error) {
	assignments, err := s.repo.Assignment.ListForWorkerOnDate(ctx, workerID, date)
	if err != nil {
		return nil, err
	}
	var details []dto.ConflictDetail
	for i := range assignments {
		shift := assignments[i].Shift
		if shift == nil {
			continue
		}
		if timesOverlap(shift.StartTime, shift.EndTime, startTime, endTime) {
			details = append(details, dto.ConflictDetail{
				ShiftID:   shift.ShiftID,
				ShiftDate: shift.ShiftDate.Format("2006-01-02"),
				StartTime: shift.StartTime,
				EndTime:   shift.EndTime,
			})
		}
	}
	return details, nil
}

// ── 响应映射 ──

func toAssignmentResponse(a *model.ShiftAssignment) *dto.AssignmentResponse {
	resp := &dto.AssignmentResponse{
		ID:              a.AssignmentID,
		ShiftID:         a.ShiftID,
		Role:            a.Role,
		Status:          a.Status,
		ActualHours:     a.ActualHours,
		LocationWarning: a.LocationWarning,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
	if a.CheckInTime != nil {
		t := a.CheckInTime.Format(time.RFC3339)
		resp.CheckInTime = &t
	}
	if a.CheckOutTime != nil {
		t := a.CheckOutTime.Format(time.RFC3339)
		resp.CheckOutTime = &t
	}
	if a.Worker != nil {
		resp.Worker = &dto.WorkerBrief{
			ID:    a.Worker.WorkerID,
			Name:  a.Worker.Name,
			Phone: a.Worker.Phone,
			Role:  a.Worker.Role,
		}
	}
	return resp
}
