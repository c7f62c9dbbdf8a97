package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"guardpost/backend/config"
	"guardpost/backend/internal/dto"
	"guardpost/backend/internal/model"
	"guardpost/backend/internal/repository"
	pkgerrors "guardpost/backend/pkg/errors"
	"guardpost/backend/pkg/geo"
)

// ── 考勤模块业务错误 ──

var (
	ErrInvalidAttendanceState = errors.New("当前状态不允许此考勤操作")
	ErrNotOwnAssignment       = errors.New("只能为本人指派打卡")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// 上岗打卡：assigned → checked_in，定位偏差只提醒不阻断
	CheckIn(ctx context.Context, assignmentID, callerID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error)
	// 下岗打卡：checked_in → checked_out，派生实际工时；定位校验与上岗一致
	CheckOut(ctx context.Context, assignmentID, callerID string, req *dto.CheckOutRequest) (*dto.CheckOutResponse, error)
	// 标记未到岗：assigned → no_show（仅操作员）
	MarkNoShow(ctx context.Context, assignmentID, callerID string) (*dto.AssignmentResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	cfg    *config.AttendanceConfig
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time // 可注入时钟，测试用
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, cfg *config.AttendanceConfig, loc *time.Location, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, cfg: cfg, loc: loc, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// CheckIn — 上岗打卡
// ════════════════════════════════════════════════════════════

func (s *attendanceService) CheckIn(ctx context.Context, assignmentID, callerID string, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	assignment, err := s.loadOwnAssignment(ctx, assignmentID, callerID)
	if err != nil {
		return nil, err
	}
	// 状态机：只允许 assigned → checked_in
	if assignment.Status != model.AssignmentStatusAssigned {
		return nil, ErrInvalidAttendanceState
	}

	now := s.now().In(s.loc)

	var lat, lng *float64
	if req != nil {
		lat, lng = req.Lat, req.Lng
	}
	locationWarning, distanceM := s.locationAdvisory(assignment, lat, lng)

	assignment.Status = model.AssignmentStatusCheckedIn
	assignment.CheckInTime = &now
	assignment.LocationWarning = locationWarning
	assignment.UpdatedBy = &callerID
	if err := s.repo.Assignment.UpdateAttendance(ctx, assignment); err != nil {
		// 并发双打卡输掉版本比对时按状态机冲突处理
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrInvalidAttendanceState
		}
		s.logger.Error("写入上岗打卡失败", zap.Error(err))
		return nil, err
	}

	// 首个打卡把班次推进为进行中；并发重复调用幂等
	advanced, err := s.repo.Shift.AdvanceStatus(ctx, assignment.ShiftID,
		model.ShiftStatusScheduled, model.ShiftStatusInProgress)
	if err != nil {
		s.logger.Error("推进班次状态失败", zap.Error(err))
	} else if advanced {
		s.logger.Info("班次进入进行中", zap.String("shift_id", assignment.ShiftID))
	}

	s.logger.Info("队员已上岗打卡",
		zap.String("assignment_id", assignmentID),
		zap.String("worker_id", callerID),
		zap.Bool("location_warning", locationWarning))

	return &dto.CheckInResponse{
		Assignment:      toAssignmentResponse(assignment),
		LocationWarning: locationWarning,
		DistanceM:       distanceM,
	}, nil
}

// ════════════════════════════════════════════════════════════
// CheckOut — 下岗打卡与工时派生
// ════════════════════════════════════════════════════════════

func (s *attendanceService) CheckOut(ctx context.Context, assignmentID, callerID string, req *dto.CheckOutRequest) (*dto.CheckOutResponse, error) {
	assignment, err := s.loadOwnAssignment(ctx, assignmentID, callerID)
	if err != nil {
		return nil, err
	}
	// 必须先上岗；重复下岗同样拒绝
	if assignment.Status != model.AssignmentStatusCheckedIn || assignment.CheckInTime == nil {
		return nil, ErrInvalidAttendanceState
	}

	now := s.now().In(s.loc)
	hours := durationHours(*assignment.CheckInTime, now)

	var lat, lng *float64
	if req != nil {
		lat, lng = req.Lat, req.Lng
	}
	locationWarning, distanceM := s.locationAdvisory(assignment, lat, lng)

	assignment.Status = model.AssignmentStatusCheckedOut
	assignment.CheckOutTime = &now
	assignment.ActualHours = &hours
	// 上岗时的定位警告保留，下岗偏差追加
	assignment.LocationWarning = assignment.LocationWarning || locationWarning
	assignment.UpdatedBy = &callerID
	if err := s.repo.Assignment.UpdateAttendance(ctx, assignment); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrInvalidAttendanceState
		}
		s.logger.Error("写入下岗打卡失败", zap.Error(err))
		return nil, err
	}

	// 全员下岗后班次完成
	if done, err := s.allCheckedOut(ctx, assignment.ShiftID); err == nil && done {
		advanced, err := s.repo.Shift.AdvanceStatus(ctx, assignment.ShiftID,
			model.ShiftStatusInProgress, model.ShiftStatusCompleted)
		if err != nil {
			s.logger.Error("推进班次状态失败", zap.Error(err))
		} else if advanced {
			s.logger.Info("班次已完成", zap.String("shift_id", assignment.ShiftID))
		}
	}

	s.logger.Info("队员已下岗打卡",
		zap.String("assignment_id", assignmentID),
		zap.String("worker_id", callerID),
		zap.Float64("actual_hours", hours))

	return &dto.CheckOutResponse{
		Assignment:      toAssignmentResponse(assignment),
		ActualHours:     hours,
		LocationWarning: locationWarning,
		DistanceM:       distanceM,
	}, nil
}

// ════════════════════════════════════════════════════════════
// MarkNoShow — 操作员标记未到岗
// ════════════════════════════════════════════════════════════

func (s *attendanceService) MarkNoShow(ctx context.Context, assignmentID, callerID string) (*dto.AssignmentResponse, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.Error(err))
		return nil, err
	}
	// 已打卡的队员不可标记未到岗
	if assignment.Status != model.AssignmentStatusAssigned {
		return nil, ErrInvalidAttendanceState
	}

	assignment.Status = model.AssignmentStatusNoShow
	assignment.UpdatedBy = &callerID
	if err := s.repo.Assignment.UpdateAttendance(ctx, assignment); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrInvalidAttendanceState
		}
		s.logger.Error("标记未到岗失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("已标记未到岗",
		zap.String("assignment_id", assignmentID),
		zap.String("worker_id", assignment.WorkerID),
		zap.String("operator", callerID))

	return toAssignmentResponse(assignment), nil
}

// ── 内部辅助 ──

// locationAdvisory 打卡定位比对：仅当站点有坐标且携带定位时计算距离，
// 超出容差只产生警告，绝不阻断打卡
func (s *attendanceService) locationAdvisory(assignment *model.ShiftAssignment, lat, lng *float64) (bool, *float64) {
	if lat == nil || lng == nil {
		return false, nil
	}
	if assignment.Shift == nil || assignment.Shift.Site == nil || !assignment.Shift.Site.HasCoordinates() {
		return false, nil
	}
	site := assignment.Shift.Site
	d := geo.DistanceM(*lat, *lng, *site.Latitude, *site.Longitude)
	tolerance := site.RadiusM
	if tolerance <= 0 {
		tolerance = s.cfg.LocationToleranceM
	}
	if d > tolerance {
		s.logger.Warn("打卡定位超出站点范围",
			zap.String("assignment_id", assignment.AssignmentID),
			zap.Float64("distance_m", d),
			zap.Float64("tolerance_m", tolerance))
		return true, &d
	}
	return false, &d
}

// loadOwnAssignment 加载指派并校验归属（打卡只能本人操作）
func (s *attendanceService) loadOwnAssignment(ctx context.Context, assignmentID, callerID string) (*model.ShiftAssignment, error) {
	assignment, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.Error(err))
		return nil, err
	}
	if assignment.WorkerID != callerID {
		return nil, ErrNotOwnAssignment
	}
	return assignment, nil
}

// allCheckedOut 判断班次下全部指派是否都已下岗（no_show 视为已终结）
func (s *attendanceService) allCheckedOut(ctx context.Context, shiftID string) (bool, error) {
	assignments, err := s.repo.Assignment.ListByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("查询班次指派失败", zap.Error(err))
		return false, err
	}
	if len(assignments) == 0 {
		return false, nil
	}
	for i := range assignments {
		switch assignments[i].Status {
		case model.AssignmentStatusCheckedOut, model.AssignmentStatusNoShow:
		default:
			return false, nil
		}
	}
	return true, nil
}
