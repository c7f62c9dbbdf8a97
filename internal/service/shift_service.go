package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"guardpost/backend/internal/dto"
	"guardpost/backend/internal/model"
	"guardpost/backend/internal/repository"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound        = errors.New("班次不存在")
	ErrCustomerNotFound     = errors.New("客户不存在")
	ErrSiteNotFound         = errors.New("站点不存在")
	ErrSiteCustomerMismatch = errors.New("站点不属于该客户")
	ErrInvalidTimeRange     = errors.New("班次开始时间必须早于结束时间")
	ErrInvalidDateRange     = errors.New("重复结束日期不得早于起始日期")
)

// ShiftService 班次业务接口
type ShiftService interface {
	// 创建单个班次
	CreateShift(ctx context.Context, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error)
	// 按周规则批量创建班次（部分失败不回滚，返回逐条警告）
	CreateRecurringShifts(ctx context.Context, req *dto.CreateRecurringShiftsRequest, callerID string) (*dto.RecurringShiftsResponse, error)
	// 获取班次详情（含指派）
	GetShift(ctx context.Context, id string) (*dto.ShiftResponse, error)
	// 班次列表
	ListShifts(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error)
	// 删除班次（级联删除指派）
	DeleteShift(ctx context.Context, id, callerID string) error
	// 导出值班表 xlsx
	ExportRoster(ctx context.Context, req *dto.RosterExportRequest) (*excelize.File, error)
	// 队员个人排班 iCalendar 订阅
	WorkerCalendar(ctx context.Context, workerID string, from, to time.Time) (string, error)
}

type shiftService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, loc: loc, logger: logger}
}

// ════════════════════════════════════════════════════════════
// CreateShift — 单班次创建
// ════════════════════════════════════════════════════════════

func (s *shiftService) CreateShift(ctx context.Context, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error) {
	shift, err := s.buildShift(ctx, req, callerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("班次已创建",
		zap.String("shift_id", shift.ShiftID),
		zap.String("shift_date", shift.ShiftDate.Format("2006-01-02")),
		zap.String("operator", callerID))

	return s.toShiftResponse(shift), nil
}

// buildShift 校验请求并组装班次模型（创建与批量创建共用）
func (s *shiftService) buildShift(ctx context.Context, req *dto.CreateShiftRequest, callerID string) (*model.Shift, error) {
	// 1. 时间窗校验："HH:MM" 字典序即时间序，且必须同日内
	if _, _, err := parseClock(req.StartTime); err != nil {
		return nil, ErrInvalidTimeRange
	}
	if _, _, err := parseClock(req.EndTime); err != nil {
		return nil, ErrInvalidTimeRange
	}
	if req.StartTime >= req.EndTime {
		return nil, ErrInvalidTimeRange
	}

	shiftDate, err := time.ParseInLocation("2006-01-02", req.ShiftDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("班次日期格式无效: %w", err)
	}

	// 2. 客户存在性
	if _, err := s.repo.Customer.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		s.logger.Error("查询客户失败", zap.Error(err))
		return nil, err
	}

	// 3. 站点存在性与归属
	if req.SiteID != nil {
		site, err := s.repo.Site.GetByID(ctx, *req.SiteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSiteNotFound
			}
			s.logger.Error("查询站点失败", zap.Error(err))
			return nil, err
		}
		if site.CustomerID != req.CustomerID {
			return nil, ErrSiteCustomerMismatch
		}
	}

	shift := &model.Shift{
		CustomerID:      req.CustomerID,
		SiteID:          req.SiteID,
		ShiftDate:       shiftDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RequiredWorkers: req.RequiredWorkers,
		RequiresWeapon:  req.RequiresWeapon,
		RequiresVehicle: req.RequiresVehicle,
		Notes:           req.Notes,
		Status:          model.ShiftStatusScheduled,
	}
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID
	return shift, nil
}

// ════════════════════════════════════════════════════════════
// CreateRecurringShifts — 周规则批量创建
// ════════════════════════════════════════════════════════════

// rrule 的星期常量按 0=周一 编号，请求里按 0=周日 编号
var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

func (s *shiftService) CreateRecurringShifts(ctx context.Context, req *dto.CreateRecurringShiftsRequest, callerID string) (*dto.RecurringShiftsResponse, error) {
	startDate, err := time.ParseInLocation("2006-01-02", req.ShiftDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("起始日期格式无效: %w", err)
	}
	endDate, err := time.ParseInLocation("2006-01-02", req.EndDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("结束日期格式无效: %w", err)
	}
	// 允许单日区间：起止同天时只看当天是否命中星期
	if endDate.Before(startDate) {
		return nil, ErrInvalidDateRange
	}

	// 模板校验一次即可，逐日创建只替换日期
	template := req.CreateShiftRequest
	if _, err := s.buildShift(ctx, &template, callerID); err != nil {
		return nil, err
	}

	weekdays := make([]rrule.Weekday, 0, len(req.Weekdays))
	for _, d := range req.Weekdays {
		weekdays = append(weekdays, rruleWeekdays[d])
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   startDate,
		Until:     endDate,
		Byweekday: weekdays,
	})
	if err != nil {
		return nil, fmt.Errorf("构造重复规则失败: %w", err)
	}

	resp := &dto.RecurringShiftsResponse{}
	for _, occurrence := range rule.All() {
		day := template
		day.ShiftDate = occurrence.Format("2006-01-02")

		shift, err := s.buildShift(ctx, &day, callerID)
		if err != nil {
			resp.Warnings = append(resp.Warnings,
				fmt.Sprintf("%s: %v", day.ShiftDate, err))
			continue
		}
		if err := s.repo.Shift.Create(ctx, shift); err != nil {
			s.logger.Error("批量创建班次失败",
				zap.String("shift_date", day.ShiftDate), zap.Error(err))
			resp.Warnings = append(resp.Warnings,
				fmt.Sprintf("%s: 创建失败", day.ShiftDate))
			continue
		}
		resp.CreatedCount++
		resp.Shifts = append(resp.Shifts, *s.toShiftResponse(shift))
	}

	s.logger.Info("批量班次创建完成",
		zap.Int("created", resp.CreatedCount),
		zap.Int("warnings", len(resp.Warnings)),
		zap.String("operator", callerID))

	return resp, nil
}

// ════════════════════════════════════════════════════════════
// 查询与删除
// ════════════════════════════════════════════════════════════

func (s *shiftService) GetShift(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Error(err))
		return nil, err
	}
	return s.toShiftResponse(shift), nil
}

func (s *shiftService) ListShifts(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	filter := repository.ShiftFilter{
		SiteID: req.SiteID,
		Status: req.Status,
	}
	if req.DateFrom != "" {
		t, err := time.ParseInLocation("2006-01-02", req.DateFrom, s.loc)
		if err != nil {
			return nil, 0, fmt.Errorf("date_from 格式无效: %w", err)
		}
		filter.DateFrom = &t
	}
	if req.DateTo != "" {
		t, err := time.ParseInLocation("2006-01-02", req.DateTo, s.loc)
		if err != nil {
			return nil, 0, fmt.Errorf("date_to 格式无效: %w", err)
		}
		filter.DateTo = &t
	}

	shifts, total, err := s.repo.Shift.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		items = append(items, *s.toShiftResponse(&shifts[i]))
	}
	return items, total, nil
}

func (s *shiftService) DeleteShift(ctx context.Context, id, callerID string) error {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Error(err))
		return err
	}
	// 删除是管理动作，任何状态的班次都允许：级联会带走考勤记录
	if err := s.repo.Shift.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		s.logger.Error("删除班次失败", zap.Error(err))
		return err
	}

	s.logger.Info("班次已删除",
		zap.String("shift_id", id),
		zap.Int("cascaded_assignments", len(shift.Assignments)),
		zap.String("operator", callerID))
	return nil
}

// ════════════════════════════════════════════════════════════
// ExportRoster — 值班表 xlsx 导出
// ════════════════════════════════════════════════════════════

var rosterHeaders = []string{"日期", "开始", "结束", "客户", "站点", "所需人数", "已指派", "队员", "状态"}

func (s *shiftService) ExportRoster(ctx context.Context, req *dto.RosterExportRequest) (*excelize.File, error) {
	from, err := time.ParseInLocation("2006-01-02", req.DateFrom, s.loc)
	if err != nil {
		return nil, fmt.Errorf("date_from 格式无效: %w", err)
	}
	to, err := time.ParseInLocation("2006-01-02", req.DateTo, s.loc)
	if err != nil {
		return nil, fmt.Errorf("date_to 格式无效: %w", err)
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	shifts, err := s.repo.Shift.ListByDateRange(ctx, from, to)
	if err != nil {
		s.logger.Error("导出查询班次失败", zap.Error(err))
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "值班表"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, h := range rosterHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for i := range shifts {
		shift := &shifts[i]
		if req.SiteID != "" && (shift.SiteID == nil || *shift.SiteID != req.SiteID) {
			continue
		}

		customerName, siteName := "", ""
		if shift.Customer != nil {
			customerName = shift.Customer.Name
		}
		if shift.Site != nil {
			siteName = shift.Site.Name
		}

		// 每个指派一行；无指派的班次也要出现在表里
		targets := shift.Assignments
		if len(targets) == 0 {
			targets = []model.ShiftAssignment{{}}
		}
		for j := range targets {
			workerName, status := "", "未指派"
			if targets[j].AssignmentID != "" {
				status = targets[j].Status
				if targets[j].Worker != nil {
					workerName = targets[j].Worker.Name
				}
			}
			values := []interface{}{
				shift.ShiftDate.Format("2006-01-02"),
				shift.StartTime,
				shift.EndTime,
				customerName,
				siteName,
				shift.RequiredWorkers,
				len(shift.Assignments),
				workerName,
				status,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}

	return f, nil
}

// ════════════════════════════════════════════════════════════
// WorkerCalendar — 个人排班 iCalendar
// ════════════════════════════════════════════════════════════

func (s *shiftService) WorkerCalendar(ctx context.Context, workerID string, from, to time.Time) (string, error) {
	if _, err := s.repo.Worker.GetByID(ctx, workerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrWorkerNotFound
		}
		s.logger.Error("查询队员失败", zap.Error(err))
		return "", err
	}

	shifts, err := s.repo.Shift.ListForWorkerByDateRange(ctx, workerID, from, to)
	if err != nil {
		s.logger.Error("查询队员班次失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//guardpost//roster//ZH")

	for i := range shifts {
		shift := &shifts[i]
		start, err := shiftStartAt(shift.ShiftDate, shift.StartTime, s.loc)
		if err != nil {
			continue
		}
		end, err := shiftStartAt(shift.ShiftDate, shift.EndTime, s.loc)
		if err != nil {
			continue
		}

		summary := "勤务班次"
		if shift.Customer != nil {
			summary = shift.Customer.Name
		}
		event := cal.AddEvent(fmt.Sprintf("%s@guardpost", shift.ShiftID))
		event.SetCreatedTime(shift.CreatedAt)
		event.SetDtStampTime(shift.UpdatedAt)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(summary)
		if shift.Site != nil {
			event.SetLocation(shift.Site.Name)
			if shift.Site.Address != "" {
				event.SetLocation(shift.Site.Name + " " + shift.Site.Address)
			}
		}
		if shift.Notes != "" {
			event.SetDescription(shift.Notes)
		}
	}

	return cal.Serialize(), nil
}

// ── 响应映射 ──

func (s *shiftService) toShiftResponse(shift *model.Shift) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:              shift.ShiftID,
		ShiftDate:       shift.ShiftDate.Format("2006-01-02"),
		StartTime:       shift.StartTime,
		EndTime:         shift.EndTime,
		RequiredWorkers: shift.RequiredWorkers,
		AssignedCount:   len(shift.Assignments),
		RequiresWeapon:  shift.RequiresWeapon,
		RequiresVehicle: shift.RequiresVehicle,
		Status:          shift.Status,
		Notes:           shift.Notes,
		CreatedAt:       shift.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       shift.UpdatedAt.Format(time.RFC3339),
	}
	if shift.Customer != nil {
		resp.Customer = &dto.CustomerBrief{ID: shift.Customer.CustomerID, Name: shift.Customer.Name}
	}
	if shift.Site != nil {
		resp.Site = &dto.SiteBrief{ID: shift.Site.SiteID, Name: shift.Site.Name, Address: shift.Site.Address}
	}
	for i := range shift.Assignments {
		resp.Assignments = append(resp.Assignments, *toAssignmentResponse(&shift.Assignments[i]))
	}
	return resp
}
