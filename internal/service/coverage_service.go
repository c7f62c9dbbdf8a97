package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"guardpost/backend/config"
	"guardpost/backend/internal/dto"
	"guardpost/backend/internal/model"
	"guardpost/backend/internal/repository"
)

// CoverageService 当日覆盖概览接口
type CoverageService interface {
	// TodaySnapshot 实时计算当日覆盖概览。各区块独立降级：
	// 某个信号查询失败时该区块置空并记入 degraded，其余区块照常返回。
	TodaySnapshot(ctx context.Context) (*dto.CoverageSnapshotResponse, error)
}

type coverageService struct {
	repo    *repository.Repository
	cfg     *config.AttendanceConfig
	loc     *time.Location
	emitter Emitter
	logger  *zap.Logger
	now     func() time.Time
}

// NewCoverageService 创建 CoverageService 实例
func NewCoverageService(repo *repository.Repository, cfg *config.AttendanceConfig, loc *time.Location, emitter Emitter, logger *zap.Logger) CoverageService {
	return &coverageService{repo: repo, cfg: cfg, loc: loc, emitter: emitter, logger: logger, now: time.Now}
}

// ════════════════════════════════════════════════════════════
// TodaySnapshot — 按墙钟实时计算，不做缓存
// ════════════════════════════════════════════════════════════

func (s *coverageService) TodaySnapshot(ctx context.Context) (*dto.CoverageSnapshotResponse, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	resp := &dto.CoverageSnapshotResponse{
		Date:                 today.Format("2006-01-02"),
		SitesWithoutCoverage: []dto.UncoveredSite{},
		GuardsNotCheckedIn:   []dto.OverdueGuard{},
	}

	// ── 区块1: 在岗/应到人数 ──
	assignments, err := s.repo.Assignment.ListOnDate(ctx, today)
	if err != nil {
		s.logger.Error("覆盖概览查询当日指派失败", zap.Error(err))
		resp.Degraded = append(resp.Degraded, "guards")
	} else {
		// 按队员去重：同一队员当日多个不重叠班次只计一次
		expected := map[string]bool{}
		onDuty := map[string]bool{}
		for i := range assignments {
			expected[assignments[i].WorkerID] = true
			if assignments[i].Status == model.AssignmentStatusCheckedIn {
				onDuty[assignments[i].WorkerID] = true
			}
		}
		resp.GuardsExpectedToday = len(expected)
		resp.GuardsOnDuty = len(onDuty)
	}

	// ── 区块2: 站点覆盖 ──
	shifts, err := s.repo.Shift.ListOnDateWithAssignments(ctx, today)
	if err != nil {
		s.logger.Error("覆盖概览查询当日班次失败", zap.Error(err))
		resp.Degraded = append(resp.Degraded, "sites")
	} else {
		// 覆盖判定遍历当日全部班次，不按当前时刻过滤：
		// 夜间查看概览时也要看到当天所有缺岗站点
		covered := map[string]bool{}
		for i := range shifts {
			shift := &shifts[i]
			if shift.SiteID == nil {
				continue
			}
			onDuty := false
			for j := range shift.Assignments {
				if shift.Assignments[j].Status == model.AssignmentStatusCheckedIn {
					onDuty = true
					break
				}
			}
			if onDuty {
				covered[*shift.SiteID] = true
				continue
			}
			site := dto.UncoveredSite{
				SiteID:    *shift.SiteID,
				ShiftID:   shift.ShiftID,
				StartTime: shift.StartTime,
				EndTime:   shift.EndTime,
			}
			if shift.Site != nil {
				site.SiteName = shift.Site.Name
			}
			if shift.Customer != nil {
				site.CustomerName = shift.Customer.Name
			}
			resp.SitesWithoutCoverage = append(resp.SitesWithoutCoverage, site)
		}
		// 同一站点既有在岗班次又有缺岗班次时以在岗为准
		filtered := resp.SitesWithoutCoverage[:0]
		for _, site := range resp.SitesWithoutCoverage {
			if !covered[site.SiteID] {
				filtered = append(filtered, site)
			}
		}
		resp.SitesWithoutCoverage = filtered
		resp.SitesWithCoverage = len(covered)
	}

	// ── 区块3: 应到未签 ──
	pending, err := s.repo.Assignment.ListPendingOnDate(ctx, today)
	if err != nil {
		s.logger.Error("覆盖概览查询待打卡指派失败", zap.Error(err))
		resp.Degraded = append(resp.Degraded, "overdue")
	} else {
		lead := time.Duration(s.cfg.CheckinLeadMinutes) * time.Minute
		for i := range pending {
			a := &pending[i]
			if a.Shift == nil {
				continue
			}
			startAt, err := shiftStartAt(a.Shift.ShiftDate, a.Shift.StartTime, s.loc)
			if err != nil {
				continue
			}
			// 列出应到未签：开班时间已过，或在提前量窗口内即将开班
			if startAt.Sub(now) > lead {
				continue
			}
			overdueMin := int(now.Sub(startAt).Minutes())
			if overdueMin < 0 {
				overdueMin = 0 // 尚未开班，只是临近
			}
			guard := dto.OverdueGuard{
				AssignmentID: a.AssignmentID,
				WorkerID:     a.WorkerID,
				ShiftID:      a.ShiftID,
				StartTime:    a.Shift.StartTime,
				OverdueMin:   overdueMin,
			}
			if a.Worker != nil {
				guard.WorkerName = a.Worker.Name
				guard.WorkerPhone = a.Worker.Phone
			}
			if a.Shift.Site != nil {
				guard.SiteName = a.Shift.Site.Name
			}
			resp.GuardsNotCheckedIn = append(resp.GuardsNotCheckedIn, guard)

			// 逾期提醒事件只对真正过点的队员发出，临近开班不打扰
			if overdueMin > 0 {
				s.emitter.Emit(ctx, model.EventGuardOverdue, a.WorkerID,
					"assignment", a.AssignmentID,
					map[string]interface{}{
						"shift_id":    a.ShiftID,
						"start_time":  a.Shift.StartTime,
						"overdue_min": guard.OverdueMin,
					})
			}
		}
	}

	return resp, nil
}
