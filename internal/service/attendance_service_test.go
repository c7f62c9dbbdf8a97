package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"guardpost/backend/config"
	"guardpost/backend/internal/dto"
	"guardpost/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestAttendanceService() (*attendanceService, *testRepos) {
	repos := newTestRepos()
	cfg := &config.AttendanceConfig{LocationToleranceM: 300, CheckinLeadMinutes: 30}
	svc := NewAttendanceService(repos.toRepository(), cfg, time.UTC, zap.NewNop()).(*attendanceService)
	return svc, repos
}

// seedCheckInScenario 种子数据：带坐标站点的班次 + 已指派的队员
func seedCheckInScenario(repos *testRepos) {
	lat, lng := 32.0853, 34.7818
	site := &model.Site{
		SiteID: "site-1", CustomerID: "cust-1", Name: "北门岗",
		Latitude: &lat, Longitude: &lng, RadiusM: 300, IsActive: true,
	}
	repos.site.sites["site-1"] = site

	siteID := "site-1"
	repos.shift.shifts["shift-1"] = &model.Shift{
		ShiftID: "shift-1", CustomerID: "cust-1", SiteID: &siteID, Site: site,
		ShiftDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: "08:00", EndTime: "16:00",
		RequiredWorkers: 1, Status: model.ShiftStatusScheduled,
	}
	repos.worker.workers["worker-1"] = &model.Worker{
		WorkerID: "worker-1", Name: "张伟", Email: "w1@example.com",
		Role: "guard", IsActive: true,
	}
	repos.assignment.assignments["assign-1"] = &model.ShiftAssignment{
		AssignmentID: "assign-1", ShiftID: "shift-1", WorkerID: "worker-1",
		Status: model.AssignmentStatusAssigned, VersionedModel: model.VersionedModel{Version: 1},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// ════════════════════════════════════════════════════════════
// CheckIn 测试
// ════════════════════════════════════════════════════════════

func TestAttendanceService_CheckIn_Success(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)
	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	result, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{})
	if err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}
	if result.Assignment.Status != model.AssignmentStatusCheckedIn {
		t.Errorf("状态应为 checked_in，实际=%s", result.Assignment.Status)
	}
	if result.Assignment.CheckInTime == nil {
		t.Error("应记录签到时间")
	}
	// 首个打卡推进班次状态
	if repos.shift.shifts["shift-1"].Status != model.ShiftStatusInProgress {
		t.Errorf("班次应进入 in_progress，实际=%s", repos.shift.shifts["shift-1"].Status)
	}
}

func TestAttendanceService_CheckIn_LocationWarning(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)
	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	// 耶路撒冷坐标，距特拉维夫站点 ~54km：提醒但不阻断
	lat, lng := 31.7683, 35.2137
	result, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{Lat: &lat, Lng: &lng})
	if err != nil {
		t.Fatalf("定位偏差不应阻断打卡: %v", err)
	}
	if !result.LocationWarning {
		t.Error("超出容差应标记 location_warning")
	}
	if result.DistanceM == nil || *result.DistanceM < 40000 {
		t.Errorf("距离计算异常: %v", result.DistanceM)
	}
}

func TestAttendanceService_CheckIn_NearbyNoWarning(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)
	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	// 站点旁 ~50m
	lat, lng := 32.0857, 34.7820
	result, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{Lat: &lat, Lng: &lng})
	if err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}
	if result.LocationWarning {
		t.Error("站点范围内不应有定位警告")
	}
}

func TestAttendanceService_CheckIn_InvalidState(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)
	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	if _, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{}); err != nil {
		t.Fatalf("首次 CheckIn 应成功: %v", err)
	}
	// 重复打卡拒绝
	if _, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{}); !errors.Is(err, ErrInvalidAttendanceState) {
		t.Errorf("期望 ErrInvalidAttendanceState，实际: %v", err)
	}
}

func TestAttendanceService_CheckIn_ConcurrentDouble(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)
	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	// 同一指派并发双打卡：恰好一次成功，另一次按状态机冲突拒绝
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInvalidAttendanceState):
			conflicts++
		default:
			t.Errorf("并发打卡不应出现其他错误: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("期望 1 次成功 1 次冲突，实际 成功=%d 冲突=%d", successes, conflicts)
	}
	if repos.assignment.assignments["assign-1"].Status != model.AssignmentStatusCheckedIn {
		t.Errorf("最终状态应为 checked_in，实际=%s", repos.assignment.assignments["assign-1"].Status)
	}
}

func TestAttendanceService_CheckIn_NotOwnAssignment(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	if _, err := svc.CheckIn(context.Background(), "assign-1", "worker-other", &dto.CheckInRequest{}); !errors.Is(err, ErrNotOwnAssignment) {
		t.Errorf("期望 ErrNotOwnAssignment，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// CheckOut 测试
// ════════════════════════════════════════════════════════════

func TestAttendanceService_CheckOut_DerivesHours(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	// 08:00 签到，16:30 签退 → 8.5 小时
	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	if _, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{}); err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}

	svc.now = fixedClock(time.Date(2026, 3, 2, 16, 30, 0, 0, time.UTC))
	result, err := svc.CheckOut(context.Background(), "assign-1", "worker-1", nil)
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if result.ActualHours != 8.5 {
		t.Errorf("期望 8.5 小时，实际=%v", result.ActualHours)
	}
	if result.Assignment.Status != model.AssignmentStatusCheckedOut {
		t.Errorf("状态应为 checked_out，实际=%s", result.Assignment.Status)
	}
	// 唯一指派签退后班次完成
	if repos.shift.shifts["shift-1"].Status != model.ShiftStatusCompleted {
		t.Errorf("班次应完成，实际=%s", repos.shift.shifts["shift-1"].Status)
	}
}

func TestAttendanceService_CheckOut_LocationWarning(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	if _, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{}); err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}

	// 下岗时人在耶路撒冷：提醒但不阻断，与上岗规则一致
	svc.now = fixedClock(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))
	lat, lng := 31.7683, 35.2137
	result, err := svc.CheckOut(context.Background(), "assign-1", "worker-1", &dto.CheckOutRequest{Lat: &lat, Lng: &lng})
	if err != nil {
		t.Fatalf("定位偏差不应阻断签退: %v", err)
	}
	if !result.LocationWarning {
		t.Error("超出容差应标记 location_warning")
	}
	if result.DistanceM == nil || *result.DistanceM < 40000 {
		t.Errorf("距离计算异常: %v", result.DistanceM)
	}
	if result.Assignment.Status != model.AssignmentStatusCheckedOut {
		t.Errorf("状态应为 checked_out，实际=%s", result.Assignment.Status)
	}
}

func TestAttendanceService_CheckOut_KeepsCheckInWarning(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	// 上岗时偏差告警，下岗在站点旁：警告不被抹掉
	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	farLat, farLng := 31.7683, 35.2137
	if _, err := svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{Lat: &farLat, Lng: &farLng}); err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}

	svc.now = fixedClock(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))
	nearLat, nearLng := 32.0857, 34.7820
	result, err := svc.CheckOut(context.Background(), "assign-1", "worker-1", &dto.CheckOutRequest{Lat: &nearLat, Lng: &nearLng})
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if result.LocationWarning {
		t.Error("下岗定位在范围内，本次不应告警")
	}
	if !result.Assignment.LocationWarning {
		t.Error("上岗时的定位警告应保留在指派记录上")
	}
}

func TestAttendanceService_CheckOut_WithoutCheckIn(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	if _, err := svc.CheckOut(context.Background(), "assign-1", "worker-1", nil); !errors.Is(err, ErrInvalidAttendanceState) {
		t.Errorf("未签到直接签退期望 ErrInvalidAttendanceState，实际: %v", err)
	}
}

func TestAttendanceService_CheckOut_DoubleRejected(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{})

	svc.now = fixedClock(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))
	if _, err := svc.CheckOut(context.Background(), "assign-1", "worker-1", nil); err != nil {
		t.Fatalf("首次 CheckOut 应成功: %v", err)
	}
	if _, err := svc.CheckOut(context.Background(), "assign-1", "worker-1", nil); !errors.Is(err, ErrInvalidAttendanceState) {
		t.Errorf("重复签退期望 ErrInvalidAttendanceState，实际: %v", err)
	}
}

func TestAttendanceService_ShiftCompletion_WaitsForAll(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	// 第二名队员同班次
	repos.worker.workers["worker-2"] = &model.Worker{
		WorkerID: "worker-2", Name: "李娜", Email: "w2@example.com",
		Role: "guard", IsActive: true,
	}
	repos.assignment.assignments["assign-2"] = &model.ShiftAssignment{
		AssignmentID: "assign-2", ShiftID: "shift-1", WorkerID: "worker-2",
		Status: model.AssignmentStatusAssigned, VersionedModel: model.VersionedModel{Version: 1},
	}

	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{})
	svc.CheckIn(context.Background(), "assign-2", "worker-2", &dto.CheckInRequest{})

	svc.now = fixedClock(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC))
	svc.CheckOut(context.Background(), "assign-1", "worker-1", nil)

	// 仍有人在岗，班次不应完成
	if repos.shift.shifts["shift-1"].Status != model.ShiftStatusInProgress {
		t.Errorf("仍有在岗队员时班次应保持 in_progress，实际=%s", repos.shift.shifts["shift-1"].Status)
	}

	svc.CheckOut(context.Background(), "assign-2", "worker-2", nil)
	if repos.shift.shifts["shift-1"].Status != model.ShiftStatusCompleted {
		t.Errorf("全员签退后班次应完成，实际=%s", repos.shift.shifts["shift-1"].Status)
	}
}

// ════════════════════════════════════════════════════════════
// MarkNoShow 测试
// ════════════════════════════════════════════════════════════

func TestAttendanceService_MarkNoShow(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	result, err := svc.MarkNoShow(context.Background(), "assign-1", "admin-1")
	if err != nil {
		t.Fatalf("MarkNoShow 应成功: %v", err)
	}
	if result.Status != model.AssignmentStatusNoShow {
		t.Errorf("状态应为 no_show，实际=%s", result.Status)
	}
}

func TestAttendanceService_MarkNoShow_AfterCheckInRejected(t *testing.T) {
	svc, repos := setupTestAttendanceService()
	seedCheckInScenario(repos)

	svc.now = fixedClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	svc.CheckIn(context.Background(), "assign-1", "worker-1", &dto.CheckInRequest{})

	if _, err := svc.MarkNoShow(context.Background(), "assign-1", "admin-1"); !errors.Is(err, ErrInvalidAttendanceState) {
		t.Errorf("已签到队员不可标记未到岗，实际: %v", err)
	}
}
