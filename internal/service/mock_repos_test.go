package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"guardpost/backend/internal/model"
	"guardpost/backend/internal/repository"
	pkgerrors "guardpost/backend/pkg/errors"
)

// ── Mock WorkerRepository ──

type mockWorkerRepo struct {
	workers map[string]*model.Worker
}

func newMockWorkerRepo() *mockWorkerRepo {
	return &mockWorkerRepo{workers: make(map[string]*model.Worker)}
}

func (m *mockWorkerRepo) GetByID(_ context.Context, id string) (*model.Worker, error) {
	if w, ok := m.workers[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkerRepo) GetByEmail(_ context.Context, email string) (*model.Worker, error) {
	for _, w := range m.workers {
		if w.Email == email {
			return w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkerRepo) List(_ context.Context, activeOnly bool) ([]model.Worker, error) {
	var result []model.Worker
	for _, w := range m.workers {
		if activeOnly && !w.IsActive {
			continue
		}
		result = append(result, *w)
	}
	return result, nil
}

func (m *mockWorkerRepo) Create(_ context.Context, worker *model.Worker) error {
	if worker.WorkerID == "" {
		worker.WorkerID = "worker-" + worker.Email
	}
	m.workers[worker.WorkerID] = worker
	return nil
}

// ── Mock CustomerRepository ──

type mockCustomerRepo struct {
	customers map[string]*model.Customer
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[string]*model.Customer)}
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id string) (*model.Customer, error) {
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCustomerRepo) List(_ context.Context) ([]model.Customer, error) {
	var result []model.Customer
	for _, c := range m.customers {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockCustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	m.customers[customer.CustomerID] = customer
	return nil
}

// ── Mock SiteRepository ──

type mockSiteRepo struct {
	sites map[string]*model.Site
}

func newMockSiteRepo() *mockSiteRepo {
	return &mockSiteRepo{sites: make(map[string]*model.Site)}
}

func (m *mockSiteRepo) GetByID(_ context.Context, id string) (*model.Site, error) {
	if s, ok := m.sites[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSiteRepo) ListByCustomer(_ context.Context, customerID string) ([]model.Site, error) {
	var result []model.Site
	for _, s := range m.sites {
		if s.CustomerID == customerID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSiteRepo) Create(_ context.Context, site *model.Site) error {
	m.sites[site.SiteID] = site
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	mu         sync.Mutex
	shifts     map[string]*model.Shift
	nextID     int
	assignRepo *mockAssignmentRepo // 回填 Assignments 关联
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if shift.ShiftID == "" {
		m.nextID++
		shift.ShiftID = fmt.Sprintf("shift-%d", m.nextID)
	}
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shift, ok := m.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *shift
	if m.assignRepo != nil {
		copied.Assignments = m.assignRepo.byShiftLocked(id)
	}
	return &copied, nil
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Shift
	for _, s := range m.shifts {
		if filter.SiteID != "" && (s.SiteID == nil || *s.SiteID != filter.SiteID) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && s.ShiftDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && s.ShiftDate.After(*filter.DateTo) {
			continue
		}
		all = append(all, *s)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockShiftRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Shift
	for _, s := range m.shifts {
		if s.ShiftDate.Before(from) || s.ShiftDate.After(to) {
			continue
		}
		copied := *s
		if m.assignRepo != nil {
			copied.Assignments = m.assignRepo.byShiftLocked(s.ShiftID)
		}
		result = append(result, copied)
	}
	return result, nil
}

func (m *mockShiftRepo) ListForWorkerByDateRange(_ context.Context, workerID string, from, to time.Time) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Shift
	for _, s := range m.shifts {
		if s.ShiftDate.Before(from) || s.ShiftDate.After(to) {
			continue
		}
		if m.assignRepo == nil {
			continue
		}
		for _, a := range m.assignRepo.byShiftLocked(s.ShiftID) {
			if a.WorkerID == workerID {
				result = append(result, *s)
				break
			}
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListOnDateWithAssignments(_ context.Context, date time.Time) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Shift
	dateStr := date.Format("2006-01-02")
	for _, s := range m.shifts {
		if s.ShiftDate.Format("2006-01-02") != dateStr {
			continue
		}
		copied := *s
		if m.assignRepo != nil {
			copied.Assignments = m.assignRepo.byShiftLocked(s.ShiftID)
		}
		result = append(result, copied)
	}
	return result, nil
}

func (m *mockShiftRepo) AdvanceStatus(_ context.Context, id, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shift, ok := m.shifts[id]
	if !ok || shift.Status != from {
		return false, nil
	}
	shift.Status = to
	return true, nil
}

func (m *mockShiftRepo) DeleteCascade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.shifts, id)
	if m.assignRepo != nil {
		m.assignRepo.deleteByShift(id)
	}
	return nil
}

// ── Mock AssignmentRepository ──

// mockAssignmentRepo 与真实实现一样保证 CreateExclusive 的排他语义，
// 并发测试依赖这一点
type mockAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]*model.ShiftAssignment
	shiftRepo   *mockShiftRepo
	workerRepo  *mockWorkerRepo
	nextID      int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.ShiftAssignment)}
}

func (m *mockAssignmentRepo) byShiftLocked(shiftID string) []model.ShiftAssignment {
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.ShiftID == shiftID {
			result = append(result, *a)
		}
	}
	return result
}

func (m *mockAssignmentRepo) deleteByShift(shiftID string) {
	for id, a := range m.assignments {
		if a.ShiftID == shiftID {
			delete(m.assignments, id)
		}
	}
}

func (m *mockAssignmentRepo) CreateExclusive(_ context.Context, assignment *model.ShiftAssignment, date time.Time, startTime, endTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dateStr := date.Format("2006-01-02")
	for _, a := range m.assignments {
		if a.WorkerID != assignment.WorkerID {
			continue
		}
		if a.ShiftID == assignment.ShiftID {
			return pkgerrors.ErrDuplicateAssignment
		}
		if m.shiftRepo == nil {
			continue
		}
		shift, ok := m.shiftRepo.shifts[a.ShiftID]
		if !ok || shift.ShiftDate.Format("2006-01-02") != dateStr {
			continue
		}
		if shift.StartTime < endTime && shift.EndTime > startTime {
			return pkgerrors.ErrSchedulingConflict
		}
	}

	m.nextID++
	assignment.AssignmentID = fmt.Sprintf("assign-%d", m.nextID)
	assignment.Version = 1
	m.assignments[assignment.AssignmentID] = assignment
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	if m.shiftRepo != nil {
		if shift, ok := m.shiftRepo.shifts[a.ShiftID]; ok {
			shiftCopy := *shift
			copied.Shift = &shiftCopy
		}
	}
	if m.workerRepo != nil {
		if w, ok := m.workerRepo.workers[a.WorkerID]; ok {
			copied.Worker = w
		}
	}
	return &copied, nil
}

func (m *mockAssignmentRepo) ListByShift(_ context.Context, shiftID string) ([]model.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byShiftLocked(shiftID), nil
}

func (m *mockAssignmentRepo) ListForWorkerOnDate(_ context.Context, workerID string, date time.Time) ([]model.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dateStr := date.Format("2006-01-02")
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.WorkerID != workerID || m.shiftRepo == nil {
			continue
		}
		shift, ok := m.shiftRepo.shifts[a.ShiftID]
		if !ok || shift.ShiftDate.Format("2006-01-02") != dateStr {
			continue
		}
		copied := *a
		shiftCopy := *shift
		copied.Shift = &shiftCopy
		result = append(result, copied)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListOnDate(_ context.Context, date time.Time) ([]model.ShiftAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dateStr := date.Format("2006-01-02")
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if m.shiftRepo == nil {
			continue
		}
		shift, ok := m.shiftRepo.shifts[a.ShiftID]
		if !ok || shift.ShiftDate.Format("2006-01-02") != dateStr {
			continue
		}
		copied := *a
		shiftCopy := *shift
		copied.Shift = &shiftCopy
		result = append(result, copied)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListPendingOnDate(ctx context.Context, date time.Time) ([]model.ShiftAssignment, error) {
	all, err := m.ListOnDate(ctx, date)
	if err != nil {
		return nil, err
	}
	var result []model.ShiftAssignment
	for _, a := range all {
		if a.Status == model.AssignmentStatusAssigned {
			if m.workerRepo != nil {
				if w, ok := m.workerRepo.workers[a.WorkerID]; ok {
					a.Worker = w
				}
			}
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) CountByShift(_ context.Context, shiftID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byShiftLocked(shiftID))), nil
}

func (m *mockAssignmentRepo) UpdateAttendance(_ context.Context, assignment *model.ShiftAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.assignments[assignment.AssignmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if existing.Version != assignment.Version {
		return pkgerrors.ErrOptimisticLock
	}
	assignment.Version++
	copied := *assignment
	copied.Shift = nil
	copied.Worker = nil
	m.assignments[assignment.AssignmentID] = &copied
	return nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	createErr     error // 注入失败模拟事件落库异常
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.notifications = append(m.notifications, *notification)
	return nil
}

func (m *mockNotificationRepo) ListByWorker(_ context.Context, workerID string, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for _, n := range m.notifications {
		if n.WorkerID == workerID {
			result = append(result, n)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockNotificationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

// ── 测试装配 ──

type testRepos struct {
	worker       *mockWorkerRepo
	customer     *mockCustomerRepo
	site         *mockSiteRepo
	shift        *mockShiftRepo
	assignment   *mockAssignmentRepo
	notification *mockNotificationRepo
}

func newTestRepos() *testRepos {
	worker := newMockWorkerRepo()
	shift := newMockShiftRepo()
	assignment := newMockAssignmentRepo()
	shift.assignRepo = assignment
	assignment.shiftRepo = shift
	assignment.workerRepo = worker
	return &testRepos{
		worker:       worker,
		customer:     newMockCustomerRepo(),
		site:         newMockSiteRepo(),
		shift:        shift,
		assignment:   assignment,
		notification: newMockNotificationRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Worker:       r.worker,
		Customer:     r.customer,
		Site:         r.site,
		Shift:        r.shift,
		Assignment:   r.assignment,
		Notification: r.notification,
	}
}

// noopEmitter 丢弃全部事件，适用于不关心事件的测试
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _, _, _, _ string, _ map[string]interface{}) {}

// recordingEmitter 同步记录事件，避免测试中的异步竞争
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) Emit(_ context.Context, event, _, _, _ string, _ map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) recorded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}
