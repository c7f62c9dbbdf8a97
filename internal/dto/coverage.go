package dto

// ── 覆盖概览 DTO ──

// CoverageSnapshotResponse 当日覆盖概览响应
type CoverageSnapshotResponse struct {
	Date                 string          `json:"date"`
	GuardsOnDuty         int             `json:"guards_on_duty"`
	GuardsExpectedToday  int             `json:"guards_expected_today"`
	SitesWithCoverage    int             `json:"sites_with_coverage"`
	SitesWithoutCoverage []UncoveredSite `json:"sites_without_coverage"`
	GuardsNotCheckedIn   []OverdueGuard  `json:"guards_not_checked_in"`
	Degraded             []string        `json:"degraded,omitempty"`
}

// UncoveredSite 当日无人在岗的站点
type UncoveredSite struct {
	SiteID       string `json:"site_id"`
	SiteName     string `json:"site_name"`
	CustomerName string `json:"customer_name,omitempty"`
	ShiftID      string `json:"shift_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// OverdueGuard 超过打卡窗口仍未上岗的队员
type OverdueGuard struct {
	AssignmentID string `json:"assignment_id"`
	WorkerID     string `json:"worker_id"`
	WorkerName   string `json:"worker_name"`
	WorkerPhone  string `json:"worker_phone,omitempty"`
	ShiftID      string `json:"shift_id"`
	SiteName     string `json:"site_name,omitempty"`
	StartTime    string `json:"start_time"`
	OverdueMin   int    `json:"overdue_min"`
}
