package service

import (
	"fmt"
	"math"
	"time"
)

// ── 时间区间工具 ──

// timesOverlap 判断两个 "HH:MM" 时间区间是否重叠（端点相接不算重叠）
func timesOverlap(start1, end1, start2, end2 string) bool {
	return start1 < end2 && end1 > start2
}

// parseClock 解析 "HH:MM" 为当天的小时与分钟。
// 必须是补零的 5 位形式："8:30" 一旦入库会破坏字典序比较，直接拒绝
func parseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 {
		return 0, 0, fmt.Errorf("时间格式无效: %q", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("时间格式无效: %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// shiftStartAt 组合班次日期与开始时间，返回该时区下的具体时刻
func shiftStartAt(shiftDate time.Time, startTime string, loc *time.Location) (time.Time, error) {
	h, m, err := parseClock(startTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(shiftDate.Year(), shiftDate.Month(), shiftDate.Day(), h, m, 0, 0, loc), nil
}

// durationHours 计算两时刻间的小时数，保留两位小数，负值归零
func durationHours(from, to time.Time) float64 {
	hours := to.Sub(from).Hours()
	if hours < 0 {
		return 0
	}
	return math.Round(hours*100) / 100
}
