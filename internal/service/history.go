package service

import (
	"time"

	"dash5s/backend/internal/model"
)

// WeekKey 周次 + 年份
type WeekKey struct {
	Week int
	Year int
}

// HistoryWeek 历史中的一周；无记录时 Audit 为 nil、Score 为 0
type HistoryWeek struct {
	WeekKey
	Audit *model.AuditRecord
	Score float64
}

// MaxHistoryWeeks 回溯窗口上限；周次只回绕一次，窗口不跨越两个年份边界
const MaxHistoryWeeks = 52

// HistoryKeys 从 now 所在 ISO 周开始向前回溯 n 周（n 超过 MaxHistoryWeeks 时截断）
// 年份取 now 的日历年；周次小于 1 时 +52 并减一年（不区分 53 周年份）
func HistoryKeys(now time.Time, n int) []WeekKey {
	if n > MaxHistoryWeeks {
		n = MaxHistoryWeeks
	}
	_, currentWeek := now.ISOWeek()
	currentYear := now.Year()

	keys := make([]WeekKey, 0, n)
	for i := 0; i < n; i++ {
		week, year := currentWeek-i, currentYear
		if week < 1 {
			week += 52
			year--
		}
		keys = append(keys, WeekKey{Week: week, Year: year})
	}
	return keys
}

// HistoryYears 返回回溯窗口涉及的年份（去重，用于预取候选记录）
func HistoryYears(keys []WeekKey) []int {
	seen := make(map[int]bool, 2)
	years := make([]int, 0, 2)
	for _, k := range keys {
		if !seen[k.Year] {
			seen[k.Year] = true
			years = append(years, k.Year)
		}
	}
	return years
}

// BuildHistory 按 (week, year) 匹配记录，生成由当前周到最早周排列的 n 条历史
func BuildHistory(now time.Time, n int, records []model.AuditRecord) []HistoryWeek {
	byKey := make(map[WeekKey]*model.AuditRecord, len(records))
	for i := range records {
		byKey[WeekKey{Week: records[i].WeekNumber, Year: records[i].Year}] = &records[i]
	}

	keys := HistoryKeys(now, n)
	history := make([]HistoryWeek, 0, len(keys))
	for _, k := range keys {
		entry := HistoryWeek{WeekKey: k}
		if a, ok := byKey[k]; ok {
			entry.Audit = a
			entry.Score = a.OverallScore
		}
		history = append(history, entry)
	}
	return history
}
