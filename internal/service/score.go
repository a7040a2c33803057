package service

import (
	"math"
	"time"

	"dash5s/backend/internal/model"
)

// ── 得分计算 ──

// OverallScore 五项得分的算术平均，仅在创建评分时计算一次
func OverallScore(scores [5]float64) float64 {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// CurrentScore 滚动当前得分
// 取 timestamp >= now-window 的记录，求 overall_score 均值并四舍五入到 2 位小数；无记录返回 0
func CurrentScore(records []model.AuditRecord, now time.Time, window time.Duration) float64 {
	cutoff := now.Add(-window)

	var sum float64
	n := 0
	for i := range records {
		if records[i].Timestamp.Before(cutoff) {
			continue
		}
		sum += records[i].OverallScore
		n++
	}
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

// round2 保留 2 位小数（math.Round 远离零取整）
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
