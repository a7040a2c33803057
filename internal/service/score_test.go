package service

import (
	"testing"
	"time"

	"dash5s/backend/internal/model"
)

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name   string
		scores [5]float64
		want   float64
	}{
		{"混合分值", [5]float64{2, 2, 1, 1, 0}, 1.2},
		{"满分", [5]float64{2, 2, 2, 2, 2}, 2},
		{"全零", [5]float64{}, 0},
		{"半分", [5]float64{1.5, 0.5, 1, 1, 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallScore(tt.scores); round2(got) != tt.want {
				t.Errorf("OverallScore(%v) = %v，期望 %v", tt.scores, got, tt.want)
			}
		})
	}
}

func TestCurrentScore_RollingWindow(t *testing.T) {
	window := 14 * 24 * time.Hour
	records := []model.AuditRecord{
		{OverallScore: 1.5, Timestamp: fixedNow.Add(-24 * time.Hour)},
		{OverallScore: 1.0, Timestamp: fixedNow.Add(-13 * 24 * time.Hour)},
		{OverallScore: 0.0, Timestamp: fixedNow.Add(-15 * 24 * time.Hour)}, // 窗口外
	}

	if got := CurrentScore(records, fixedNow, window); got != 1.25 {
		t.Errorf("期望 1.25，实际 %v", got)
	}
}

func TestCurrentScore_Empty(t *testing.T) {
	if got := CurrentScore(nil, fixedNow, time.Hour); got != 0 {
		t.Errorf("无记录时期望 0，实际 %v", got)
	}

	old := []model.AuditRecord{{OverallScore: 2, Timestamp: fixedNow.Add(-30 * 24 * time.Hour)}}
	if got := CurrentScore(old, fixedNow, 14*24*time.Hour); got != 0 {
		t.Errorf("窗口内无记录时期望 0，实际 %v", got)
	}
}

func TestCurrentScore_RoundsToTwoDecimals(t *testing.T) {
	records := []model.AuditRecord{
		{OverallScore: 1, Timestamp: fixedNow},
		{OverallScore: 1, Timestamp: fixedNow},
		{OverallScore: 2, Timestamp: fixedNow},
	}
	if got := CurrentScore(records, fixedNow, time.Hour); got != 1.33 {
		t.Errorf("期望 1.33，实际 %v", got)
	}
}

func TestCurrentScore_CutoffInclusive(t *testing.T) {
	window := 14 * 24 * time.Hour
	records := []model.AuditRecord{{OverallScore: 1.6, Timestamp: fixedNow.Add(-window)}}
	if got := CurrentScore(records, fixedNow, window); got != 1.6 {
		t.Errorf("恰好位于窗口起点的记录应计入，实际 %v", got)
	}
}
