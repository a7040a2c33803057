package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/config"
	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	pkgerrors "dash5s/backend/pkg/errors"
)

// ── 区域模块业务错误 ──

var (
	ErrAreaNotFound    = errors.New("区域不存在")
	ErrAreaCodeExists  = errors.New("区域编码已存在")
	ErrManagerNotFound = errors.New("负责人不存在")
)

// 雷达图颜色
const (
	radarFill   = "rgba(54, 162, 235, 0.2)"
	radarStroke = "rgba(54, 162, 235, 1)"
	radarPoint  = "#fff"
)

var radarLabels = []string{"1S", "2S", "3S", "4S", "5S"}

// sampleAreas 空库初始化时写入的示例区域
var sampleAreas = []model.Area{
	{Name: "Склад", Code: "SKL", Description: "Складская зона хранения материалов", IsActive: true},
	{Name: "Сборочный цех", Code: "SBORKA", Description: "Основной сборочный участок", IsActive: true},
	{Name: "НИОКР и станочный парк", Code: "NIOKR", Description: "Опытное производство и станки", IsActive: true},
}

// AreaService 区域业务接口
// 当前得分每次读取时按滚动窗口重新计算，不做缓存
type AreaService interface {
	Create(ctx context.Context, req *dto.CreateAreaRequest, caller Caller) (*dto.AreaResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.AreaResponse, error)
	Detail(ctx context.Context, id uint) (*dto.AreaDetailResponse, error)
	List(ctx context.Context, req *dto.AreaListRequest) ([]dto.AreaResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateAreaRequest, caller Caller) (*dto.AreaResponse, error)
	Delete(ctx context.Context, id uint, caller Caller) error
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	History(ctx context.Context, id uint) ([]dto.HistoryEntry, error)
	ScoreSeries(ctx context.Context, id uint) (*dto.ScoreSeriesResponse, error)
	Radar(ctx context.Context, id uint) (*dto.RadarResponse, error)
	// SeedSamples 区域表为空时写入示例区域，返回写入数量
	SeedSamples(ctx context.Context) (int, error)
}

type areaService struct {
	cfg    *config.AuditConfig
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAreaService 创建 AreaService 实例
func NewAreaService(cfg *config.AuditConfig, repo *repository.Repository, logger *zap.Logger) AreaService {
	return &areaService{cfg: cfg, repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *areaService) Create(ctx context.Context, req *dto.CreateAreaRequest, caller Caller) (*dto.AreaResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	if err := s.checkManager(ctx, req.ManagerID); err != nil {
		return nil, err
	}

	area := &model.Area{
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: req.Description,
		ManagerID:   req.ManagerID,
		IsActive:    true,
	}
	if req.IsActive != nil {
		area.IsActive = *req.IsActive
	}

	if err := s.repo.Area.Create(ctx, area); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrAreaCodeExists
		}
		s.logger.Error("创建区域失败", zap.String("code", area.Code), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, area.ID)
}

func (s *areaService) checkManager(ctx context.Context, managerID *uint) error {
	if managerID == nil {
		return nil
	}
	if _, err := s.repo.User.GetByID(ctx, *managerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrManagerNotFound
		}
		s.logger.Error("查询负责人失败", zap.Uint("manager_id", *managerID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetByID / Detail ──────────────────────

func (s *areaService) GetByID(ctx context.Context, id uint) (*dto.AreaResponse, error) {
	area, err := s.getArea(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withScore(ctx, area)
}

func (s *areaService) Detail(ctx context.Context, id uint) (*dto.AreaDetailResponse, error) {
	area, err := s.getArea(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := s.withScore(ctx, area)
	if err != nil {
		return nil, err
	}

	history, err := s.history(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.Audit.ListRecent(ctx, id, s.cfg.RecentLimit)
	if err != nil {
		s.logger.Error("查询最近评分失败", zap.Uint("area_id", id), zap.Error(err))
		return nil, err
	}
	recentResp := make([]dto.AuditResponse, 0, len(recent))
	for i := range recent {
		recentResp = append(recentResp, *toAuditResponse(&recent[i]))
	}

	return &dto.AreaDetailResponse{
		Area:         *resp,
		History:      history,
		RecentAudits: recentResp,
	}, nil
}

func (s *areaService) getArea(ctx context.Context, id uint) (*model.Area, error) {
	area, err := s.repo.Area.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAreaNotFound
		}
		s.logger.Error("查询区域失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return area, nil
}

// withScore 单个区域：当前得分 + 最近一次评分
func (s *areaService) withScore(ctx context.Context, area *model.Area) (*dto.AreaResponse, error) {
	now := s.now().UTC()
	records, err := s.repo.Audit.ListByAreaSince(ctx, area.ID, now.Add(-s.cfg.RollingWindow))
	if err != nil {
		s.logger.Error("查询区域评分失败", zap.Uint("area_id", area.ID), zap.Error(err))
		return nil, err
	}

	last, err := s.latest(ctx, area.ID)
	if err != nil {
		return nil, err
	}

	resp := toAreaResponse(area)
	resp.CurrentScore = CurrentScore(records, now, s.cfg.RollingWindow)
	resp.LastAudit = toAuditResponse(last)
	return resp, nil
}

func (s *areaService) latest(ctx context.Context, areaID uint) (*model.AuditRecord, error) {
	last, err := s.repo.Audit.Latest(ctx, areaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询最近评分失败", zap.Uint("area_id", areaID), zap.Error(err))
		return nil, err
	}
	return last, nil
}

// ────────────────────── List ──────────────────────

func (s *areaService) List(ctx context.Context, req *dto.AreaListRequest) ([]dto.AreaResponse, error) {
	areas, err := s.repo.Area.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出区域失败", zap.Error(err))
		return nil, err
	}
	return s.withScores(ctx, areas)
}

// withScores 批量区域：一次查询窗口内全部评分后按区域分组
func (s *areaService) withScores(ctx context.Context, areas []model.Area) ([]dto.AreaResponse, error) {
	now := s.now().UTC()

	ids := make([]uint, 0, len(areas))
	for i := range areas {
		ids = append(ids, areas[i].ID)
	}
	records, err := s.repo.Audit.ListByAreasSince(ctx, ids, now.Add(-s.cfg.RollingWindow))
	if err != nil {
		s.logger.Error("批量查询区域评分失败", zap.Error(err))
		return nil, err
	}
	byArea := make(map[uint][]model.AuditRecord, len(areas))
	for _, r := range records {
		byArea[r.AreaID] = append(byArea[r.AreaID], r)
	}

	result := make([]dto.AreaResponse, 0, len(areas))
	for i := range areas {
		last, err := s.latest(ctx, areas[i].ID)
		if err != nil {
			return nil, err
		}
		resp := toAreaResponse(&areas[i])
		resp.CurrentScore = CurrentScore(byArea[areas[i].ID], now, s.cfg.RollingWindow)
		resp.LastAudit = toAuditResponse(last)
		result = append(result, *resp)
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *areaService) Update(ctx context.Context, id uint, req *dto.UpdateAreaRequest, caller Caller) (*dto.AreaResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	area, err := s.getArea(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		area.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		area.Code = strings.TrimSpace(*req.Code)
	}
	if req.Description != nil {
		area.Description = *req.Description
	}
	if req.ManagerID != nil {
		if err := s.checkManager(ctx, req.ManagerID); err != nil {
			return nil, err
		}
		area.ManagerID = req.ManagerID
	}
	if req.ClearManager {
		area.ManagerID = nil
	}
	if req.IsActive != nil {
		area.IsActive = *req.IsActive
	}
	area.Manager = nil

	if err := s.repo.Area.Update(ctx, area); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrAreaCodeExists
		}
		s.logger.Error("更新区域失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

// Delete 删除区域及其评分、作答与检查表绑定（单事务）
func (s *areaService) Delete(ctx context.Context, id uint, caller Caller) error {
	if !caller.isAdmin() {
		return ErrPermissionDenied
	}

	if _, err := s.getArea(ctx, id); err != nil {
		return err
	}

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.AuditResponse.DeleteByArea(ctx, id); err != nil {
			return err
		}
		if err := txRepo.Audit.DeleteByArea(ctx, id); err != nil {
			return err
		}
		if err := txRepo.Assignment.DeleteByEntity(ctx, model.EntityTypeArea, id); err != nil {
			return err
		}
		return txRepo.Area.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAreaNotFound
		}
		s.logger.Error("删除区域失败", zap.Uint("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("区域已删除", zap.Uint("id", id), zap.Uint("caller_id", caller.UserID))
	return nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *areaService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	areas, err := s.repo.Area.List(ctx, false)
	if err != nil {
		s.logger.Error("列出区域失败", zap.Error(err))
		return nil, err
	}
	withScores, err := s.withScores(ctx, areas)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Area.Count(ctx)
	if err != nil {
		s.logger.Error("统计区域失败", zap.Error(err))
		return nil, err
	}
	active, err := s.repo.Area.CountActive(ctx)
	if err != nil {
		s.logger.Error("统计活动区域失败", zap.Error(err))
		return nil, err
	}

	// 与历史回溯一致：ISO 周次 + 日历年
	now := s.now().UTC()
	_, week := now.ISOWeek()
	year := now.Year()
	thisWeek, err := s.repo.Audit.CountByWeek(ctx, week, year)
	if err != nil {
		s.logger.Error("统计本周评分失败", zap.Error(err))
		return nil, err
	}

	return &dto.DashboardResponse{
		Areas:          withScores,
		TotalAreas:     total,
		ActiveAreas:    active,
		AuditsThisWeek: thisWeek,
		CurrentWeek:    week,
		CurrentYear:    year,
	}, nil
}

// ────────────────────── History ──────────────────────

func (s *areaService) History(ctx context.Context, id uint) ([]dto.HistoryEntry, error) {
	if _, err := s.getArea(ctx, id); err != nil {
		return nil, err
	}
	return s.history(ctx, id)
}

func (s *areaService) history(ctx context.Context, areaID uint) ([]dto.HistoryEntry, error) {
	now := s.now().UTC()
	keys := HistoryKeys(now, s.cfg.HistoryWeeks)

	records, err := s.repo.Audit.ListByAreaYears(ctx, areaID, HistoryYears(keys))
	if err != nil {
		s.logger.Error("查询区域历史失败", zap.Uint("area_id", areaID), zap.Error(err))
		return nil, err
	}

	weeks := BuildHistory(now, s.cfg.HistoryWeeks, records)
	result := make([]dto.HistoryEntry, 0, len(weeks))
	for _, w := range weeks {
		result = append(result, dto.HistoryEntry{
			Week:  w.Week,
			Year:  w.Year,
			Audit: toAuditResponse(w.Audit),
			Score: w.Score,
		})
	}
	return result, nil
}

// ────────────────────── Charts ──────────────────────

// ScoreSeries 最近 chart_limit 次评分，按时间由旧到新输出
func (s *areaService) ScoreSeries(ctx context.Context, id uint) (*dto.ScoreSeriesResponse, error) {
	if _, err := s.getArea(ctx, id); err != nil {
		return nil, err
	}

	audits, err := s.repo.Audit.ListRecent(ctx, id, s.cfg.ChartLimit)
	if err != nil {
		s.logger.Error("查询评分序列失败", zap.Uint("area_id", id), zap.Error(err))
		return nil, err
	}

	n := len(audits)
	data := &dto.ScoreSeriesResponse{
		Weeks:  make([]string, 0, n),
		Scores: make([]float64, 0, n),
		S1:     make([]float64, 0, n),
		S2:     make([]float64, 0, n),
		S3:     make([]float64, 0, n),
		S4:     make([]float64, 0, n),
		S5:     make([]float64, 0, n),
	}
	for i := n - 1; i >= 0; i-- {
		a := audits[i]
		data.Weeks = append(data.Weeks, fmt.Sprintf("W%d", a.WeekNumber))
		data.Scores = append(data.Scores, a.OverallScore)
		data.S1 = append(data.S1, a.Score1S)
		data.S2 = append(data.S2, a.Score2S)
		data.S3 = append(data.S3, a.Score3S)
		data.S4 = append(data.S4, a.Score4S)
		data.S5 = append(data.S5, a.Score5S)
	}
	return data, nil
}

// Radar 最近一次评分的五维数据；无评分时全为 0
func (s *areaService) Radar(ctx context.Context, id uint) (*dto.RadarResponse, error) {
	area, err := s.getArea(ctx, id)
	if err != nil {
		return nil, err
	}

	last, err := s.latest(ctx, id)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(radarLabels))
	if last != nil {
		v := last.Scores()
		copy(scores, v[:])
	}

	return &dto.RadarResponse{
		Labels: append([]string(nil), radarLabels...),
		Datasets: []dto.RadarDataset{{
			Label:                     area.Name,
			Data:                      scores,
			BackgroundColor:           radarFill,
			BorderColor:               radarStroke,
			PointBackgroundColor:      radarStroke,
			PointBorderColor:          radarPoint,
			PointHoverBackgroundColor: radarPoint,
			PointHoverBorderColor:     radarStroke,
		}},
	}, nil
}

// ────────────────────── SeedSamples ──────────────────────

func (s *areaService) SeedSamples(ctx context.Context) (int, error) {
	n, err := s.repo.Area.Count(ctx)
	if err != nil {
		s.logger.Error("统计区域失败", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, tpl := range sampleAreas {
		area := tpl
		if err := s.repo.Area.Create(ctx, &area); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				continue
			}
			s.logger.Error("写入示例区域失败", zap.String("code", area.Code), zap.Error(err))
			return created, err
		}
		created++
	}

	s.logger.Info("示例区域初始化完成", zap.Int("created", created))
	return created, nil
}

// ── 转换 ──

func toAreaResponse(a *model.Area) *dto.AreaResponse {
	return &dto.AreaResponse{
		ID:          a.ID,
		Name:        a.Name,
		Code:        a.Code,
		Description: a.Description,
		Manager:     toUserBrief(a.Manager),
		IsActive:    a.IsActive,
		CreatedAt:   formatTime(a.CreatedAt),
	}
}
