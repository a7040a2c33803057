package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
)

const recentVisitLogs = 10

// Visit 一次已认证请求的访问记录
type Visit struct {
	UserID    uint
	IPAddress string
	UserAgent string
	Endpoint  string
	Action    string
	Details   map[string]any
}

// AdminService 管理后台接口
type AdminService interface {
	Overview(ctx context.Context, caller Caller) (*dto.AdminOverviewResponse, error)
	// RecordVisit 写入访问日志；失败只记录日志，不影响请求
	RecordVisit(ctx context.Context, v Visit)
}

type adminService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAdminService 创建 AdminService 实例
func NewAdminService(repo *repository.Repository, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, logger: logger, now: time.Now}
}

func (s *adminService) Overview(ctx context.Context, caller Caller) (*dto.AdminOverviewResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}

	total, err := s.repo.User.Count(ctx)
	if err != nil {
		s.logger.Error("统计用户失败", zap.Error(err))
		return nil, err
	}
	active, err := s.repo.User.CountActive(ctx)
	if err != nil {
		s.logger.Error("统计活跃用户失败", zap.Error(err))
		return nil, err
	}
	logs, err := s.repo.VisitLog.ListRecent(ctx, recentVisitLogs)
	if err != nil {
		s.logger.Error("查询访问日志失败", zap.Error(err))
		return nil, err
	}

	recent := make([]dto.VisitLogResponse, 0, len(logs))
	for i := range logs {
		recent = append(recent, toVisitLogResponse(&logs[i]))
	}

	return &dto.AdminOverviewResponse{
		UserCount:   total,
		ActiveUsers: active,
		RecentLogs:  recent,
	}, nil
}

func (s *adminService) RecordVisit(ctx context.Context, v Visit) {
	if v.UserID == 0 {
		return
	}

	entry := &model.VisitLog{
		UserID:    v.UserID,
		Timestamp: s.now().UTC(),
		IPAddress: v.IPAddress,
		UserAgent: v.UserAgent,
		Endpoint:  v.Endpoint,
		Action:    v.Action,
	}
	if len(v.Details) > 0 {
		raw, err := json.Marshal(v.Details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := s.repo.VisitLog.Create(ctx, entry); err != nil {
		s.logger.Warn("写入访问日志失败", zap.Uint("user_id", v.UserID), zap.String("endpoint", v.Endpoint), zap.Error(err))
	}
}

func toVisitLogResponse(l *model.VisitLog) dto.VisitLogResponse {
	resp := dto.VisitLogResponse{
		ID:        l.ID,
		User:      toUserBrief(l.User),
		Timestamp: formatTime(l.Timestamp),
		IPAddress: l.IPAddress,
		UserAgent: l.UserAgent,
		Endpoint:  l.Endpoint,
		Action:    l.Action,
	}
	if len(l.Details) > 0 {
		var details any
		if err := json.Unmarshal(l.Details, &details); err == nil {
			resp.Details = details
		}
	}
	return resp
}
