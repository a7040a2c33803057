package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"dash5s/backend/config"
	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	"dash5s/backend/pkg/directory"
	"dash5s/backend/pkg/jwt"
	"dash5s/backend/pkg/metrics"
	"dash5s/backend/pkg/redis"
)

// ── 通用业务错误 ──

var (
	// ErrPermissionDenied 调用者角色不足
	ErrPermissionDenied = errors.New("权限不足")
	// ErrInvalidInput 参数校验类错误的公共父错误（映射为 400）
	ErrInvalidInput = errors.New("参数校验失败")
)

// Caller 当前请求的认证主体
type Caller struct {
	UserID uint
	Role   string
}

func (c Caller) canEdit() bool { return model.CanEdit(c.Role) }

func (c Caller) isAdmin() bool { return c.Role == model.RoleAdmin }

// Deps 构造 Service 聚合所需的外部协作者
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Directory directory.Authenticator
	Redis     *redis.Client // 可为 nil
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Area      AreaService
	Audit     AuditService
	Checklist ChecklistService
	Feedback  FeedbackService
	Module    ModuleService
	Admin     AdminService
	Export    ExportService
}

// NewService 创建 Service 聚合；所有依赖显式注入
func NewService(d Deps) *Service {
	audit := &d.Config.Audit
	return &Service{
		Auth:      NewAuthService(&d.Config.Auth, d.Repo, d.JWT, d.Directory, d.Redis, d.Metrics, d.Logger),
		User:      NewUserService(d.Repo, d.Logger),
		Area:      NewAreaService(audit, d.Repo, d.Logger),
		Audit:     NewAuditService(audit, d.Repo, d.Metrics, d.Logger),
		Checklist: NewChecklistService(d.Repo, d.Logger),
		Feedback:  NewFeedbackService(d.Repo, d.Logger),
		Module:    NewModuleService(d.Repo, d.Logger),
		Admin:     NewAdminService(d.Repo, d.Logger),
		Export:    NewExportService(audit, d.Repo, d.Logger),
	}
}

// ── 辅助函数 ──

const timeLayout = "2006-01-02T15:04:05Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}
