package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/config"
	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	"dash5s/backend/pkg/directory"
	"dash5s/backend/pkg/jwt"
	"dash5s/backend/pkg/metrics"
	"dash5s/backend/pkg/redis"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserDisabled       = errors.New("账号已被禁用")
	ErrRateLimited        = errors.New("登录尝试过于频繁，请稍后再试")
	ErrTokenRevoked       = errors.New("token 已失效")
	ErrDirectoryFailure   = errors.New("目录服务不可用")
)

// 登录结果标签（metrics）
const (
	loginSuccess  = "success"
	loginFailure  = "failure"
	loginDisabled = "disabled"
	loginLimited  = "rate_limited"
)

// TokenStore Token 黑名单与登录限流存储，由 *redis.Client 实现
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var _ TokenStore = (*redis.Client)(nil)

// AuthService 认证业务接口
type AuthService interface {
	// Login 通过目录服务认证，本地同步用户资料后签发 Token 对
	Login(ctx context.Context, req *dto.LoginRequest, clientIP string) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	// Logout 将 access / refresh token 加入黑名单；Redis 不可用时为空操作
	Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error
	GetCurrentUser(ctx context.Context, userID uint) (*dto.UserResponse, error)
}

type authService struct {
	cfg    *config.AuthConfig
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	dir    directory.Authenticator
	store  TokenStore
	m      *metrics.Metrics
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.AuthConfig,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	dir directory.Authenticator,
	store TokenStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		dir:    dir,
		store:  store,
		m:      m,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, clientIP string) (*dto.TokenResponse, error) {
	// 1. 按 IP 限流；Redis 故障时放行
	if clientIP != "" {
		ok, err := s.store.CheckRateLimit(ctx, "login:"+clientIP, s.cfg.LoginRateLimit, s.cfg.LoginRateWindow)
		if err != nil {
			s.logger.Warn("登录限流检查失败，放行", zap.String("ip", clientIP), zap.Error(err))
		} else if !ok {
			s.m.ObserveLogin(loginLimited)
			return nil, ErrRateLimited
		}
	}

	// 2. 目录服务认证
	username := strings.TrimSpace(req.Username)
	principal, err := s.dir.Authenticate(ctx, username, req.Password)
	if err != nil {
		s.logger.Error("目录服务认证失败", zap.String("username", username), zap.Error(err))
		s.m.ObserveLogin(loginFailure)
		return nil, ErrDirectoryFailure
	}
	if principal == nil {
		s.m.ObserveLogin(loginFailure)
		return nil, ErrInvalidCredentials
	}

	// 3. 同步本地用户（角色以目录为准）
	now := s.now().UTC()
	user := &model.User{
		Username:    principal.Username,
		DisplayName: principal.DisplayName,
		Email:       principal.Email,
		Department:  principal.Department,
		Role:        principal.Role,
		IsActive:    true,
		LastLogin:   &now,
	}
	if err := s.repo.User.Upsert(ctx, user); err != nil {
		s.logger.Error("同步用户失败", zap.String("username", principal.Username), zap.Error(err))
		return nil, err
	}

	// 4. 被管理员禁用的账号拒绝登录
	if !user.IsActive {
		s.m.ObserveLogin(loginDisabled)
		return nil, ErrUserDisabled
	}

	resp, err := s.issueTokens(user, req.RememberMe)
	if err != nil {
		return nil, err
	}

	s.m.ObserveLogin(loginSuccess)
	s.logger.Info("用户登录", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return resp, nil
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, jwt.ErrTokenInvalid
	}

	revoked, err := s.store.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("黑名单检查失败", zap.Error(err))
	} else if revoked {
		return nil, ErrTokenRevoked
	}

	// 角色与启用状态以本地最新数据为准
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	// 旧 refresh token 作废，防止重放
	if err := s.revoke(ctx, claims); err != nil {
		s.logger.Warn("作废旧 refresh token 失败", zap.Error(err))
	}

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	if claims != nil {
		if err := s.revoke(ctx, claims); err != nil {
			s.logger.Error("access token 加入黑名单失败", zap.Error(err))
			return err
		}
	}

	if refreshToken == "" {
		return nil
	}
	rc, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		// 已过期或无效的 refresh token 无需处理
		return nil
	}
	if claims != nil && rc.UserID != claims.UserID {
		return nil
	}
	if err := s.revoke(ctx, rc); err != nil {
		s.logger.Error("refresh token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	return s.store.BlacklistToken(ctx, claims.ID, ttl)
}

// ────────────────────── GetCurrentUser ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ── 内部辅助方法 ──

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID, user.Username, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *toUserResponse(user),
	}, nil
}
