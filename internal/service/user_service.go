package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
)

// ── 用户模块业务错误 ──

var ErrUserSelfDisable = errors.New("不能禁用自己")

// UserService 用户业务接口
//
// 用户资料与角色由目录服务在登录时同步，本地只维护启用状态。
type UserService interface {
	GetByID(ctx context.Context, id uint) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest, caller Caller) ([]dto.UserResponse, int64, error)
	SetActive(ctx context.Context, id uint, req *dto.SetUserActiveRequest, caller Caller) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id uint) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest, caller Caller) ([]dto.UserResponse, int64, error) {
	if !caller.isAdmin() {
		return nil, 0, ErrPermissionDenied
	}

	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── SetActive ──────────────────────

func (s *userService) SetActive(ctx context.Context, id uint, req *dto.SetUserActiveRequest, caller Caller) (*dto.UserResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}
	if req.IsActive == nil {
		return nil, ErrInvalidInput
	}
	if id == caller.UserID && !*req.IsActive {
		return nil, ErrUserSelfDisable
	}

	if err := s.repo.User.SetActive(ctx, id, *req.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新用户状态失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户状态变更",
		zap.Uint("id", id),
		zap.Bool("is_active", *req.IsActive),
		zap.Uint("operator", caller.UserID))

	return s.GetByID(ctx, id)
}

// toUserResponse 将 model.User 转换为 dto.UserResponse
func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Department:  user.Department,
		Role:        user.Role,
		IsActive:    user.IsActive,
		LastLogin:   formatTimePtr(user.LastLogin),
		CreatedAt:   formatTime(user.CreatedAt),
	}
}
