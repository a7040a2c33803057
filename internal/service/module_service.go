package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/repository"
	pkgerrors "dash5s/backend/pkg/errors"
)

// 模块名称，与路由分组一一对应
const (
	ModuleDashboard = "dashboard"
	ModuleFeedback  = "feedback"
	ModuleAdmin     = "admin"
)

var ErrModuleNotFound = errors.New("模块不存在")

var defaultModules = []model.CoreModule{
	{Name: ModuleDashboard, DisplayName: "Дашборд 5S", IsActive: true, MenuOrder: 100, Version: "1.0.0"},
	{Name: ModuleFeedback, DisplayName: "Обратная связь", IsActive: true, MenuOrder: 200, Version: "1.0.0"},
	{Name: ModuleAdmin, DisplayName: "Администрирование", IsActive: true, MenuOrder: 900, Version: "1.0.0"},
}

// ModuleService 功能模块注册表接口
type ModuleService interface {
	// ListActive 按 menu_order 返回启用模块（导航菜单）
	ListActive(ctx context.Context) ([]dto.ModuleResponse, error)
	List(ctx context.Context, caller Caller) ([]dto.ModuleResponse, error)
	SetActive(ctx context.Context, id uint, req *dto.SetModuleActiveRequest, caller Caller) (*dto.ModuleResponse, error)
	// IsActive 未注册的模块视为启用
	IsActive(ctx context.Context, name string) (bool, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type moduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewModuleService 创建 ModuleService 实例
func NewModuleService(repo *repository.Repository, logger *zap.Logger) ModuleService {
	return &moduleService{repo: repo, logger: logger}
}

func (s *moduleService) ListActive(ctx context.Context) ([]dto.ModuleResponse, error) {
	return s.list(ctx, true)
}

func (s *moduleService) List(ctx context.Context, caller Caller) ([]dto.ModuleResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.list(ctx, false)
}

func (s *moduleService) list(ctx context.Context, activeOnly bool) ([]dto.ModuleResponse, error) {
	mods, err := s.repo.Module.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("列出模块失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ModuleResponse, 0, len(mods))
	for i := range mods {
		result = append(result, toModuleResponse(&mods[i]))
	}
	return result, nil
}

func (s *moduleService) SetActive(ctx context.Context, id uint, req *dto.SetModuleActiveRequest, caller Caller) (*dto.ModuleResponse, error) {
	if !caller.isAdmin() {
		return nil, ErrPermissionDenied
	}
	if req.IsActive == nil {
		return nil, ErrInvalidInput
	}

	if err := s.repo.Module.SetActive(ctx, id, *req.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		s.logger.Error("更新模块状态失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	m, err := s.repo.Module.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	resp := toModuleResponse(m)
	return &resp, nil
}

func (s *moduleService) IsActive(ctx context.Context, name string) (bool, error) {
	m, err := s.repo.Module.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}
	return m.IsActive, nil
}

// SeedDefaults 缺失的默认模块补齐；已存在的不覆盖
func (s *moduleService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, tpl := range defaultModules {
		if _, err := s.repo.Module.GetByName(ctx, tpl.Name); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		m := tpl
		if err := s.repo.Module.Create(ctx, &m); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				continue
			}
			s.logger.Error("写入默认模块失败", zap.String("name", m.Name), zap.Error(err))
			return created, err
		}
		created++
	}
	return created, nil
}

func toModuleResponse(m *model.CoreModule) dto.ModuleResponse {
	return dto.ModuleResponse{
		ID:          m.ID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		IsActive:    m.IsActive,
		MenuOrder:   m.MenuOrder,
		Version:     m.Version,
	}
}
