package repository

import (
	"context"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// ModuleRepository 功能模块注册表数据访问接口
type ModuleRepository interface {
	Create(ctx context.Context, m *model.CoreModule) error
	GetByID(ctx context.Context, id uint) (*model.CoreModule, error)
	GetByName(ctx context.Context, name string) (*model.CoreModule, error)
	List(ctx context.Context, activeOnly bool) ([]model.CoreModule, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Count(ctx context.Context) (int64, error)
}

type moduleRepo struct {
	db *gorm.DB
}

// NewModuleRepo 创建 ModuleRepository 实例
func NewModuleRepo(db *gorm.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) Create(ctx context.Context, m *model.CoreModule) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *moduleRepo) GetByID(ctx context.Context, id uint) (*model.CoreModule, error) {
	var m model.CoreModule
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) GetByName(ctx context.Context, name string) (*model.CoreModule, error) {
	var m model.CoreModule
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) List(ctx context.Context, activeOnly bool) ([]model.CoreModule, error) {
	var list []model.CoreModule
	db := r.db.WithContext(ctx)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("menu_order ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *moduleRepo) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.CoreModule{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *moduleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CoreModule{}).Count(&n).Error
	return n, err
}
