package repository

import (
	"context"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// AreaRepository 区域数据访问接口
type AreaRepository interface {
	Create(ctx context.Context, area *model.Area) error
	GetByID(ctx context.Context, id uint) (*model.Area, error)
	GetByCode(ctx context.Context, code string) (*model.Area, error)
	List(ctx context.Context, includeInactive bool) ([]model.Area, error)
	Update(ctx context.Context, area *model.Area) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type areaRepo struct {
	db *gorm.DB
}

// NewAreaRepo 创建 AreaRepository 实例
func NewAreaRepo(db *gorm.DB) AreaRepository {
	return &areaRepo{db: db}
}

func (r *areaRepo) Create(ctx context.Context, area *model.Area) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Create(area).Error)
}

func (r *areaRepo) GetByID(ctx context.Context, id uint) (*model.Area, error) {
	var area model.Area
	err := r.db.WithContext(ctx).
		Preload("Manager").
		First(&area, id).Error
	if err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *areaRepo) GetByCode(ctx context.Context, code string) (*model.Area, error) {
	var area model.Area
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&area).Error
	if err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *areaRepo) List(ctx context.Context, includeInactive bool) ([]model.Area, error) {
	var areas []model.Area
	db := r.db.WithContext(ctx).Preload("Manager")

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order("name ASC, id ASC").Find(&areas).Error
	return areas, err
}

func (r *areaRepo) Update(ctx context.Context, area *model.Area) error {
	// Omit 关联，避免 Save 级联写入 Manager
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Manager").Save(area).Error)
}

func (r *areaRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Area{}, id)
	if res.Error != nil {
		return pkgerrors.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *areaRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Area{}).Count(&n).Error
	return n, err
}

func (r *areaRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Area{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}
