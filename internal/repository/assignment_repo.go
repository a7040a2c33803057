package repository

import (
	"context"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// AssignmentRepository 检查表绑定数据访问接口
// (entity_type, entity_id) 唯一性只由数据库约束保证，Create 冲突返回 pkgerrors.ErrUniqueViolation
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.ChecklistAssignment) error
	GetByID(ctx context.Context, id uint) (*model.ChecklistAssignment, error)
	GetByEntity(ctx context.Context, entityType string, entityID uint) (*model.ChecklistAssignment, error)
	ListByChecklist(ctx context.Context, checklistID uint) ([]model.ChecklistAssignment, error)
	Delete(ctx context.Context, id uint) error
	DeleteByChecklist(ctx context.Context, checklistID uint) error
	DeleteByEntity(ctx context.Context, entityType string, entityID uint) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.ChecklistAssignment) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *assignmentRepo) GetByID(ctx context.Context, id uint) (*model.ChecklistAssignment, error) {
	var a model.ChecklistAssignment
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) GetByEntity(ctx context.Context, entityType string, entityID uint) (*model.ChecklistAssignment, error) {
	var a model.ChecklistAssignment
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByChecklist(ctx context.Context, checklistID uint) ([]model.ChecklistAssignment, error) {
	var list []model.ChecklistAssignment
	err := r.db.WithContext(ctx).
		Where("checklist_id = ?", checklistID).
		Order("entity_type ASC, entity_id ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.ChecklistAssignment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepo) DeleteByChecklist(ctx context.Context, checklistID uint) error {
	return r.db.WithContext(ctx).
		Where("checklist_id = ?", checklistID).
		Delete(&model.ChecklistAssignment{}).Error
}

func (r *assignmentRepo) DeleteByEntity(ctx context.Context, entityType string, entityID uint) error {
	return r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Delete(&model.ChecklistAssignment{}).Error
}
