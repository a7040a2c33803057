package repository

import (
	"context"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// AuditResponseRepository 逐题作答数据访问接口
type AuditResponseRepository interface {
	Create(ctx context.Context, resp *model.AuditResponse) error
	ListByAudit(ctx context.Context, auditID uint) ([]model.AuditResponse, error)
	DeleteByArea(ctx context.Context, areaID uint) error
	// CountByQuestions 统计引用给定问题的作答数
	CountByQuestions(ctx context.Context, questionIDs []uint) (int64, error)
}

type auditResponseRepo struct {
	db *gorm.DB
}

// NewAuditResponseRepo 创建 AuditResponseRepository 实例
func NewAuditResponseRepo(db *gorm.DB) AuditResponseRepository {
	return &auditResponseRepo{db: db}
}

func (r *auditResponseRepo) Create(ctx context.Context, resp *model.AuditResponse) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Question").Create(resp).Error)
}

func (r *auditResponseRepo) ListByAudit(ctx context.Context, auditID uint) ([]model.AuditResponse, error) {
	var responses []model.AuditResponse
	err := r.db.WithContext(ctx).
		Preload("Question").
		Where("audit_id = ?", auditID).
		Order("id ASC").
		Find(&responses).Error
	return responses, err
}

func (r *auditResponseRepo) DeleteByArea(ctx context.Context, areaID uint) error {
	sub := r.db.WithContext(ctx).
		Model(&model.AuditRecord{}).
		Select("id").
		Where("area_id = ?", areaID)
	return r.db.WithContext(ctx).
		Where("audit_id IN (?)", sub).
		Delete(&model.AuditResponse{}).Error
}

func (r *auditResponseRepo) CountByQuestions(ctx context.Context, questionIDs []uint) (int64, error) {
	if len(questionIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AuditResponse{}).
		Where("question_id IN ?", questionIDs).
		Count(&count).Error
	return count, err
}
