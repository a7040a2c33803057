package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// AuditRepository 5S 评分记录数据访问接口
// 所有查询显式按 area_id 物化结果，不依赖关联懒加载
type AuditRepository interface {
	Create(ctx context.Context, audit *model.AuditRecord) error
	GetByID(ctx context.Context, id uint) (*model.AuditRecord, error)
	GetByKey(ctx context.Context, areaID uint, week, year int) (*model.AuditRecord, error)
	ListByAreaSince(ctx context.Context, areaID uint, since time.Time) ([]model.AuditRecord, error)
	ListByAreasSince(ctx context.Context, areaIDs []uint, since time.Time) ([]model.AuditRecord, error)
	ListByAreaYears(ctx context.Context, areaID uint, years []int) ([]model.AuditRecord, error)
	ListRecent(ctx context.Context, areaID uint, limit int) ([]model.AuditRecord, error)
	Latest(ctx context.Context, areaID uint) (*model.AuditRecord, error)
	CountByWeek(ctx context.Context, week, year int) (int64, error)
	CountByChecklist(ctx context.Context, checklistID uint) (int64, error)
	DeleteByArea(ctx context.Context, areaID uint) error
}

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepo 创建 AuditRepository 实例
func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, audit *model.AuditRecord) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Editor", "Checklist", "Responses").Create(audit).Error)
}

func (r *auditRepo) GetByID(ctx context.Context, id uint) (*model.AuditRecord, error) {
	var audit model.AuditRecord
	err := r.db.WithContext(ctx).
		Preload("Editor").
		First(&audit, id).Error
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (r *auditRepo) GetByKey(ctx context.Context, areaID uint, week, year int) (*model.AuditRecord, error) {
	var audit model.AuditRecord
	err := r.db.WithContext(ctx).
		Where("area_id = ? AND week_number = ? AND year = ?", areaID, week, year).
		First(&audit).Error
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (r *auditRepo) ListByAreaSince(ctx context.Context, areaID uint, since time.Time) ([]model.AuditRecord, error) {
	var audits []model.AuditRecord
	err := r.db.WithContext(ctx).
		Where("area_id = ? AND timestamp >= ?", areaID, since).
		Order("timestamp DESC").
		Find(&audits).Error
	return audits, err
}

func (r *auditRepo) ListByAreasSince(ctx context.Context, areaIDs []uint, since time.Time) ([]model.AuditRecord, error) {
	var audits []model.AuditRecord
	if len(areaIDs) == 0 {
		return audits, nil
	}
	err := r.db.WithContext(ctx).
		Where("area_id IN ? AND timestamp >= ?", areaIDs, since).
		Order("timestamp DESC").
		Find(&audits).Error
	return audits, err
}

func (r *auditRepo) ListByAreaYears(ctx context.Context, areaID uint, years []int) ([]model.AuditRecord, error) {
	var audits []model.AuditRecord
	if len(years) == 0 {
		return audits, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Editor").
		Where("area_id = ? AND year IN ?", areaID, years).
		Find(&audits).Error
	return audits, err
}

func (r *auditRepo) ListRecent(ctx context.Context, areaID uint, limit int) ([]model.AuditRecord, error) {
	var audits []model.AuditRecord
	err := r.db.WithContext(ctx).
		Preload("Editor").
		Where("area_id = ?", areaID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&audits).Error
	return audits, err
}

func (r *auditRepo) Latest(ctx context.Context, areaID uint) (*model.AuditRecord, error) {
	var audit model.AuditRecord
	err := r.db.WithContext(ctx).
		Where("area_id = ?", areaID).
		Order("timestamp DESC, id DESC").
		First(&audit).Error
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (r *auditRepo) CountByWeek(ctx context.Context, week, year int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.AuditRecord{}).
		Where("week_number = ? AND year = ?", week, year).
		Count(&n).Error
	return n, err
}

func (r *auditRepo) CountByChecklist(ctx context.Context, checklistID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.AuditRecord{}).
		Where("checklist_id = ?", checklistID).
		Count(&n).Error
	return n, err
}

func (r *auditRepo) DeleteByArea(ctx context.Context, areaID uint) error {
	return r.db.WithContext(ctx).
		Where("area_id = ?", areaID).
		Delete(&model.AuditRecord{}).Error
}
