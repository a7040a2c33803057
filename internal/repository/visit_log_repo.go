package repository

import (
	"context"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
)

// VisitLogRepository 访问日志数据访问接口
type VisitLogRepository interface {
	Create(ctx context.Context, log *model.VisitLog) error
	ListRecent(ctx context.Context, limit int) ([]model.VisitLog, error)
}

type visitLogRepo struct {
	db *gorm.DB
}

// NewVisitLogRepo 创建 VisitLogRepository 实例
func NewVisitLogRepo(db *gorm.DB) VisitLogRepository {
	return &visitLogRepo{db: db}
}

func (r *visitLogRepo) Create(ctx context.Context, log *model.VisitLog) error {
	return r.db.WithContext(ctx).Omit("User").Create(log).Error
}

func (r *visitLogRepo) ListRecent(ctx context.Context, limit int) ([]model.VisitLog, error) {
	var logs []model.VisitLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
