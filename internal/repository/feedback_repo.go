package repository

import (
	"context"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// FeedbackRepository 反馈数据访问接口
type FeedbackRepository interface {
	Create(ctx context.Context, msg *model.FeedbackMessage) error
	GetByID(ctx context.Context, id uint) (*model.FeedbackMessage, error)
	ListByUser(ctx context.Context, userID uint) ([]model.FeedbackMessage, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.FeedbackMessage, int64, error)
	Update(ctx context.Context, msg *model.FeedbackMessage) error
}

type feedbackRepo struct {
	db *gorm.DB
}

// NewFeedbackRepo 创建 FeedbackRepository 实例
func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, msg *model.FeedbackMessage) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("User").Create(msg).Error)
}

func (r *feedbackRepo) GetByID(ctx context.Context, id uint) (*model.FeedbackMessage, error) {
	var msg model.FeedbackMessage
	if err := r.db.WithContext(ctx).Preload("User").First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *feedbackRepo) ListByUser(ctx context.Context, userID uint) ([]model.FeedbackMessage, error) {
	var list []model.FeedbackMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *feedbackRepo) List(ctx context.Context, status string, offset, limit int) ([]model.FeedbackMessage, int64, error) {
	var list []model.FeedbackMessage
	var total int64

	db := r.db.WithContext(ctx).Model(&model.FeedbackMessage{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *feedbackRepo) Update(ctx context.Context, msg *model.FeedbackMessage) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("User").Save(msg).Error)
}
