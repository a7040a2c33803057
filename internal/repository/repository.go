package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Area          AreaRepository
	Checklist     ChecklistRepository
	Section       SectionRepository
	Question      QuestionRepository
	Assignment    AssignmentRepository
	Audit         AuditRepository
	AuditResponse AuditResponseRepository
	Feedback      FeedbackRepository
	Module        ModuleRepository
	VisitLog      VisitLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Area:          NewAreaRepo(db),
		Checklist:     NewChecklistRepo(db),
		Section:       NewSectionRepo(db),
		Question:      NewQuestionRepo(db),
		Assignment:    NewAssignmentRepo(db),
		Audit:         NewAuditRepo(db),
		AuditResponse: NewAuditResponseRepo(db),
		Feedback:      NewFeedbackRepo(db),
		Module:        NewModuleRepo(db),
		VisitLog:      NewVisitLogRepo(db),
	}
}

// DB 返回底层连接（健康检查用）
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// BeginTx 开启事务；未绑定数据库（单元测试中的 mock 聚合）时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn：fn 返回错误或 panic 时回滚，否则提交
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}
