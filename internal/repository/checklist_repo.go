package repository

import (
	"context"

	"gorm.io/gorm"

	"dash5s/backend/internal/model"
	pkgerrors "dash5s/backend/pkg/errors"
)

// ChecklistRepository 检查表模板数据访问接口
type ChecklistRepository interface {
	Create(ctx context.Context, cl *model.Checklist) error
	GetByID(ctx context.Context, id uint) (*model.Checklist, error)
	List(ctx context.Context, includeInactive bool) ([]model.Checklist, error)
	Update(ctx context.Context, cl *model.Checklist) error
	Delete(ctx context.Context, id uint) error
}

type checklistRepo struct {
	db *gorm.DB
}

// NewChecklistRepo 创建 ChecklistRepository 实例
func NewChecklistRepo(db *gorm.DB) ChecklistRepository {
	return &checklistRepo{db: db}
}

func (r *checklistRepo) Create(ctx context.Context, cl *model.Checklist) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Sections", "Assignments").Create(cl).Error)
}

func (r *checklistRepo) GetByID(ctx context.Context, id uint) (*model.Checklist, error) {
	var cl model.Checklist
	if err := r.db.WithContext(ctx).First(&cl, id).Error; err != nil {
		return nil, err
	}
	return &cl, nil
}

func (r *checklistRepo) List(ctx context.Context, includeInactive bool) ([]model.Checklist, error) {
	var lists []model.Checklist
	db := r.db.WithContext(ctx)
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC, id ASC").Find(&lists).Error
	return lists, err
}

func (r *checklistRepo) Update(ctx context.Context, cl *model.Checklist) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Sections", "Assignments").Save(cl).Error)
}

func (r *checklistRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Checklist{}, id)
	if res.Error != nil {
		return pkgerrors.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ── Section ──

// SectionRepository 检查表分节数据访问接口
type SectionRepository interface {
	Create(ctx context.Context, sec *model.ChecklistSection) error
	GetByID(ctx context.Context, id uint) (*model.ChecklistSection, error)
	ListByChecklist(ctx context.Context, checklistID uint) ([]model.ChecklistSection, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
}

type sectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo 创建 SectionRepository 实例
func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) Create(ctx context.Context, sec *model.ChecklistSection) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Omit("Children", "Questions").Create(sec).Error)
}

func (r *sectionRepo) GetByID(ctx context.Context, id uint) (*model.ChecklistSection, error) {
	var sec model.ChecklistSection
	if err := r.db.WithContext(ctx).First(&sec, id).Error; err != nil {
		return nil, err
	}
	return &sec, nil
}

func (r *sectionRepo) ListByChecklist(ctx context.Context, checklistID uint) ([]model.ChecklistSection, error) {
	var sections []model.ChecklistSection
	err := r.db.WithContext(ctx).
		Where("checklist_id = ?", checklistID).
		Order("order_num ASC, id ASC").
		Find(&sections).Error
	return sections, err
}

func (r *sectionRepo) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	// 先断开父子引用，避免自引用外键阻止批量删除
	if err := r.db.WithContext(ctx).
		Model(&model.ChecklistSection{}).
		Where("id IN ?", ids).
		Update("parent_section_id", nil).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.ChecklistSection{}).Error
}

// ── Question ──

// QuestionRepository 检查表问题数据访问接口
type QuestionRepository interface {
	Create(ctx context.Context, q *model.ChecklistQuestion) error
	GetByID(ctx context.Context, id uint) (*model.ChecklistQuestion, error)
	ListBySections(ctx context.Context, sectionIDs []uint) ([]model.ChecklistQuestion, error)
	DeleteBySections(ctx context.Context, sectionIDs []uint) error
}

type questionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo 创建 QuestionRepository 实例
func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) Create(ctx context.Context, q *model.ChecklistQuestion) error {
	return pkgerrors.Translate(r.db.WithContext(ctx).Create(q).Error)
}

func (r *questionRepo) GetByID(ctx context.Context, id uint) (*model.ChecklistQuestion, error) {
	var q model.ChecklistQuestion
	if err := r.db.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) ListBySections(ctx context.Context, sectionIDs []uint) ([]model.ChecklistQuestion, error) {
	var questions []model.ChecklistQuestion
	if len(sectionIDs) == 0 {
		return questions, nil
	}
	err := r.db.WithContext(ctx).
		Where("section_id IN ?", sectionIDs).
		Order("order_num ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepo) DeleteBySections(ctx context.Context, sectionIDs []uint) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("section_id IN ?", sectionIDs).
		Delete(&model.ChecklistQuestion{}).Error
}
