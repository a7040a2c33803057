package model

// Checklist 检查表模板 — 对应 checklists
type Checklist struct {
	ID          uint   `gorm:"primaryKey"                                    json:"id"`
	Name        string `gorm:"type:varchar(200);not null"                    json:"name"`
	Description string `gorm:"type:text"                                     json:"description,omitempty"`
	Module      string `gorm:"type:varchar(50);not null;default:'dashboard'" json:"module"`
	Version     string `gorm:"type:varchar(20);not null;default:'1.0'"       json:"version"`
	IsActive    bool   `gorm:"not null"                                      json:"is_active"`
	CreatedBy   *uint  `gorm:"index"                                         json:"created_by,omitempty"`
	BaseModel

	// 关联
	Sections    []ChecklistSection    `gorm:"foreignKey:ChecklistID;constraint:OnDelete:CASCADE" json:"-"`
	Assignments []ChecklistAssignment `gorm:"foreignKey:ChecklistID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Checklist) TableName() string { return "checklists" }

// ChecklistSection 检查表分节 — 对应 checklist_sections
// ParentSectionID 为空表示根节点；树通过 id 索引遍历，不持有对象指针
type ChecklistSection struct {
	ID              uint   `gorm:"primaryKey"                 json:"id"`
	ChecklistID     uint   `gorm:"not null;index"             json:"checklist_id"`
	ParentSectionID *uint  `gorm:"index"                      json:"parent_section_id,omitempty"`
	OrderNum        int    `gorm:"not null;default:0"         json:"order_num"`
	Title           string `gorm:"type:varchar(500);not null" json:"title"`
	Description     string `gorm:"type:text"                  json:"description,omitempty"`

	// 关联
	Children  []ChecklistSection  `gorm:"foreignKey:ParentSectionID;constraint:OnDelete:CASCADE" json:"-"`
	Questions []ChecklistQuestion `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"       json:"-"`
}

// TableName 指定表名
func (ChecklistSection) TableName() string { return "checklist_sections" }

// ChecklistQuestion 检查表问题 — 对应 checklist_questions
type ChecklistQuestion struct {
	ID           uint    `gorm:"primaryKey"         json:"id"`
	SectionID    uint    `gorm:"not null;index"     json:"section_id"`
	OrderNum     int     `gorm:"not null;default:0" json:"order_num"`
	QuestionText string  `gorm:"type:text;not null" json:"question_text"`
	HelpText     string  `gorm:"type:text"          json:"help_text,omitempty"`
	Weight       float64 `gorm:"not null;default:1" json:"weight"`
	IsRequired   bool    `gorm:"not null"           json:"is_required"`
	MaxScore     int     `gorm:"not null;default:2" json:"max_score"`
}

// TableName 指定表名
func (ChecklistQuestion) TableName() string { return "checklist_questions" }

// ── 检查表绑定对象类型 ──

const (
	EntityTypeArea          = "area"
	EntityTypeWorkplaceType = "workplace_type"
)

// ChecklistAssignment 检查表与对象（区域 / 工位类型）的绑定 — 对应 checklist_assignments
// (entity_type, entity_id) 唯一，由数据库约束保证
type ChecklistAssignment struct {
	ID          uint   `gorm:"primaryKey"                                                            json:"id"`
	ChecklistID uint   `gorm:"not null;index"                                                        json:"checklist_id"`
	EntityType  string `gorm:"type:varchar(50);not null;uniqueIndex:uq_assignment_entity,priority:1" json:"entity_type"`
	EntityID    uint   `gorm:"not null;uniqueIndex:uq_assignment_entity,priority:2"                  json:"entity_id"`
}

// TableName 指定表名
func (ChecklistAssignment) TableName() string { return "checklist_assignments" }
