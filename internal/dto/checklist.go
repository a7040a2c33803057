package dto

// ── 检查表模块 DTO ──

// CreateChecklistRequest 创建检查表请求
type CreateChecklistRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	Module      string `json:"module"      binding:"omitempty,max=50"`
	Version     string `json:"version"     binding:"omitempty,max=20"`
}

// UpdateChecklistRequest 更新检查表请求
type UpdateChecklistRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Module      *string `json:"module"      binding:"omitempty,max=50"`
	Version     *string `json:"version"     binding:"omitempty,max=20"`
	IsActive    *bool   `json:"is_active"`
}

// ChecklistListRequest 检查表列表查询参数
type ChecklistListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// CreateSectionRequest 新增分节请求
type CreateSectionRequest struct {
	ParentSectionID *uint  `json:"parent_section_id"`
	OrderNum        int    `json:"order_num"`
	Title           string `json:"title"             binding:"required,min=1,max=500"`
	Description     string `json:"description"       binding:"omitempty,max=5000"`
}

// CreateQuestionRequest 新增问题请求
type CreateQuestionRequest struct {
	OrderNum     int      `json:"order_num"`
	QuestionText string   `json:"question_text" binding:"required,min=1,max=5000"`
	HelpText     string   `json:"help_text"     binding:"omitempty,max=5000"`
	Weight       *float64 `json:"weight"`
	IsRequired   *bool    `json:"is_required"`
	MaxScore     *int     `json:"max_score"`
}

// ChecklistResponse 检查表响应
type ChecklistResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Module      string `json:"module"`
	Version     string `json:"version"`
	IsActive    bool   `json:"is_active"`
	CreatedBy   *uint  `json:"created_by,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// SectionResponse 分节响应
type SectionResponse struct {
	ID              uint   `json:"id"`
	ChecklistID     uint   `json:"checklist_id"`
	ParentSectionID *uint  `json:"parent_section_id,omitempty"`
	OrderNum        int    `json:"order_num"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
}

// QuestionResponse 问题响应
type QuestionResponse struct {
	ID           uint    `json:"id"`
	SectionID    uint    `json:"section_id"`
	OrderNum     int     `json:"order_num"`
	QuestionText string  `json:"question_text"`
	HelpText     string  `json:"help_text,omitempty"`
	Weight       float64 `json:"weight"`
	IsRequired   bool    `json:"is_required"`
	MaxScore     int     `json:"max_score"`
}

// SectionNode 检查表树节点
type SectionNode struct {
	SectionResponse
	Questions []QuestionResponse `json:"questions"`
	Children  []SectionNode      `json:"children"`
}

// ChecklistTreeResponse 检查表完整结构
type ChecklistTreeResponse struct {
	Checklist ChecklistResponse `json:"checklist"`
	Sections  []SectionNode     `json:"sections"`
}

// ── 绑定 ──

// AssignChecklistRequest 绑定检查表请求
type AssignChecklistRequest struct {
	EntityType string `json:"entity_type" binding:"required"`
	EntityID   uint   `json:"entity_id"   binding:"required"`
}

// EntityQuery 按对象查询绑定
type EntityQuery struct {
	EntityType string `form:"entity_type" binding:"required"`
	EntityID   uint   `form:"entity_id"   binding:"required"`
}

// AssignmentResponse 绑定响应
type AssignmentResponse struct {
	ID          uint   `json:"id"`
	ChecklistID uint   `json:"checklist_id"`
	EntityType  string `json:"entity_type"`
	EntityID    uint   `json:"entity_id"`
}
