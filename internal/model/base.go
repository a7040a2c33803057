package model

import "time"

// ── 角色 ──

const (
	RoleViewer = "Viewer"
	RoleEditor = "Editor"
	RoleAdmin  = "Admin"
)

// CanEdit 判断角色是否具有评分写权限（Editor / Admin）
func CanEdit(role string) bool {
	return role == RoleEditor || role == RoleAdmin
}

// BaseModel 通用时间字段（业务模型按需嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// All 返回需要建表的全部模型，顺序满足外键依赖
func All() []interface{} {
	return []interface{}{
		&User{},
		&CoreModule{},
		&VisitLog{},
		&Area{},
		&Checklist{},
		&ChecklistSection{},
		&ChecklistQuestion{},
		&ChecklistAssignment{},
		&AuditRecord{},
		&AuditResponse{},
		&FeedbackMessage{},
	}
}
