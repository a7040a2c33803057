package model

import (
	"time"

	"gorm.io/datatypes"
)

// VisitLog 已登录用户的访问日志 — 对应 visit_logs
type VisitLog struct {
	ID        uint           `gorm:"primaryKey"        json:"id"`
	UserID    uint           `gorm:"not null;index"    json:"user_id"`
	Timestamp time.Time      `gorm:"not null;index"    json:"timestamp"`
	IPAddress string         `gorm:"type:varchar(45)"  json:"ip_address"`
	UserAgent string         `gorm:"type:text"         json:"user_agent"`
	Endpoint  string         `gorm:"type:varchar(200)" json:"endpoint"`
	Action    string         `gorm:"type:varchar(100)" json:"action"`
	Details   datatypes.JSON `json:"details,omitempty"`

	// 关联
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName 指定表名
func (VisitLog) TableName() string { return "visit_logs" }
