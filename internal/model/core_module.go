package model

import "time"

// CoreModule 系统功能模块注册表 — 对应 core_modules
type CoreModule struct {
	ID          uint      `gorm:"primaryKey"                                json:"id"`
	Name        string    `gorm:"type:varchar(50);not null;uniqueIndex"     json:"name"`
	DisplayName string    `gorm:"type:varchar(100)"                         json:"display_name"`
	IsActive    bool      `gorm:"not null"                                  json:"is_active"`
	MenuOrder   int       `gorm:"not null;default:999"                      json:"menu_order"`
	Version     string    `gorm:"type:varchar(20);not null;default:'1.0.0'" json:"version"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"                   json:"created_at"`
}

// TableName 指定表名
func (CoreModule) TableName() string { return "core_modules" }
