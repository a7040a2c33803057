package model

import "time"

// User 用户表 — 对应 users（由目录服务登录时写入/更新）
type User struct {
	ID          uint       `gorm:"primaryKey"                                 json:"id"`
	Username    string     `gorm:"type:varchar(80);not null;uniqueIndex"      json:"username"`
	DisplayName string     `gorm:"type:varchar(120)"                          json:"display_name"`
	Email       string     `gorm:"type:varchar(120)"                          json:"email"`
	Department  string     `gorm:"type:varchar(120)"                          json:"department"`
	Role        string     `gorm:"type:varchar(20);not null;default:'Viewer'" json:"role"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	IsActive    bool       `gorm:"not null"                json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
