package model

import "time"

// Area 生产区域（5S 推行单元）— 对应 areas
type Area struct {
	ID          uint      `gorm:"primaryKey"                            json:"id"`
	Name        string    `gorm:"type:varchar(100);not null"            json:"name"`
	Code        string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Description string    `gorm:"type:text"                             json:"description,omitempty"`
	ManagerID   *uint     `gorm:"index"                                 json:"manager_id,omitempty"`
	IsActive    bool      `gorm:"not null"                              json:"is_active"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"               json:"created_at"`

	// 关联
	Manager *User         `gorm:"foreignKey:ManagerID;constraint:OnDelete:SET NULL" json:"manager,omitempty"`
	Audits  []AuditRecord `gorm:"foreignKey:AreaID;constraint:OnDelete:CASCADE"     json:"-"`
}

// TableName 指定表名
func (Area) TableName() string { return "areas" }
