package model

// ── 反馈状态 ──

const (
	FeedbackStatusNew        = "new"
	FeedbackStatusRead       = "read"
	FeedbackStatusInProgress = "in_progress"
	FeedbackStatusClosed     = "closed"
)

// FeedbackMessage 用户反馈 — 对应 feedback_messages
type FeedbackMessage struct {
	ID           uint   `gorm:"primaryKey"                              json:"id"`
	UserID       uint   `gorm:"not null;index"                          json:"user_id"`
	Message      string `gorm:"type:text;not null"                      json:"message"`
	Status       string `gorm:"type:varchar(20);not null;default:'new'" json:"status"`
	AdminComment string `gorm:"type:text"                               json:"admin_comment,omitempty"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName 指定表名
func (FeedbackMessage) TableName() string { return "feedback_messages" }
