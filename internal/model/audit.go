package model

import "time"

// AuditRecord 每周 5S 评分记录 — 对应 audit_records
// (area_id, week_number, year) 唯一；OverallScore 在创建时写入，之后不再重算
type AuditRecord struct {
	ID           uint      `gorm:"primaryKey"                                         json:"id"`
	AreaID       uint      `gorm:"not null;uniqueIndex:uq_audit_area_week,priority:1" json:"area_id"`
	ChecklistID  *uint     `gorm:"index"                                              json:"checklist_id,omitempty"`
	WeekNumber   int       `gorm:"not null;uniqueIndex:uq_audit_area_week,priority:2" json:"week_number"`
	Year         int       `gorm:"not null;uniqueIndex:uq_audit_area_week,priority:3" json:"year"`
	Score1S      float64   `gorm:"column:score_1s;not null;default:0"                 json:"score_1s"`
	Score2S      float64   `gorm:"column:score_2s;not null;default:0"                 json:"score_2s"`
	Score3S      float64   `gorm:"column:score_3s;not null;default:0"                 json:"score_3s"`
	Score4S      float64   `gorm:"column:score_4s;not null;default:0"                 json:"score_4s"`
	Score5S      float64   `gorm:"column:score_5s;not null;default:0"                 json:"score_5s"`
	OverallScore float64   `gorm:"not null;default:0"                                 json:"overall_score"`
	Notes        string    `gorm:"type:text"                                          json:"notes,omitempty"`
	EditorID     uint      `gorm:"not null;index"                                     json:"editor_id"`
	Timestamp    time.Time `gorm:"not null;index"                                     json:"timestamp"`

	// 关联
	Editor    *User           `gorm:"foreignKey:EditorID"                            json:"editor,omitempty"`
	Checklist *Checklist      `gorm:"foreignKey:ChecklistID"                         json:"-"`
	Responses []AuditResponse `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (AuditRecord) TableName() string { return "audit_records" }

// Scores 按 1S..5S 顺序返回五项得分
func (a *AuditRecord) Scores() [5]float64 {
	return [5]float64{a.Score1S, a.Score2S, a.Score3S, a.Score4S, a.Score5S}
}

// AuditResponse 检查表问题的逐项作答 — 对应 audit_responses
type AuditResponse struct {
	ID         uint   `gorm:"primaryKey"                                                 json:"id"`
	AuditID    uint   `gorm:"not null;uniqueIndex:uq_response_audit_question,priority:1" json:"audit_id"`
	QuestionID uint   `gorm:"not null;uniqueIndex:uq_response_audit_question,priority:2" json:"question_id"`
	Score      int    `gorm:"not null"                                                   json:"score"` // 0 | 1 | 2
	Comment    string `gorm:"type:text"                                                  json:"comment,omitempty"`

	// 关联
	Question *ChecklistQuestion `gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT" json:"question,omitempty"`
}

// TableName 指定表名
func (AuditResponse) TableName() string { return "audit_responses" }
