package dto

// ── 评分模块 DTO ──

// CreateAuditRequest 创建周评分请求
// 分值为空时按 0 处理；范围校验在业务层完成
type CreateAuditRequest struct {
	AreaID      uint     `json:"area_id"      binding:"required"`
	ChecklistID *uint    `json:"checklist_id"`
	WeekNumber  int      `json:"week_number"`
	Year        int      `json:"year"`
	Score1S     *float64 `json:"score_1s"`
	Score2S     *float64 `json:"score_2s"`
	Score3S     *float64 `json:"score_3s"`
	Score4S     *float64 `json:"score_4s"`
	Score5S     *float64 `json:"score_5s"`
	Notes       string   `json:"notes"        binding:"omitempty,max=5000"`
}

// AuditResponse 评分记录响应
type AuditResponse struct {
	ID           uint       `json:"id"`
	AreaID       uint       `json:"area_id"`
	ChecklistID  *uint      `json:"checklist_id,omitempty"`
	WeekNumber   int        `json:"week_number"`
	Year         int        `json:"year"`
	Score1S      float64    `json:"score_1s"`
	Score2S      float64    `json:"score_2s"`
	Score3S      float64    `json:"score_3s"`
	Score4S      float64    `json:"score_4s"`
	Score5S      float64    `json:"score_5s"`
	OverallScore float64    `json:"overall_score"`
	Notes        string     `json:"notes,omitempty"`
	EditorID     uint       `json:"editor_id"`
	Editor       *UserBrief `json:"editor,omitempty"`
	Timestamp    string     `json:"timestamp"`
}

// DuplicateAuditResponse 重复评分时返回的跳转信息
type DuplicateAuditResponse struct {
	AreaID   uint   `json:"area_id"`
	AuditID  uint   `json:"audit_id"`
	Redirect string `json:"redirect"`
}

// ── 逐题作答 ──

// ResponseItem 单题作答
type ResponseItem struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Score      *int   `json:"score"       binding:"required"`
	Comment    string `json:"comment"     binding:"omitempty,max=2000"`
}

// RecordResponsesRequest 批量记录作答请求
type RecordResponsesRequest struct {
	Responses []ResponseItem `json:"responses" binding:"required,min=1,dive"`
}

// AuditAnswerResponse 作答记录响应
type AuditAnswerResponse struct {
	ID           uint   `json:"id"`
	AuditID      uint   `json:"audit_id"`
	QuestionID   uint   `json:"question_id"`
	QuestionText string `json:"question_text,omitempty"`
	Score        int    `json:"score"`
	Comment      string `json:"comment,omitempty"`
}
