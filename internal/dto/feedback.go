package dto

// ── 反馈模块 DTO ──

// SendFeedbackRequest 提交反馈请求
type SendFeedbackRequest struct {
	Message string `json:"message" binding:"required,max=5000"`
}

// FeedbackListRequest 管理端反馈列表参数
type FeedbackListRequest struct {
	PaginationRequest
	Status string `form:"status"`
}

// UpdateFeedbackStatusRequest 更新反馈状态请求
type UpdateFeedbackStatusRequest struct {
	Status       string `json:"status"        binding:"required"`
	AdminComment string `json:"admin_comment" binding:"omitempty,max=5000"`
}

// FeedbackResponse 反馈响应
type FeedbackResponse struct {
	ID           uint       `json:"id"`
	UserID       uint       `json:"user_id"`
	User         *UserBrief `json:"user,omitempty"`
	Message      string     `json:"message"`
	Status       string     `json:"status"`
	AdminComment string     `json:"admin_comment,omitempty"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}
