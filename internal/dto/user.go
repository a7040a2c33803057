package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
}

// SetUserActiveRequest 启用 / 禁用用户
type SetUserActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
