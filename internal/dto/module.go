package dto

// ── 模块注册表 DTO ──

// SetModuleActiveRequest 启用 / 停用模块
type SetModuleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// ModuleResponse 模块响应
type ModuleResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	IsActive    bool   `json:"is_active"`
	MenuOrder   int    `json:"menu_order"`
	Version     string `json:"version"`
}

// ── 管理总览 ──

// VisitLogResponse 访问日志响应
type VisitLogResponse struct {
	ID        uint       `json:"id"`
	User      *UserBrief `json:"user,omitempty"`
	Timestamp string     `json:"timestamp"`
	IPAddress string     `json:"ip_address"`
	UserAgent string     `json:"user_agent"`
	Endpoint  string     `json:"endpoint"`
	Action    string     `json:"action"`
	Details   any        `json:"details,omitempty"`
}

// AdminOverviewResponse 管理首页统计
type AdminOverviewResponse struct {
	UserCount   int64              `json:"user_count"`
	ActiveUsers int64              `json:"active_users"`
	RecentLogs  []VisitLogResponse `json:"recent_logs"`
}
