package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求（目录服务账号）
type LoginRequest struct {
	Username   string `json:"username"    binding:"required,max=120"`
	Password   string `json:"password"    binding:"required,max=256"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 登出请求；refresh_token 可选，一并加入黑名单
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
