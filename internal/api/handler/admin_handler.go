package handler

import (
	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/response"
)

// AdminHandler 管理总览 HTTP 处理器
type AdminHandler struct {
	adminSvc service.AdminService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// Overview 用户统计与最近访问记录（管理员）
// GET /api/v1/admin/overview
func (h *AdminHandler) Overview(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.adminSvc.Overview(c.Request.Context(), caller)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
