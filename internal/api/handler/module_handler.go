package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/response"
)

// ModuleHandler 模块注册表 HTTP 处理器
type ModuleHandler struct {
	moduleSvc service.ModuleService
}

// NewModuleHandler 创建 ModuleHandler
func NewModuleHandler(moduleSvc service.ModuleService) *ModuleHandler {
	return &ModuleHandler{moduleSvc: moduleSvc}
}

// ListActive 当前启用的模块（菜单）
// GET /api/v1/modules
func (h *ModuleHandler) ListActive(c *gin.Context) {
	list, err := h.moduleSvc.ListActive(c.Request.Context())
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListAll 全部模块（管理员）
// GET /api/v1/admin/modules
func (h *ModuleHandler) ListAll(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.moduleSvc.List(c.Request.Context(), caller)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SetActive 启用 / 停用模块（管理员）
// PUT /api/v1/admin/modules/:id
func (h *ModuleHandler) SetActive(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SetModuleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	module, err := h.moduleSvc.SetActive(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleModuleError(c, err)
		return
	}

	response.OK(c, module)
}

func (h *ModuleHandler) handleModuleError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrModuleNotFound):
		response.NotFound(c, 17001, "模块不存在")
	default:
		response.InternalError(c)
	}
}
