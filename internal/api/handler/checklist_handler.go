package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/response"
)

// ChecklistHandler 检查表目录 HTTP 处理器
type ChecklistHandler struct {
	checklistSvc service.ChecklistService
}

// NewChecklistHandler 创建 ChecklistHandler
func NewChecklistHandler(checklistSvc service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklistSvc: checklistSvc}
}

// ── 检查表 ──

// ListChecklists 检查表列表
// GET /api/v1/checklists
func (h *ChecklistHandler) ListChecklists(c *gin.Context) {
	var req dto.ChecklistListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.checklistSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetChecklist 检查表详情
// GET /api/v1/checklists/:id
func (h *ChecklistHandler) GetChecklist(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	checklist, err := h.checklistSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, checklist)
}

// GetTree 检查表完整结构（分节树 + 问题）
// GET /api/v1/checklists/:id/tree
func (h *ChecklistHandler) GetTree(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tree, err := h.checklistSvc.GetTree(c.Request.Context(), id)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, tree)
}

// CreateChecklist 创建检查表（管理员）
// POST /api/v1/checklists
func (h *ChecklistHandler) CreateChecklist(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	checklist, err := h.checklistSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.Created(c, checklist)
}

// UpdateChecklist 更新检查表（管理员）
// PUT /api/v1/checklists/:id
func (h *ChecklistHandler) UpdateChecklist(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	checklist, err := h.checklistSvc.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, checklist)
}

// DeleteChecklist 删除检查表（管理员）
// DELETE /api/v1/checklists/:id
func (h *ChecklistHandler) DeleteChecklist(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.checklistSvc.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 分节与问题 ──

// AddSection 新增分节（管理员）
// POST /api/v1/checklists/:id/sections
func (h *ChecklistHandler) AddSection(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	section, err := h.checklistSvc.AddSection(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.Created(c, section)
}

// DeleteSection 删除分节及其子树（管理员）
// DELETE /api/v1/sections/:id
func (h *ChecklistHandler) DeleteSection(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.checklistSvc.DeleteSection(c.Request.Context(), id, caller); err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddQuestion 新增问题（管理员）
// POST /api/v1/sections/:id/questions
func (h *ChecklistHandler) AddQuestion(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	question, err := h.checklistSvc.AddQuestion(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.Created(c, question)
}

// ── 绑定 ──

// Assign 将检查表绑定到区域 / 工位类型（管理员）
// POST /api/v1/checklists/:id/assignments
func (h *ChecklistHandler) Assign(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AssignChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	assignment, err := h.checklistSvc.Assign(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.Created(c, assignment)
}

// ListAssignments 检查表的全部绑定
// GET /api/v1/checklists/:id/assignments
func (h *ChecklistHandler) ListAssignments(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.checklistSvc.ListAssignments(c.Request.Context(), id)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetForEntity 查询对象当前绑定的检查表
// GET /api/v1/assignments?entity_type=area&entity_id=1
func (h *ChecklistHandler) GetForEntity(c *gin.Context) {
	var q dto.EntityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	assignment, err := h.checklistSvc.GetForEntity(c.Request.Context(), q.EntityType, q.EntityID)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, assignment)
}

// Unassign 解除绑定（管理员）
// DELETE /api/v1/assignments/:id
func (h *ChecklistHandler) Unassign(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.checklistSvc.Unassign(c.Request.Context(), id, caller); err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ChecklistHandler) handleChecklistError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrChecklistNotFound):
		response.NotFound(c, 15001, "检查表不存在")
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 15002, "分节不存在")
	case errors.Is(err, service.ErrQuestionNotFound):
		response.NotFound(c, 15003, "问题不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 15004, "检查表绑定不存在")
	case errors.Is(err, service.ErrAssignmentConflict):
		response.Conflict(c, 15005, "该对象已绑定检查表")
	case errors.Is(err, service.ErrChecklistInUse):
		response.Conflict(c, 15006, "检查表已被评分记录引用，无法删除")
	case errors.Is(err, service.ErrSectionInUse):
		response.Conflict(c, 15007, "分节中的问题已有评分作答，无法删除")
	case errors.Is(err, service.ErrAreaNotFound):
		response.NotFound(c, 13001, "区域不存在")
	default:
		response.InternalError(c)
	}
}
