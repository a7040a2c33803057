package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/response"
)

// AuditHandler 周评分模块 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// CreateAudit 提交周评分（Editor / Admin）
// POST /api/v1/audits
func (h *AuditHandler) CreateAudit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	audit, err := h.auditSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.Created(c, audit)
}

// GetAudit 获取评分记录
// GET /api/v1/audits/:id
func (h *AuditHandler) GetAudit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	audit, err := h.auditSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.OK(c, audit)
}

// RecordResponses 批量记录逐题作答（Editor / Admin）
// POST /api/v1/audits/:id/responses
func (h *AuditHandler) RecordResponses(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.RecordResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	answers, err := h.auditSvc.RecordResponses(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.Created(c, gin.H{"list": answers})
}

// ListResponses 评分记录的逐题作答
// GET /api/v1/audits/:id/responses
func (h *AuditHandler) ListResponses(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	answers, err := h.auditSvc.ListResponses(c.Request.Context(), id)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.OK(c, gin.H{"list": answers})
}

func (h *AuditHandler) handleAuditError(c *gin.Context, err error) {
	// 重复评分可恢复：返回已存在记录，客户端据此跳转到区域详情
	var dup *service.DuplicateAuditError
	if errors.As(err, &dup) {
		response.ConflictWithData(c, 14001, "该区域本周已有评分记录", dto.DuplicateAuditResponse{
			AreaID:   dup.AreaID,
			AuditID:  dup.AuditID,
			Redirect: fmt.Sprintf("/api/v1/areas/%d", dup.AreaID),
		})
		return
	}
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrDuplicateAudit):
		response.Conflict(c, 14001, "该区域本周已有评分记录")
	case errors.Is(err, service.ErrDuplicateResponse):
		response.Conflict(c, 14002, "该问题已作答")
	case errors.Is(err, service.ErrAuditNotFound):
		response.NotFound(c, 14003, "评分记录不存在")
	case errors.Is(err, service.ErrQuestionNotInChecklist):
		response.BadRequest(c, 14004, "问题不属于该评分记录的检查表")
	case errors.Is(err, service.ErrAreaNotFound):
		response.NotFound(c, 13001, "区域不存在")
	case errors.Is(err, service.ErrChecklistNotFound):
		response.NotFound(c, 15001, "检查表不存在")
	case errors.Is(err, service.ErrQuestionNotFound):
		response.NotFound(c, 15003, "问题不存在")
	default:
		response.InternalError(c)
	}
}
