package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/response"
)

// FeedbackHandler 反馈模块 HTTP 处理器
type FeedbackHandler struct {
	feedbackSvc service.FeedbackService
}

// NewFeedbackHandler 创建 FeedbackHandler
func NewFeedbackHandler(feedbackSvc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackSvc: feedbackSvc}
}

// Send 提交反馈
// POST /api/v1/feedback
func (h *FeedbackHandler) Send(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SendFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	fb, err := h.feedbackSvc.Send(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.Created(c, fb)
}

// ListMine 我的反馈
// GET /api/v1/feedback/mine
func (h *FeedbackHandler) ListMine(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.feedbackSvc.ListMine(c.Request.Context(), caller)
	if err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListAll 全部反馈（管理员）
// GET /api/v1/feedback
func (h *FeedbackHandler) ListAll(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.FeedbackListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.feedbackSvc.ListAll(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// UpdateStatus 处理反馈（管理员）
// PUT /api/v1/feedback/:id/status
func (h *FeedbackHandler) UpdateStatus(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateFeedbackStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	fb, err := h.feedbackSvc.UpdateStatus(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.OK(c, fb)
}

func (h *FeedbackHandler) handleFeedbackError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrFeedbackNotFound):
		response.NotFound(c, 16001, "反馈不存在")
	default:
		response.InternalError(c)
	}
}
