package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/dto"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/response"
)

// AreaHandler 区域与看板模块 HTTP 处理器
type AreaHandler struct {
	areaSvc service.AreaService
}

// NewAreaHandler 创建 AreaHandler
func NewAreaHandler(areaSvc service.AreaService) *AreaHandler {
	return &AreaHandler{areaSvc: areaSvc}
}

// Dashboard 看板概览
// GET /api/v1/dashboard
func (h *AreaHandler) Dashboard(c *gin.Context) {
	result, err := h.areaSvc.Dashboard(c.Request.Context())
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAreas 区域列表
// GET /api/v1/areas
func (h *AreaHandler) ListAreas(c *gin.Context) {
	var req dto.AreaListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	areas, err := h.areaSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, gin.H{"list": areas})
}

// GetArea 区域详情（含历史与最近评分）
// GET /api/v1/areas/:id
func (h *AreaHandler) GetArea(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.areaSvc.Detail(c.Request.Context(), id)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, result)
}

// CreateArea 创建区域（管理员）
// POST /api/v1/areas
func (h *AreaHandler) CreateArea(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	area, err := h.areaSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.Created(c, area)
}

// UpdateArea 更新区域（管理员）
// PUT /api/v1/areas/:id
func (h *AreaHandler) UpdateArea(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	area, err := h.areaSvc.Update(c.Request.Context(), id, &req, caller)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, area)
}

// DeleteArea 删除区域及其评分记录（管理员）
// DELETE /api/v1/areas/:id
func (h *AreaHandler) DeleteArea(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.areaSvc.Delete(c.Request.Context(), id, caller); err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetHistory 最近 N 周历史
// GET /api/v1/areas/:id/history
func (h *AreaHandler) GetHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.areaSvc.History(c.Request.Context(), id)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, gin.H{"list": history})
}

// GetScoreSeries 折线图数据
// GET /api/v1/areas/:id/chart
func (h *AreaHandler) GetScoreSeries(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.areaSvc.ScoreSeries(c.Request.Context(), id)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, result)
}

// GetRadar 雷达图数据
// GET /api/v1/areas/:id/radar
func (h *AreaHandler) GetRadar(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.areaSvc.Radar(c.Request.Context(), id)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AreaHandler) handleAreaError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAreaNotFound):
		response.NotFound(c, 13001, "区域不存在")
	case errors.Is(err, service.ErrAreaCodeExists):
		response.Conflict(c, 13002, "区域编码已存在")
	case errors.Is(err, service.ErrManagerNotFound):
		response.NotFound(c, 13003, "负责人不存在")
	default:
		response.InternalError(c)
	}
}
