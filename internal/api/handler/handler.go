package handler

import "dash5s/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Area      *AreaHandler
	Audit     *AuditHandler
	Checklist *ChecklistHandler
	Feedback  *FeedbackHandler
	Module    *ModuleHandler
	Admin     *AdminHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		User:      NewUserHandler(svc.User),
		Area:      NewAreaHandler(svc.Area),
		Audit:     NewAuditHandler(svc.Audit),
		Checklist: NewChecklistHandler(svc.Checklist),
		Feedback:  NewFeedbackHandler(svc.Feedback),
		Module:    NewModuleHandler(svc.Module),
		Admin:     NewAdminHandler(svc.Admin),
		Export:    NewExportHandler(svc.Export),
	}
}
