package middleware

import (
	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/api/handler"
	"dash5s/backend/internal/service"
)

// VisitLog 记录已认证请求的访问日志；写入失败只记日志，不影响响应
// 须挂在 JWTAuth 之后
func VisitLog(adminSvc service.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		v, ok := c.Get(handler.CtxUserID)
		if !ok {
			return
		}
		userID, _ := v.(uint)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		adminSvc.RecordVisit(c.Request.Context(), service.Visit{
			UserID:    userID,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Endpoint:  endpoint,
			Action:    c.Request.Method,
			Details: map[string]any{
				"request_id": GetRequestID(c),
				"status":     c.Writer.Status(),
			},
		})
	}
}
