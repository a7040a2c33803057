package middleware

import (
	"github.com/gin-gonic/gin"

	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/response"
)

// RequireModule 模块停用时该路由组返回 404
func RequireModule(moduleSvc service.ModuleService, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, err := moduleSvc.IsActive(c.Request.Context(), name)
		if err != nil {
			response.InternalError(c)
			c.Abort()
			return
		}
		if !active {
			response.NotFound(c, 17002, "模块未启用")
			c.Abort()
			return
		}

		c.Next()
	}
}
