package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dash5s/backend/pkg/metrics"
)

// Metrics HTTP 请求计数与耗时
// path 使用路由模板（如 /api/v1/areas/:id），避免标签基数膨胀；m 为 nil 时跳过
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
