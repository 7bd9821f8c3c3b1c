package middleware

import (
	"time"

	"redis-queue/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AccessLog 请求日志中间件，使用结构化字段输出
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := logger.WithFields(
			logger.Field("method", c.Request.Method),
			logger.Field("path", c.Request.URL.Path),
			logger.Field("status", status),
			logger.Field("duration_ms", time.Since(start).Milliseconds()),
			logger.Field("client_ip", c.ClientIP()),
		)

		if status >= 500 {
			fields.Error("http request")
			return
		}
		fields.Info("http request")
	}
}
