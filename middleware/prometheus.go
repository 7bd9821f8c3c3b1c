package middleware

import (
	"strconv"
	"time"

	"redis-queue/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type PrometheusMiddleware struct {
	metrics *metrics.QueueMetrics
}

func NewPrometheusMiddleware(m *metrics.QueueMetrics) *PrometheusMiddleware {
	if m == nil {
		m = metrics.GetMetrics()
	}
	return &PrometheusMiddleware{
		metrics: m,
	}
}

func (m *PrometheusMiddleware) Monitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		// 未匹配的路由统一归类，避免标签基数膨胀
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		statusCode := strconv.Itoa(c.Writer.Status())

		m.metrics.RequestsTotal.WithLabelValues(route, statusCode).Inc()
		m.metrics.RequestDuration.WithLabelValues(route).Observe(float64(time.Since(startTime).Milliseconds()))
	}
}
