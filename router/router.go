package router

import (
	"time"

	"redis-queue/handler"
	"redis-queue/middleware"
	"redis-queue/pkg/metrics"
	"redis-queue/pkg/queue"
	"redis-queue/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter archive 为 nil 时不注册归档查询接口
func SetupRouter(q queue.TaskQueue, archive repository.ResultRepository, resultTTL time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.AccessLog())
	r.Use(middleware.NewPrometheusMiddleware(metrics.GetMetrics()).Monitor())

	queueHandler := handler.NewQueueHandler(q, resultTTL)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			status := "ok"
			if !q.Connected() {
				status = "disconnected"
			}
			c.JSON(200, gin.H{
				"status":  status,
				"service": "redis-queue",
				"queue":   q.Name(),
			})
		})

		api.POST("/tasks", queueHandler.PutTask)
		api.GET("/tasks", queueHandler.GetTask)
		api.DELETE("/tasks", queueHandler.Clear)
		api.GET("/tasks/size", queueHandler.Size)
		api.POST("/tasks/:uid/result", queueHandler.SendResult)
		api.GET("/tasks/:uid/result", queueHandler.GetResult)

		if archive != nil {
			resultHandler := handler.NewResultHandler(q.Name(), archive)
			api.GET("/results", resultHandler.ListArchived)
			api.GET("/results/:uid", resultHandler.GetArchived)
		}
	}

	return r
}
