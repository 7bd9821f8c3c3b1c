package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"redis-queue/errors"
	"redis-queue/model"
	"redis-queue/pkg/logger"
	"redis-queue/pkg/queue"

	"github.com/gin-gonic/gin"
)

// QueueHandler 队列 HTTP 接口
type QueueHandler struct {
	queue     queue.TaskQueue
	resultTTL time.Duration
}

// NewQueueHandler 创建队列处理器
func NewQueueHandler(q queue.TaskQueue, resultTTL time.Duration) *QueueHandler {
	return &QueueHandler{
		queue:     q,
		resultTTL: resultTTL,
	}
}

// PutTaskRequest 入队请求
type PutTaskRequest struct {
	UID       string          `json:"uid"`
	Payload   json.RawMessage `json:"payload" binding:"required"`
	Unique    bool            `json:"unique"`
	UniqueKey string          `json:"unique_key"`
}

// SendResultRequest 结果回写请求
type SendResultRequest struct {
	Result json.RawMessage `json:"result" binding:"required"`
	TTL    int             `json:"ttl"` // 秒，0 使用默认值
}

// PutTask 入队
// POST /api/tasks
func (h *QueueHandler) PutTask(c *gin.Context) {
	var req PutTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.RespondWithError(c, http.StatusBadRequest, errors.NewBadRequestError(err.Error()))
		return
	}

	task, err := model.NewTask(req.Payload)
	if err != nil {
		errors.RespondWithError(c, http.StatusBadRequest, errors.NewBadRequestError(err.Error()))
		return
	}
	if req.UID != "" {
		task.UID = req.UID
	}
	task.Unique = req.Unique
	task.UniqueKey = req.UniqueKey

	job, err := h.queue.Put(c.Request.Context(), task)
	if err != nil {
		if !errors.IsTaskAlreadyInQueue(err) {
			logger.Errorf("Failed to enqueue task: %v", err)
		}
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}

	data := gin.H{
		"uid":    job.UID,
		"unique": task.Unique,
	}
	if task.Unique {
		data["hash"] = h.queue.HashOf(task)
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    20000,
		"message": "success",
		"data":    data,
	})
}

// GetTask 出队
// GET /api/tasks?block=true&timeout=5
func (h *QueueHandler) GetTask(c *gin.Context) {
	block, _ := strconv.ParseBool(c.DefaultQuery("block", "false"))
	timeout, err := strconv.Atoi(c.DefaultQuery("timeout", "0"))
	if err != nil || timeout < 0 {
		errors.RespondWithError(c, http.StatusBadRequest, errors.NewBadRequestError("timeout must be a non-negative integer"))
		return
	}
	// HTTP 请求不允许无限等待
	if block && timeout == 0 {
		timeout = 30
	}

	task, err := h.queue.Get(c.Request.Context(), block, time.Duration(timeout)*time.Second)
	if err != nil && task == nil {
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}
	if err != nil {
		logger.Errorf("Task %s dequeued with error: %v", task.UID, err)
	}
	if task == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    20000,
		"message": "success",
		"data":    task,
	})
}

// Size 队列长度
// GET /api/tasks/size
func (h *QueueHandler) Size(c *gin.Context) {
	size, err := h.queue.Size(c.Request.Context())
	if err != nil {
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    20000,
		"message": "success",
		"data": gin.H{
			"queue": h.queue.Name(),
			"size":  size,
		},
	})
}

// Clear 清空队列和去重集合
// DELETE /api/tasks
func (h *QueueHandler) Clear(c *gin.Context) {
	if err := h.queue.Clear(c.Request.Context()); err != nil {
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}

	logger.Infof("Queue %s cleared", h.queue.Name())
	c.JSON(http.StatusOK, gin.H{
		"code":    20000,
		"message": "success",
	})
}

// SendResult 写入任务结果
// POST /api/tasks/:uid/result
func (h *QueueHandler) SendResult(c *gin.Context) {
	var req SendResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.RespondWithError(c, http.StatusBadRequest, errors.NewBadRequestError(err.Error()))
		return
	}

	ttl := h.resultTTL
	if req.TTL > 0 {
		ttl = time.Duration(req.TTL) * time.Second
	}

	task := &model.Task{UID: c.Param("uid")}
	sent, err := h.queue.Send(c.Request.Context(), task, req.Result, ttl)
	if err != nil {
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}
	if !sent {
		errors.RespondWithError(c, http.StatusBadRequest, errors.NewInvalidResultError())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    20000,
		"message": "success",
	})
}

// GetResult 读取任务结果，结果只能读取一次
// GET /api/tasks/:uid/result?wait=5
func (h *QueueHandler) GetResult(c *gin.Context) {
	uid := c.Param("uid")
	wait, err := strconv.Atoi(c.DefaultQuery("wait", "0"))
	if err != nil || wait < 0 {
		errors.RespondWithError(c, http.StatusBadRequest, errors.NewBadRequestError("wait must be a non-negative integer"))
		return
	}

	job := h.queue.Job(uid)

	var result map[string]any
	if wait > 0 {
		ok, werr := job.Wait(c.Request.Context(), time.Duration(wait)*time.Second)
		err = werr
		if ok {
			result, err = job.Result(c.Request.Context())
		}
	} else {
		result, err = job.Result(c.Request.Context())
	}
	if err != nil && result == nil {
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}
	if result == nil {
		errors.RespondWithError(c, http.StatusNotFound, errors.NewResultNotReadyError(uid))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    20000,
		"message": "success",
		"data": gin.H{
			"uid":    uid,
			"result": result,
		},
	})
}
