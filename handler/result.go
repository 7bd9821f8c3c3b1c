package handler

import (
	"net/http"
	"strconv"

	"redis-queue/errors"
	"redis-queue/repository"

	"github.com/gin-gonic/gin"
)

// ResultHandler 归档结果查询
type ResultHandler struct {
	queueName  string
	resultRepo repository.ResultRepository
}

func NewResultHandler(queueName string, resultRepo repository.ResultRepository) *ResultHandler {
	return &ResultHandler{
		queueName:  queueName,
		resultRepo: resultRepo,
	}
}

// GetArchived 获取归档结果
// GET /api/results/:uid
func (h *ResultHandler) GetArchived(c *gin.Context) {
	record, err := h.resultRepo.GetByUID(c.Request.Context(), c.Param("uid"))
	if err == repository.ErrResultNotFound {
		errors.RespondWithError(c, http.StatusNotFound, errors.NewResultNotReadyError(c.Param("uid")))
		return
	}
	if err != nil {
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    20000,
		"message": "success",
		"data":    record,
	})
}

// ListArchived 获取归档结果列表
// GET /api/results?limit=10&offset=0
func (h *ResultHandler) ListArchived(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	records, err := h.resultRepo.ListByQueue(c.Request.Context(), h.queueName, limit, offset)
	if err != nil {
		status, apiErr := errors.FromQueueError(err)
		errors.RespondWithError(c, status, apiErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    20000,
		"message": "success",
		"data": gin.H{
			"results": records,
			"limit":   limit,
			"offset":  offset,
		},
	})
}
