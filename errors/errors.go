package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Queue error kinds. Callers match them with errors.Is.
var (
	ErrNotConnected       = stderrors.New("queue is not connected")
	ErrConnection         = stderrors.New("backing store unavailable")
	ErrTaskAlreadyInQueue = stderrors.New("task already in queue")
)

// ConnectionError wraps a failure to reach the backing store.
type ConnectionError struct {
	Err error
}

// NewConnectionError wraps err as a connectivity failure.
func NewConnectionError(err error) *ConnectionError {
	return &ConnectionError{Err: err}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnection, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnection, e.Err}
}

// TaskAlreadyInQueueError is returned by Put when the unique hash of a task
// is already reserved. The task was not enqueued.
type TaskAlreadyInQueueError struct {
	Hash string
}

func (e *TaskAlreadyInQueueError) Error() string {
	return fmt.Sprintf("task already in queue [%s]", e.Hash)
}

func (e *TaskAlreadyInQueueError) Is(target error) bool {
	return target == ErrTaskAlreadyInQueue
}

// IsNotConnected reports whether err is ErrNotConnected.
func IsNotConnected(err error) bool {
	return stderrors.Is(err, ErrNotConnected)
}

// IsConnection reports whether err is a backing store connectivity failure.
func IsConnection(err error) bool {
	return stderrors.Is(err, ErrConnection)
}

// IsTaskAlreadyInQueue reports whether err is a duplicate unique task.
func IsTaskAlreadyInQueue(err error) bool {
	return stderrors.Is(err, ErrTaskAlreadyInQueue)
}

// DuplicateHash returns the hash carried by a TaskAlreadyInQueueError.
func DuplicateHash(err error) (string, bool) {
	var dup *TaskAlreadyInQueueError
	if stderrors.As(err, &dup) {
		return dup.Hash, true
	}
	return "", false
}

// API error codes
const (
	ErrBadRequest       = 40001 // 请求参数错误
	ErrInvalidResult    = 40002 // 结果必须是 JSON 对象
	ErrResultNotReady   = 40401 // 结果尚未返回
	ErrDuplicateTask    = 40901 // 去重任务已在队列中
	ErrInternal         = 50001 // 内部错误
	ErrStoreUnavailable = 50301 // 存储不可用
	ErrQueueNotReady    = 50302 // 队列未连接
)

// APIError represents an API error response
type APIError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API Error %d: %s", e.Code, e.Message)
}

// NewAPIError creates a new API error
func NewAPIError(code int, message string, data interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, httpStatus int, apiError *APIError) {
	c.JSON(httpStatus, apiError)
	c.Abort()
}

func NewBadRequestError(message string) *APIError {
	return NewAPIError(ErrBadRequest, "请求参数错误", gin.H{
		"detail": message,
	})
}

func NewInvalidResultError() *APIError {
	return NewAPIError(ErrInvalidResult, "结果必须是 JSON 对象", nil)
}

func NewResultNotReadyError(uid string) *APIError {
	return NewAPIError(ErrResultNotReady, "结果尚未返回", gin.H{
		"uid": uid,
	})
}

func NewDuplicateTaskError(hash string) *APIError {
	return NewAPIError(ErrDuplicateTask, "任务已在队列中", gin.H{
		"hash": hash,
	})
}

// FromQueueError maps a queue error to an HTTP status and API error.
func FromQueueError(err error) (int, *APIError) {
	if hash, ok := DuplicateHash(err); ok {
		return http.StatusConflict, NewDuplicateTaskError(hash)
	}
	switch {
	case IsNotConnected(err):
		return http.StatusServiceUnavailable, NewAPIError(ErrQueueNotReady, "队列未连接", nil)
	case IsConnection(err):
		return http.StatusServiceUnavailable, NewAPIError(ErrStoreUnavailable, "存储不可用", nil)
	default:
		return http.StatusInternalServerError, NewAPIError(ErrInternal, "内部错误", gin.H{
			"detail": err.Error(),
		})
	}
}
