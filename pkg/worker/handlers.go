package worker

import (
	"context"
	"encoding/json"

	"redis-queue/model"
	"redis-queue/pkg/queue"
)

// HandlerFactory builds a Handler bound to the queue it consumes.
type HandlerFactory func(q queue.TaskQueue) Handler

// Handlers 内置处理函数，供 worker 命令选择
var Handlers = map[string]HandlerFactory{
	"echo": func(queue.TaskQueue) Handler { return EchoHandler },
	"hash": NewHashHandler,
}

// EchoHandler returns the decoded payload.
func EchoHandler(ctx context.Context, task *model.Task) (map[string]any, error) {
	var payload any
	if len(task.Payload) > 0 {
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return nil, err
		}
	}
	return map[string]any{"payload": payload}, nil
}

// NewHashHandler returns a handler reporting the dedup hash q computes for the task.
func NewHashHandler(q queue.TaskQueue) Handler {
	return func(ctx context.Context, task *model.Task) (map[string]any, error) {
		return map[string]any{"hash": q.HashOf(task)}, nil
	}
}
