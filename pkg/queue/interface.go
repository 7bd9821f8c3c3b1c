package queue

import (
	"context"
	"time"

	"redis-queue/model"
)

// TaskQueue is the producer/consumer surface shared by the Redis-backed
// queue and the in-memory mock.
type TaskQueue interface {
	Name() string
	Connect(ctx context.Context, dial Dialer) error
	Connected() bool
	Put(ctx context.Context, task *model.Task) (*Job, error)
	Get(ctx context.Context, block bool, timeout time.Duration) (*model.Task, error)
	HashOf(task *model.Task) string
	Send(ctx context.Context, task *model.Task, result any, ttl time.Duration) (bool, error)
	Job(uid string) *Job
	Size(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Close() error
}

var _ TaskQueue = (*Queue)(nil)
