package queue

import (
	"redis-queue/pkg/store"
)

// NewMockQueue 基于内存存储的队列，Connect(ctx, nil) 不会失败
//
// 去重只在本进程内有效。Close 之后可以再次 Connect，已入队的数据仍然保留。
func NewMockQueue(name string, opts ...Option) *Queue {
	mem := store.NewMemoryStore()
	opts = append([]Option{
		WithNamespace("mock_queue"),
		WithDialer(StoreDialer(mem)),
	}, opts...)
	return New(name, opts...)
}
