package repository

import (
	"context"

	"redis-queue/model"
)

// ResultRepository stores processed task results.
type ResultRepository interface {
	// Create archives one result record
	Create(ctx context.Context, record *model.ResultRecord) error

	// GetByUID returns the latest record for a task uid
	GetByUID(ctx context.Context, uid string) (*model.ResultRecord, error)

	// ListByQueue lists records of a queue, newest first
	ListByQueue(ctx context.Context, queue string, limit, offset int) ([]*model.ResultRecord, error)

	// DeleteExpired removes records past expire_at
	DeleteExpired(ctx context.Context) (int64, error)
}
