package database

import (
	"context"
	"fmt"
	"time"

	"redis-queue/config"
	"redis-queue/pkg/logger"
	"redis-queue/repository"
)

// ArchiveManager owns the MongoDB connection behind the result archive
type ArchiveManager struct {
	MongoDB    *MongoDB
	ResultRepo repository.ResultRepository
}

// NewArchiveManager returns nil, nil when archiving is disabled
func NewArchiveManager(ctx context.Context, cfg config.ArchiveConfig) (*ArchiveManager, error) {
	if !cfg.Enabled {
		logger.Info("Result archive disabled")
		return nil, nil
	}

	logger.Infof("Connecting to MongoDB: %s/%s", cfg.URL, cfg.DB)
	mongoDB, err := NewMongoDB(ctx, cfg.URL, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	logger.Info("MongoDB connection established successfully")

	return &ArchiveManager{
		MongoDB:    mongoDB,
		ResultRepo: repository.NewResultMongoRepository(mongoDB.GetCollection(cfg.Collection)),
	}, nil
}

// Repo returns the archive repository, nil-safe
func (am *ArchiveManager) Repo() repository.ResultRepository {
	if am == nil {
		return nil
	}
	return am.ResultRepo
}

// Close closes all database connections
func (am *ArchiveManager) Close(ctx context.Context) error {
	if am == nil {
		return nil
	}
	logger.Info("Closing database connections...")
	err := am.MongoDB.Close(ctx)
	if err != nil {
		logger.Errorf("Error closing MongoDB connection: %v", err)
	} else {
		logger.Info("Database connections closed successfully")
	}
	return err
}

// SweepExpired 按 interval 删除过期的归档记录，直到 ctx 结束
// TTL 索引由 MongoDB 后台约每 60 秒清理一次，过期记录在此之前仍可查询
func (am *ArchiveManager) SweepExpired(ctx context.Context, interval time.Duration) {
	if am == nil || am.ResultRepo == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := am.ResultRepo.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Errorf("Failed to sweep expired results: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("Swept %d expired results", n)
			}
		}
	}
}
