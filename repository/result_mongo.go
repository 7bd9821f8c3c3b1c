package repository

import (
	"context"
	"fmt"
	"time"

	"redis-queue/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type resultMongoRepository struct {
	collection *mongo.Collection
}

// ErrResultNotFound is returned when no record exists for a uid.
var ErrResultNotFound = fmt.Errorf("result not found")

func NewResultMongoRepository(collection *mongo.Collection) ResultRepository {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// uid 索引
	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "uid", Value: 1}, {Key: "completed_at", Value: -1}},
	})

	// queue + completed_at 索引（用于按队列分页）
	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "queue", Value: 1}, {Key: "completed_at", Value: -1}},
	})

	// expire_at TTL 索引（自动删除过期记录）
	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expire_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})

	return &resultMongoRepository{
		collection: collection,
	}
}

// Create 归档结果
func (r *resultMongoRepository) Create(ctx context.Context, record *model.ResultRecord) error {
	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to archive result: %w", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = id
	}
	return nil
}

// GetByUID 通过任务ID获取最近一次的结果
func (r *resultMongoRepository) GetByUID(ctx context.Context, uid string) (*model.ResultRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "completed_at", Value: -1}})

	var record model.ResultRecord
	err := r.collection.FindOne(ctx, bson.M{"uid": uid}, opts).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &record, nil
}

// ListByQueue 获取队列的结果列表
func (r *resultMongoRepository) ListByQueue(ctx context.Context, queue string, limit, offset int) ([]*model.ResultRecord, error) {
	filter := bson.M{"queue": queue}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "completed_at", Value: -1}}) // 最新的在前

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.ResultRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	return records, nil
}

// DeleteExpired 删除过期记录（备用，通常由 TTL 索引自动处理）
func (r *resultMongoRepository) DeleteExpired(ctx context.Context) (int64, error) {
	filter := bson.M{"expire_at": bson.M{"$lt": time.Now()}}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired results: %w", err)
	}
	return result.DeletedCount, nil
}
