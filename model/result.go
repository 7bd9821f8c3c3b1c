package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResultStatus 任务处理结果状态
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success" // 成功
	ResultStatusFailed  ResultStatus = "failed"  // 失败
)

// ResultRecord 已处理任务的归档记录
type ResultRecord struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UID          string             `json:"uid" bson:"uid"`
	Queue        string             `json:"queue" bson:"queue"`
	Hash         string             `json:"hash,omitempty" bson:"hash,omitempty"` // 仅去重任务记录
	Payload      string             `json:"payload" bson:"payload"`
	Status       ResultStatus       `json:"status" bson:"status"`
	Result       map[string]any     `json:"result,omitempty" bson:"result,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty" bson:"error_message,omitempty"`
	WorkerID     int                `json:"worker_id" bson:"worker_id"`

	StartedAt   time.Time `json:"started_at" bson:"started_at"`
	CompletedAt time.Time `json:"completed_at" bson:"completed_at"`
	ExpireAt    time.Time `json:"expire_at" bson:"expire_at"` // 过期时间（用于 TTL 索引自动清理）
}

// NewResultRecord 创建归档记录，hash 为队列计算的去重哈希，只对去重任务记录
func NewResultRecord(queue string, task *Task, hash string, workerID int, retention time.Duration) *ResultRecord {
	now := time.Now()
	r := &ResultRecord{
		UID:       task.UID,
		Queue:     queue,
		Payload:   string(task.Payload),
		WorkerID:  workerID,
		StartedAt: now,
		ExpireAt:  now.Add(retention),
	}
	if task.Unique {
		r.Hash = hash
	}
	return r
}

// MarkSuccess 标记为成功
func (r *ResultRecord) MarkSuccess(result map[string]any) {
	r.Status = ResultStatusSuccess
	r.Result = result
	r.CompletedAt = time.Now()
}

// MarkFailed 标记为失败
func (r *ResultRecord) MarkFailed(errorMsg string) {
	r.Status = ResultStatusFailed
	r.ErrorMessage = errorMsg
	r.CompletedAt = time.Now()
}

// Duration 处理耗时
func (r *ResultRecord) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
