package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	qerrors "redis-queue/errors"
	"redis-queue/model"
	"redis-queue/pkg/logger"
	"redis-queue/pkg/metrics"
	"redis-queue/pkg/store"
)

const (
	DefaultNamespace = "redisqueue"
	DefaultResultTTL = 60 * time.Second
)

// Dialer opens a backing store session.
type Dialer func(ctx context.Context) (store.Store, error)

// RedisDialer dials a Redis server.
func RedisDialer(opts store.Options) Dialer {
	return func(ctx context.Context) (store.Store, error) {
		return store.DialRedis(ctx, opts)
	}
}

// StoreDialer reuses an already opened store after probing it.
// The caller keeps ownership: closing or reconnecting the queue leaves s open.
func StoreDialer(s store.Store) Dialer {
	return func(ctx context.Context) (store.Store, error) {
		if err := s.Ping(ctx); err != nil {
			return nil, err
		}
		return borrowedStore{Store: s}, nil
	}
}

// borrowedStore 由调用方持有的存储，Close 不关闭底层连接
type borrowedStore struct {
	store.Store
}

func (borrowedStore) Close() error { return nil }

// HashFunc computes the deduplication hash of a task.
type HashFunc func(*model.Task) string

// Option configures a Queue.
type Option func(*Queue)

// WithNamespace sets the key prefix. Default "redisqueue".
func WithNamespace(namespace string) Option {
	return func(q *Queue) {
		q.namespace = namespace
	}
}

// WithHasher replaces the default payload hash.
func WithHasher(fn HashFunc) Option {
	return func(q *Queue) {
		q.hasher = fn
	}
}

// WithDialer sets the dialer used when Connect is called with nil.
func WithDialer(dial Dialer) Option {
	return func(q *Queue) {
		q.dial = dial
	}
}

// WithMetrics sets the collectors. Default is the process-wide set.
func WithMetrics(m *metrics.QueueMetrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// Queue 基于列表的任务队列（左进右出），去重哈希保存在同名的 :lock 集合中
//
// 去重保留（SADD）与入队（LPUSH）是两次独立的操作。进程在两者之间崩溃时，
// 哈希会一直留在锁集合中，之后相同哈希的任务都会被判定为重复，需要调用 Clear 恢复。
type Queue struct {
	name      string
	namespace string
	key       string
	lockKey   string
	hasher    HashFunc
	dial      Dialer
	metrics   *metrics.QueueMetrics

	mu sync.RWMutex
	db store.Store
}

// New 创建队列，不进行任何网络操作
func New(name string, opts ...Option) *Queue {
	q := &Queue{
		name:      name,
		namespace: DefaultNamespace,
		hasher:    (*model.Task).Hash,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.metrics == nil {
		q.metrics = metrics.GetMetrics()
	}
	q.key = fmt.Sprintf("%s:%s", q.namespace, q.name)
	q.lockKey = q.key + ":lock"

	logger.Debugf("Initializing queue [name: %s, namespace: %s]", q.name, q.namespace)
	return q
}

func (q *Queue) Name() string      { return q.name }
func (q *Queue) Namespace() string { return q.namespace }

// Key 任务列表的 key
func (q *Queue) Key() string { return q.key }

// LockKey 去重集合的 key
func (q *Queue) LockKey() string { return q.lockKey }

// HashOf 返回队列用于去重的哈希（受 WithHasher 影响）
func (q *Queue) HashOf(task *model.Task) string {
	return q.hasher(task)
}

// ResultKey 任务结果通道的 key
func (q *Queue) ResultKey(uid string) string {
	return q.key + ":result:" + uid
}

// Connect 建立存储会话。dial 为 nil 时使用 WithDialer 设置的默认值。
// 重复调用会替换原有会话，由 dial 打开的旧会话会被关闭。
func (q *Queue) Connect(ctx context.Context, dial Dialer) error {
	if dial == nil {
		dial = q.dial
	}
	if dial == nil {
		return qerrors.NewConnectionError(fmt.Errorf("no dialer configured for queue %s", q.name))
	}

	db, err := dial(ctx)
	if err != nil {
		logger.Errorf("Failed to connect queue %s: %v", q.name, err)
		if qerrors.IsConnection(err) {
			return err
		}
		return qerrors.NewConnectionError(err)
	}

	q.mu.Lock()
	old := q.db
	q.db = db
	q.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	logger.Debugf("Queue %s connected", q.key)
	return nil
}

// Connected reports whether Connect has succeeded.
func (q *Queue) Connected() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.db != nil
}

func (q *Queue) session() (store.Store, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.db == nil {
		return nil, qerrors.ErrNotConnected
	}
	return q.db, nil
}

// Size 返回队列当前长度
func (q *Queue) Size(ctx context.Context) (int64, error) {
	db, err := q.session()
	if err != nil {
		return 0, err
	}
	return db.ListLen(ctx, q.key)
}

// Put 将任务加入队列
//
// 去重任务先在锁集合中保留哈希，SADD 的返回值决定并发生产者中谁获得保留；
// 哈希已存在时返回 TaskAlreadyInQueueError，任务不入队。
// 没有 UID 的任务会被分配一个新的 UID。
func (q *Queue) Put(ctx context.Context, task *model.Task) (*Job, error) {
	db, err := q.session()
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task is nil")
	}
	if task.UID == "" {
		task.UID = model.NewUID()
	}

	// 先序列化，避免无效数据占用去重保留
	data, err := task.Encode()
	if err != nil {
		return nil, err
	}

	var hash string
	if task.Unique {
		hash = q.HashOf(task)
		added, err := db.SetAdd(ctx, q.lockKey, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve task hash: %w", err)
		}
		if !added {
			q.metrics.TasksDuplicate.WithLabelValues(q.name).Inc()
			return nil, &qerrors.TaskAlreadyInQueueError{Hash: hash}
		}
	}

	if err := db.ListPush(ctx, q.key, data); err != nil {
		if task.Unique {
			q.release(context.WithoutCancel(ctx), db, hash)
		}
		return nil, fmt.Errorf("failed to enqueue task %s: %w", task.UID, err)
	}

	q.metrics.TasksEnqueued.WithLabelValues(q.name, strconv.FormatBool(task.Unique)).Inc()
	return q.Job(task.UID), nil
}

// release 入队失败时尽力撤销去重保留
func (q *Queue) release(ctx context.Context, db store.Store, hash string) {
	if _, err := db.SetRemove(ctx, q.lockKey, hash); err != nil {
		logger.Errorf("Failed to release hash %s on %s after failed push: %v", hash, q.lockKey, err)
	}
}

// Get 从队列取出任务
//
// block 为 true 时最多等待 timeout（0 表示一直等待，不足整秒向上取整）。队列为空或超时返回 (nil, nil)。
// 去重任务在出队成功后释放哈希；释放失败时任务仍然返回，同时返回错误。
func (q *Queue) Get(ctx context.Context, block bool, timeout time.Duration) (*model.Task, error) {
	db, err := q.session()
	if err != nil {
		return nil, err
	}

	var (
		data []byte
		ok   bool
	)
	if block {
		data, ok, err = db.ListBlockingPop(ctx, q.key, blockTimeout(timeout))
	} else {
		data, ok, err = db.ListPop(ctx, q.key)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	task, err := model.DecodeTask(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode task from %s: %w", q.key, err)
	}
	q.metrics.TasksDequeued.WithLabelValues(q.name).Inc()

	if task.Unique {
		hash := q.HashOf(task)
		if _, err := db.SetRemove(context.WithoutCancel(ctx), q.lockKey, hash); err != nil {
			return task, fmt.Errorf("failed to release hash of task %s: %w", task.UID, err)
		}
	}

	return task, nil
}

// IsReserved reports whether hash currently holds a reservation.
func (q *Queue) IsReserved(ctx context.Context, hash string) (bool, error) {
	db, err := q.session()
	if err != nil {
		return false, err
	}
	return db.SetContains(ctx, q.lockKey, hash)
}

// Clear 清空任务列表和去重集合（谨慎使用！）
func (q *Queue) Clear(ctx context.Context) error {
	db, err := q.session()
	if err != nil {
		return err
	}
	if err := db.Delete(ctx, q.key, q.lockKey); err != nil {
		return fmt.Errorf("failed to clear queue %s: %w", q.key, err)
	}
	return nil
}

// Send 将结果写入任务的结果通道并设置过期时间
//
// result 必须能编码为 JSON 对象（map 或 struct），否则返回 false。
// ttl <= 0 时使用 DefaultResultTTL。
func (q *Queue) Send(ctx context.Context, task *model.Task, result any, ttl time.Duration) (bool, error) {
	db, err := q.session()
	if err != nil {
		return false, err
	}
	if task == nil || task.UID == "" {
		return false, nil
	}

	data, ok := encodeResult(result)
	if !ok {
		return false, nil
	}
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}

	if err := db.ListPushWithTTL(ctx, q.ResultKey(task.UID), data, ttl); err != nil {
		return false, fmt.Errorf("failed to send result of task %s: %w", task.UID, err)
	}

	q.metrics.ResultsSent.WithLabelValues(q.name).Inc()
	return true, nil
}

// Job 返回指定 UID 的结果句柄
func (q *Queue) Job(uid string) *Job {
	return &Job{
		UID:   uid,
		queue: q,
	}
}

// Close 关闭存储会话，之后的操作返回 ErrNotConnected
// StoreDialer 传入的存储只解除绑定，不会被关闭
func (q *Queue) Close() error {
	q.mu.Lock()
	db := q.db
	q.db = nil
	q.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}

// blockTimeout 阻塞等待按整秒计算，和 Redis BRPOP 的精度保持一致
func blockTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 || timeout%time.Second == 0 {
		return timeout
	}
	return timeout.Truncate(time.Second) + time.Second
}

func encodeResult(result any) ([]byte, bool) {
	if result == nil {
		return nil, false
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, false
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, false
	}
	return data, true
}
