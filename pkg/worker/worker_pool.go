package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	qerrors "redis-queue/errors"
	"redis-queue/model"
	"redis-queue/pkg/logger"
	"redis-queue/pkg/metrics"
	"redis-queue/pkg/queue"
	"redis-queue/repository"
)

// 回写给生产者的结果状态
const (
	ReplyStatusOK     = "ok"
	ReplyStatusFailed = "failed"
)

// Handler processes one task and returns the result sent back to the producer.
type Handler func(ctx context.Context, task *model.Task) (map[string]any, error)

// Options 工作池参数
type Options struct {
	BlockTimeout time.Duration // 阻塞出队等待时间
	ResultTTL    time.Duration // 结果通道过期时间
	Retention    time.Duration // 归档记录保留时间
	RetryBackoff time.Duration // 出队出错后的等待时间
}

func (o *Options) setDefaults() {
	if o.BlockTimeout <= 0 {
		o.BlockTimeout = 5 * time.Second
	}
	if o.ResultTTL <= 0 {
		o.ResultTTL = queue.DefaultResultTTL
	}
	if o.Retention <= 0 {
		o.Retention = 7 * 24 * time.Hour
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
}

type WorkerPool struct {
	workerCount int
	queue       queue.TaskQueue
	handler     Handler
	archive     repository.ResultRepository
	opts        Options
	metrics     *metrics.QueueMetrics
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewWorkerPool archive 可以为 nil
func NewWorkerPool(workerCount int, q queue.TaskQueue, handler Handler, archive repository.ResultRepository, opts Options) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	opts.setDefaults()
	if workerCount <= 0 {
		workerCount = 1
	}

	return &WorkerPool{
		workerCount: workerCount,
		queue:       q,
		handler:     handler,
		archive:     archive,
		opts:        opts,
		metrics:     metrics.GetMetrics(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (wp *WorkerPool) Start() {
	logger.Infof("Starting worker pool with %d workers on queue %s", wp.workerCount, wp.queue.Name())

	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) Stop() {
	logger.Info("Stopping worker pool...")
	wp.cancel()
	wp.wg.Wait()
	logger.Info("Worker pool stopped")
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	logger.Infof("Worker %d started", id)

	for {
		select {
		case <-wp.ctx.Done():
			logger.Infof("Worker %d stopped", id)
			return
		default:
		}

		task, err := wp.queue.Get(wp.ctx, true, wp.opts.BlockTimeout)
		if err != nil {
			if wp.ctx.Err() != nil {
				logger.Infof("Worker %d stopped", id)
				return
			}
			if qerrors.IsNotConnected(err) {
				logger.Errorf("Worker %d exiting: %v", id, err)
				return
			}
			logger.Errorf("Worker %d failed to dequeue task: %v", id, err)
			// 去重哈希释放失败时任务已经出队，仍然处理
			if task == nil {
				wp.backoff()
				continue
			}
		}
		if task == nil {
			continue
		}

		wp.processTask(id, task)
	}
}

func (wp *WorkerPool) backoff() {
	select {
	case <-wp.ctx.Done():
	case <-time.After(wp.opts.RetryBackoff):
	}
}

func (wp *WorkerPool) processTask(workerID int, task *model.Task) {
	busy := wp.metrics.WorkersBusy.WithLabelValues(wp.queue.Name())
	busy.Inc()
	defer busy.Dec()

	record := model.NewResultRecord(wp.queue.Name(), task, wp.queue.HashOf(task), workerID, wp.opts.Retention)

	result, err := wp.handle(task)

	var reply map[string]any
	if err != nil {
		record.MarkFailed(err.Error())
		reply = map[string]any{
			"status": ReplyStatusFailed,
			"error":  err.Error(),
		}
		logger.Errorf("Worker %d task %s failed: %v", workerID, task.UID, err)
	} else {
		record.MarkSuccess(result)
		reply = map[string]any{
			"status": ReplyStatusOK,
			"result": result,
		}
		logger.Infof("Worker %d task %s succeeded", workerID, task.UID)
	}
	wp.metrics.TaskDuration.WithLabelValues(wp.queue.Name(), string(record.Status)).
		Observe(float64(record.Duration().Milliseconds()))

	// 结果写回结果通道，生产者通过 Job 读取
	sent, err := wp.queue.Send(context.Background(), task, reply, wp.opts.ResultTTL)
	if err != nil {
		logger.Errorf("Failed to send result of task %s: %v", task.UID, err)
	} else if !sent {
		logger.Errorf("Result of task %s was not sent", task.UID)
	}

	if wp.archive != nil {
		if err := wp.archive.Create(context.Background(), record); err != nil {
			logger.Errorf("Failed to archive result of task %s: %v", task.UID, err)
		}
	}
}

// handle 调用处理函数，panic 视为失败
func (wp *WorkerPool) handle(task *model.Task) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return wp.handler(wp.ctx, task)
}
