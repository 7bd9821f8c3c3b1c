package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Job is the producer's handle on a task's result channel.
//
// The first successful read pops the value, deletes the channel and caches
// the value; later reads return the cache without touching the store.
type Job struct {
	UID string

	queue *Queue

	mu     sync.Mutex
	done   bool
	result map[string]any
}

// Result returns the result, or nil if none has been sent yet.
func (j *Job) Result(ctx context.Context) (map[string]any, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.done {
		return j.result, nil
	}

	db, err := j.queue.session()
	if err != nil {
		return nil, err
	}

	key := j.queue.ResultKey(j.UID)
	data, ok, err := db.ListPop(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return j.consumeLocked(ctx, data)
}

// Wait blocks up to timeout for the result, using the store's blocking pop
// on the result channel. A zero timeout waits until ctx is done; other
// timeouts are rounded up to whole seconds.
// It reports whether a result is available.
func (j *Job) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.done {
		return true, nil
	}

	db, err := j.queue.session()
	if err != nil {
		return false, err
	}

	data, ok, err := db.ListBlockingPop(ctx, j.queue.ResultKey(j.UID), blockTimeout(timeout))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if _, err := j.consumeLocked(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// Done reports whether the result has been read and cached.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

func (j *Job) consumeLocked(ctx context.Context, data []byte) (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result of job %s: %w", j.UID, err)
	}
	j.result = result
	j.done = true
	j.queue.metrics.ResultsReceived.WithLabelValues(j.queue.name).Inc()

	db, err := j.queue.session()
	if err != nil {
		return result, nil
	}
	if err := db.Delete(context.WithoutCancel(ctx), j.queue.ResultKey(j.UID)); err != nil {
		return result, fmt.Errorf("failed to delete result channel of job %s: %w", j.UID, err)
	}
	return result, nil
}
