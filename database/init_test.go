package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"redis-queue/config"
	"redis-queue/model"
)

type countingRepo struct {
	sweeps atomic.Int32
	fail   bool
}

func (r *countingRepo) Create(ctx context.Context, record *model.ResultRecord) error { return nil }

func (r *countingRepo) GetByUID(ctx context.Context, uid string) (*model.ResultRecord, error) {
	return nil, nil
}

func (r *countingRepo) ListByQueue(ctx context.Context, queue string, limit, offset int) ([]*model.ResultRecord, error) {
	return nil, nil
}

func (r *countingRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.sweeps.Add(1)
	if r.fail {
		return 0, fmt.Errorf("server selection timeout")
	}
	return 2, nil
}

func runSweeper(t *testing.T, am *ArchiveManager, interval time.Duration) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		am.SweepExpired(ctx, interval)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("sweeper did not stop on cancel")
		}
	}
}

func TestSweepExpiredCallsRepository(t *testing.T) {
	for _, fail := range []bool{false, true} {
		repo := &countingRepo{fail: fail}
		stop := runSweeper(t, &ArchiveManager{ResultRepo: repo}, 10*time.Millisecond)

		deadline := time.Now().Add(2 * time.Second)
		for repo.sweeps.Load() < 3 {
			if time.Now().After(deadline) {
				t.Fatalf("fail=%v: %d sweeps, want at least 3", fail, repo.sweeps.Load())
			}
			time.Sleep(5 * time.Millisecond)
		}
		stop()
	}
}

func TestSweepExpiredDisabled(t *testing.T) {
	repo := &countingRepo{}

	// nil 管理器和非正的间隔都直接返回
	runSweeper(t, nil, time.Millisecond)()
	runSweeper(t, &ArchiveManager{ResultRepo: repo}, 0)()

	if n := repo.sweeps.Load(); n != 0 {
		t.Fatalf("disabled sweeper ran %d times", n)
	}
}

func TestArchiveManagerDisabled(t *testing.T) {
	am, err := NewArchiveManager(context.Background(), config.ArchiveConfig{Enabled: false})
	if err != nil || am != nil {
		t.Fatalf("disabled archive: %v %v", am, err)
	}
	if am.Repo() != nil {
		t.Fatalf("nil manager returned a repository")
	}
	if err := am.Close(context.Background()); err != nil {
		t.Fatalf("close nil manager: %v", err)
	}
}
