package store

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	qerrors "redis-queue/errors"
)

var errClosed = stderrors.New("memory store closed")

// MemoryStore is an in-process Store. It gives the same per-operation
// atomicity as Redis within one process and is used by the mock queue and
// in tests.
type MemoryStore struct {
	mu      sync.Mutex
	lists   map[string][][]byte // index 0 is the tail
	sets    map[string]map[string]struct{}
	expires map[string]time.Time
	notify  chan struct{}
	closed  bool

	now func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists:   make(map[string][][]byte),
		sets:    make(map[string]map[string]struct{}),
		expires: make(map[string]time.Time),
		notify:  make(chan struct{}),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for key expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkLocked()
}

func (s *MemoryStore) ListPush(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	s.pushLocked(key, value)
	return nil
}

func (s *MemoryStore) ListPushWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	s.pushLocked(key, value)
	s.expireLocked(key, ttl)
	return nil
}

func (s *MemoryStore) ListPop(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return nil, false, err
	}
	v, ok := s.popLocked(key)
	return v, ok, nil
}

func (s *MemoryStore) ListBlockingPop(ctx context.Context, key string, timeout time.Duration) ([]byte, bool, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		s.mu.Lock()
		if err := s.checkLocked(); err != nil {
			s.mu.Unlock()
			return nil, false, err
		}
		if v, ok := s.popLocked(key); ok {
			s.mu.Unlock()
			return v, true, nil
		}
		wait := s.notify
		s.mu.Unlock()

		select {
		case <-wait:
		case <-deadline:
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (s *MemoryStore) ListLen(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return 0, err
	}
	s.purgeLocked(key)
	return int64(len(s.lists[key])), nil
}

func (s *MemoryStore) SetAdd(ctx context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return false, err
	}
	s.purgeLocked(key)
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return false, nil
	}
	set[member] = struct{}{}
	return true, nil
}

func (s *MemoryStore) SetContains(ctx context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return false, err
	}
	s.purgeLocked(key)
	_, ok := s.sets[key][member]
	return ok, nil
}

func (s *MemoryStore) SetRemove(ctx context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return false, err
	}
	s.purgeLocked(key)
	set, ok := s.sets[key]
	if !ok {
		return false, nil
	}
	if _, exists := set[member]; !exists {
		return false, nil
	}
	delete(set, member)
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return true, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	s.expireLocked(key, ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(); err != nil {
		return err
	}
	for _, key := range keys {
		s.deleteLocked(key)
	}
	return nil
}

// Close makes every later operation fail with a connection error and
// wakes blocked pops.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.notify)
	}
	return nil
}

func (s *MemoryStore) checkLocked() error {
	if s.closed {
		return qerrors.NewConnectionError(errClosed)
	}
	return nil
}

func (s *MemoryStore) pushLocked(key string, value []byte) {
	s.purgeLocked(key)
	v := make([]byte, len(value))
	copy(v, value)
	s.lists[key] = append(s.lists[key], v)

	close(s.notify)
	s.notify = make(chan struct{})
}

func (s *MemoryStore) popLocked(key string) ([]byte, bool) {
	s.purgeLocked(key)
	list := s.lists[key]
	if len(list) == 0 {
		return nil, false
	}
	v := list[0]
	if len(list) == 1 {
		s.deleteLocked(key)
	} else {
		s.lists[key] = list[1:]
	}
	return v, true
}

func (s *MemoryStore) expireLocked(key string, ttl time.Duration) {
	if !s.existsLocked(key) {
		return
	}
	if ttl <= 0 {
		s.deleteLocked(key)
		return
	}
	s.expires[key] = s.now().Add(ttl)
}

func (s *MemoryStore) existsLocked(key string) bool {
	_, isList := s.lists[key]
	_, isSet := s.sets[key]
	return isList || isSet
}

func (s *MemoryStore) purgeLocked(key string) {
	at, ok := s.expires[key]
	if ok && !s.now().Before(at) {
		s.deleteLocked(key)
	}
}

func (s *MemoryStore) deleteLocked(key string) {
	delete(s.lists, key)
	delete(s.sets, key)
	delete(s.expires, key)
}
