package store

import (
	"context"
	"testing"
	"time"

	qerrors "redis-queue/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fixture is one Store under test plus a way to move its clock forward.
type fixture struct {
	store   Store
	advance func(time.Duration)
	// shortest blocking wait the backend honours
	minBlock time.Duration
}

func newMemoryFixture(t *testing.T) fixture {
	t.Helper()
	s := NewMemoryStore()
	var offset time.Duration
	s.SetClock(func() time.Time { return time.Now().Add(offset) })
	return fixture{
		store:    s,
		advance:  func(d time.Duration) { offset += d },
		minBlock: 50 * time.Millisecond,
	}
}

func newRedisFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return fixture{
		store:    NewRedisStore(client),
		advance:  mr.FastForward,
		minBlock: time.Second,
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, f fixture)) {
	t.Run("memory", func(t *testing.T) { fn(t, newMemoryFixture(t)) })
	t.Run("redis", func(t *testing.T) { fn(t, newRedisFixture(t)) })
}

func TestListIsFIFO(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		for _, v := range []string{"a", "b", "c"} {
			if err := f.store.ListPush(ctx, "l", []byte(v)); err != nil {
				t.Fatalf("push: %v", err)
			}
		}
		n, err := f.store.ListLen(ctx, "l")
		if err != nil || n != 3 {
			t.Fatalf("len: %d %v", n, err)
		}
		for _, want := range []string{"a", "b", "c"} {
			got, ok, err := f.store.ListPop(ctx, "l")
			if err != nil || !ok || string(got) != want {
				t.Fatalf("pop: got %q %v %v, want %q", got, ok, err, want)
			}
		}
		if _, ok, err := f.store.ListPop(ctx, "l"); ok || err != nil {
			t.Fatalf("pop on empty list: ok=%v err=%v", ok, err)
		}
	})
}

func TestBlockingPop(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()

		start := time.Now()
		_, ok, err := f.store.ListBlockingPop(ctx, "empty", f.minBlock)
		if err != nil || ok {
			t.Fatalf("timeout pop: ok=%v err=%v", ok, err)
		}
		if time.Since(start) < f.minBlock/2 {
			t.Fatalf("blocking pop returned too early")
		}

		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = f.store.ListPush(context.Background(), "later", []byte("v"))
		}()
		got, ok, err := f.store.ListBlockingPop(ctx, "later", 5*time.Second)
		if err != nil || !ok || string(got) != "v" {
			t.Fatalf("blocking pop: %q %v %v", got, ok, err)
		}
	})
}

func TestSetOperations(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()

		added, err := f.store.SetAdd(ctx, "s", "h1")
		if err != nil || !added {
			t.Fatalf("first add: %v %v", added, err)
		}
		added, err = f.store.SetAdd(ctx, "s", "h1")
		if err != nil || added {
			t.Fatalf("second add should report existing member: %v %v", added, err)
		}
		if ok, _ := f.store.SetContains(ctx, "s", "h1"); !ok {
			t.Fatalf("member missing")
		}
		removed, err := f.store.SetRemove(ctx, "s", "h1")
		if err != nil || !removed {
			t.Fatalf("remove: %v %v", removed, err)
		}
		removed, _ = f.store.SetRemove(ctx, "s", "h1")
		if removed {
			t.Fatalf("second remove should report absent member")
		}
		if ok, _ := f.store.SetContains(ctx, "s", "h1"); ok {
			t.Fatalf("member still present")
		}
	})
}

func TestPushWithTTLExpires(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		if err := f.store.ListPushWithTTL(ctx, "r", []byte(`{"a":1}`), 10*time.Second); err != nil {
			t.Fatalf("push: %v", err)
		}
		if n, _ := f.store.ListLen(ctx, "r"); n != 1 {
			t.Fatalf("len before expiry: %d", n)
		}
		f.advance(11 * time.Second)
		if _, ok, _ := f.store.ListPop(ctx, "r"); ok {
			t.Fatalf("value survived its ttl")
		}
	})
}

func TestDeleteRemovesListsAndSets(t *testing.T) {
	forEachStore(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		_ = f.store.ListPush(ctx, "l", []byte("x"))
		_, _ = f.store.SetAdd(ctx, "s", "m")

		if err := f.store.Delete(ctx, "l", "s", "missing"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if n, _ := f.store.ListLen(ctx, "l"); n != 0 {
			t.Fatalf("list survived delete")
		}
		if ok, _ := f.store.SetContains(ctx, "s", "m"); ok {
			t.Fatalf("set survived delete")
		}
	})
}

func TestClosedStoreReportsConnectionError(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		done := make(chan error, 1)
		go func() {
			_, _, err := s.ListBlockingPop(context.Background(), "k", 0)
			done <- err
		}()
		time.Sleep(20 * time.Millisecond)
		_ = s.Close()

		select {
		case err := <-done:
			if !qerrors.IsConnection(err) {
				t.Fatalf("blocked pop: want connection error, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("close did not wake blocked pop")
		}
		if err := s.Ping(context.Background()); !qerrors.IsConnection(err) {
			t.Fatalf("ping: want connection error, got %v", err)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := DialRedis(context.Background(), Options{Addr: addr, MaxRetries: 1})
		if !qerrors.IsConnection(err) {
			t.Fatalf("dial: want connection error, got %v", err)
		}
	})
}

func TestRedisServerErrorIsNotConnectionError(t *testing.T) {
	f := newRedisFixture(t)
	ctx := context.Background()
	_ = f.store.ListPush(ctx, "k", []byte("v"))

	// SADD on a list key fails with WRONGTYPE
	_, err := f.store.SetAdd(ctx, "k", "m")
	if err == nil {
		t.Fatalf("expected WRONGTYPE error")
	}
	if qerrors.IsConnection(err) {
		t.Fatalf("server reply misreported as connection error: %v", err)
	}
}

func TestBlockingPopHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, ok, err := s.ListBlockingPop(ctx, "k", 0)
	if ok || err != context.DeadlineExceeded {
		t.Fatalf("want deadline exceeded, got ok=%v err=%v", ok, err)
	}
}
