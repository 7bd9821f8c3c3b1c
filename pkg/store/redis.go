package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	qerrors "redis-queue/errors"

	"github.com/redis/go-redis/v9"
)

// Options Redis 连接配置
type Options struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

// RedisStore implements Store on a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// DialRedis 创建 Redis 客户端并检查连通性
func DialRedis(ctx context.Context, opts Options) (*RedisStore, error) {
	if opts.PoolSize == 0 {
		opts.PoolSize = 100
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = 10
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	})

	s := NewRedisStore(client)
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// Client returns the underlying client.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return qerrors.NewConnectionError(fmt.Errorf("failed to connect to Redis: %w", err))
	}
	return nil
}

// ListPush 左进
func (s *RedisStore) ListPush(ctx context.Context, key string, value []byte) error {
	if err := s.client.LPush(ctx, key, value).Err(); err != nil {
		return wrapErr("LPUSH", key, err)
	}
	return nil
}

func (s *RedisStore) ListPushWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, value)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return wrapErr("LPUSH+EXPIRE", key, err)
	}
	return nil
}

// ListPop 右出
func (s *RedisStore) ListPop(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.RPop(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, wrapErr("RPOP", key, err)
	}
	return data, true, nil
}

// ListBlockingPop BRPOP，超时返回 ok=false
func (s *RedisStore) ListBlockingPop(ctx context.Context, key string, timeout time.Duration) ([]byte, bool, error) {
	result, err := s.client.BRPop(ctx, timeout, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, wrapErr("BRPOP", key, err)
	}

	// result[0] 是 key，result[1] 是 value
	if len(result) < 2 {
		return nil, false, fmt.Errorf("invalid BRPOP result for %s", key)
	}
	return []byte(result[1]), true, nil
}

func (s *RedisStore) ListLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, wrapErr("LLEN", key, err)
	}
	return n, nil
}

func (s *RedisStore) SetAdd(ctx context.Context, key, member string) (bool, error) {
	n, err := s.client.SAdd(ctx, key, member).Result()
	if err != nil {
		return false, wrapErr("SADD", key, err)
	}
	return n == 1, nil
}

func (s *RedisStore) SetContains(ctx context.Context, key, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, wrapErr("SISMEMBER", key, err)
	}
	return ok, nil
}

func (s *RedisStore) SetRemove(ctx context.Context, key, member string) (bool, error) {
	n, err := s.client.SRem(ctx, key, member).Result()
	if err != nil {
		return false, wrapErr("SREM", key, err)
	}
	return n == 1, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return wrapErr("EXPIRE", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return wrapErr("DEL", keys[0], err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// wrapErr keeps server replies and context errors as they are and reports
// everything else as a connectivity failure.
func wrapErr(op, key string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var replyErr redis.Error
	if stderrors.As(err, &replyErr) {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
	return qerrors.NewConnectionError(fmt.Errorf("%s %s: %w", op, key, err))
}
