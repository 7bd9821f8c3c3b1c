// Package store defines the backing store operations the queue relies on.
//
// Every method is a single atomic operation on the store. Nothing here
// combines operations into transactions except ListPushWithTTL, which
// writes a value and sets its expiry together.
package store

import (
	"context"
	"time"
)

// Store is the backing store capability contract.
//
// Lists are pushed at the head and popped from the tail, so a list used
// through ListPush and ListPop behaves as FIFO.
type Store interface {
	// Ping validates the session.
	Ping(ctx context.Context) error

	// ListPush pushes value onto the head of the list at key.
	ListPush(ctx context.Context, key string, value []byte) error
	// ListPushWithTTL pushes value and sets the key to expire after ttl.
	ListPushWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// ListPop pops from the tail without blocking. ok is false when the list is empty.
	ListPop(ctx context.Context, key string) (value []byte, ok bool, err error)
	// ListBlockingPop waits up to timeout for an item at the tail.
	// A zero timeout waits until an item arrives or ctx is done.
	// Redis counts the timeout in whole seconds; go-redis rounds anything
	// below one second up to one second.
	ListBlockingPop(ctx context.Context, key string, timeout time.Duration) (value []byte, ok bool, err error)
	// ListLen returns the length of the list at key.
	ListLen(ctx context.Context, key string) (int64, error)

	// SetAdd adds member and reports whether it was newly added.
	SetAdd(ctx context.Context, key, member string) (bool, error)
	// SetContains reports whether member is in the set.
	SetContains(ctx context.Context, key, member string) (bool, error)
	// SetRemove removes member and reports whether it was present.
	SetRemove(ctx context.Context, key, member string) (bool, error)

	// Expire sets a time to live on key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Delete removes keys of any type.
	Delete(ctx context.Context, keys ...string) error

	Close() error
}
