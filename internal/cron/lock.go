package cron

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultLockTTL = 55 * time.Minute

// Lock coordinates exclusive maintenance cycles across worker instances.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type flagStore interface {
	AcquireFlag(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseFlag(ctx context.Context, key, token string) error
}

// RedisLock holds a Redis flag for the duration of one cycle.
type RedisLock struct {
	store flagStore
	key   string
	ttl   time.Duration
	token string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(store flagStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token, ok, err := l.store.AcquireFlag(ctx, l.key, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release is a no-op unless this instance still owns the flag.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	if err := l.store.ReleaseFlag(ctx, l.key, l.token); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	l.token = ""
	return nil
}
