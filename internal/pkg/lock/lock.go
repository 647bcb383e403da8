package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/niwatnet1979-coder/168vsc-inventory-service/internal/pkg/cache"
)

// Locker serializes read-modify-write sections keyed by an arbitrary string
// (the ledger uses one key per variant). Lock either acquires the key or
// fails; there is no blocking wait beyond the impl's own retry policy.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlocker, error)
}

// Unlocker releases a held lock.
type Unlocker func()

// ErrLockBusy is returned when a lock cannot be acquired within the retry budget.
type busyError struct{ key string }

func (e *busyError) Error() string { return "lock busy: " + e.key }

func IsBusy(err error) bool {
	_, ok := err.(*busyError)
	return ok
}

// RedisLocker takes distributed locks through Redis SET NX. Suitable when
// multiple service instances write against the same store.
type RedisLocker struct {
	cache    *cache.RedisClient
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

func NewRedisLocker(c *cache.RedisClient) *RedisLocker {
	return &RedisLocker{
		cache:    c,
		ttl:      5 * time.Second,
		attempts: 3,
		backoff:  100 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlocker, error) {
	value := uuid.New().String()
	for i := 0; i < l.attempts; i++ {
		ok, err := l.cache.AcquireLock(ctx, key, value, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = l.cache.ReleaseLock(context.Background(), key, value)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	return nil, &busyError{key: key}
}

// KeyMutex is an in-process Locker. Used in tests and single-instance
// deployments where a distributed lock is unnecessary.
type KeyMutex struct {
	mu      sync.Mutex
	mutexes map[string]*sync.Mutex
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{mutexes: make(map[string]*sync.Mutex)}
}

func (l *KeyMutex) Lock(ctx context.Context, key string) (Unlocker, error) {
	l.mu.Lock()
	m, ok := l.mutexes[key]
	if !ok {
		m = &sync.Mutex{}
		l.mutexes[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
