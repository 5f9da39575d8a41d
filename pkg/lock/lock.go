// Package lock guards a monitor run against overlapping runs in other
// processes. Without a Redis address every lock is a no-op.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRetryDelay = 200 * time.Millisecond
	DefaultMaxRetries = 5
)

var (
	// ErrLockNotAcquired is returned when another holder keeps the lease.
	ErrLockNotAcquired = errors.New("lock not acquired")

	// ErrLockNotHeld is returned when releasing a lease this holder lost.
	ErrLockNotHeld = errors.New("lock not held")
)

// Locker is a run-scoped mutual exclusion.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Nop always succeeds.
type Nop struct{}

func (Nop) Lock(context.Context) error   { return nil }
func (Nop) Unlock(context.Context) error { return nil }

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLock is a lease stored under one key with a per-holder token.
// The TTL bounds how long a crashed holder can block others.
type RedisLock struct {
	client     *redis.Client
	key        string
	token      string
	ttl        time.Duration
	retryDelay time.Duration
	maxRetries int
}

func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = models.DefaultLockKey
	}
	if ttl <= 0 {
		ttl = models.DefaultLockTTL
	}
	return &RedisLock{
		client:     client,
		key:        key,
		token:      uuid.New().String(),
		ttl:        ttl,
		retryDelay: DefaultRetryDelay,
		maxRetries: DefaultMaxRetries,
	}
}

// Lock retries a few times before giving up with ErrLockNotAcquired.
func (l *RedisLock) Lock(ctx context.Context) error {
	for i := range l.maxRetries {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if i < l.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.retryDelay):
			}
		}
	}
	return ErrLockNotAcquired
}

func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Unlock deletes the key only if it still carries this holder's token.
func (l *RedisLock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (l *RedisLock) Key() string { return l.key }

// New returns Nop when cfg has no Redis address. Otherwise it connects,
// pings and returns a RedisLock plus a closer for the client.
func New(ctx context.Context, cfg models.LockConfig) (Locker, func() error, error) {
	if cfg.RedisAddr == "" {
		return Nop{}, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	return NewRedisLock(client, cfg.Key, cfg.TTL), client.Close, nil
}
