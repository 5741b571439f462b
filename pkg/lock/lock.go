// Package lock provides short-lived distributed locks on Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the key
var ErrNotAcquired = errors.New("lock held by another worker")

// Release only deletes the key if the caller still owns it
const luaRelease = `
-- KEYS[1] = lock key
-- ARGV[1] = owner token
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

var releaseScript = redis.NewScript(luaRelease)

// Locker acquires and releases keyed locks
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Handle, error)
}

// Handle releases a lock obtained from a Locker
type Handle interface {
	Release(ctx context.Context) error
}

// RedisLocker implements Locker with SET NX PX
type RedisLocker struct {
	redis *redis.Client
}

// NewRedisLocker returns a Redis-backed locker. A nil client falls back to a
// process-local locker.
func NewRedisLocker(client *redis.Client) Locker {
	if client == nil {
		return NewLocalLocker()
	}
	return &RedisLocker{redis: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Handle, error) {
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return &redisHandle{redis: l.redis, key: key, token: token}, nil
}

// PreloadScripts loads the release script so EvalSha hits on first use
func (l *RedisLocker) PreloadScripts(ctx context.Context) error {
	if err := releaseScript.Load(ctx, l.redis).Err(); err != nil {
		return fmt.Errorf("failed to load lock release script: %w", err)
	}
	return nil
}

type redisHandle struct {
	redis *redis.Client
	key   string
	token string
}

func (h *redisHandle) Release(ctx context.Context) error {
	// Run tries EVALSHA first and falls back to EVAL on NOSCRIPT.
	// A zero result means the lock expired and may belong to someone else now
	if err := releaseScript.Run(ctx, h.redis, []string{h.key}, h.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", h.key, err)
	}
	return nil
}
