package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker used when Redis is disabled and in tests
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), clock: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, ErrNotAcquired
	}
	exp := now.Add(ttl)
	l.held[key] = exp
	return &localHandle{owner: l, key: key, expires: exp}, nil
}

type localHandle struct {
	owner   *LocalLocker
	key     string
	expires time.Time
}

func (h *localHandle) Release(context.Context) error {
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	if exp, ok := h.owner.held[h.key]; ok && exp.Equal(h.expires) {
		delete(h.owner.held, h.key)
	}
	return nil
}
