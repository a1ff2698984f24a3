package booking

import (
	"context"
	"sync"
)

// Locker guards the critical section of booking one slot.
// redisclient.SlotLocker satisfies it for multi-replica deployments.
type Locker interface {
	WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// LocalLocker is an in-process Locker. Waiters block until the slot frees
// up or ctx is done.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slotLock
}

type slotLock struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slotLock)}
}

func (l *LocalLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	sl := l.acquireRef(key)
	defer l.releaseRef(key, sl)

	select {
	case sl.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sl.sem }()

	return fn(ctx)
}

func (l *LocalLocker) acquireRef(key string) *slotLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl, ok := l.slots[key]
	if !ok {
		sl = &slotLock{sem: make(chan struct{}, 1)}
		l.slots[key] = sl
	}
	sl.refs++
	return sl
}

func (l *LocalLocker) releaseRef(key string, sl *slotLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sl.refs--
	if sl.refs == 0 {
		delete(l.slots, key)
	}
}

func slotKey(stylistID, date, clock string) string {
	return stylistID + "|" + date + "|" + clock
}
