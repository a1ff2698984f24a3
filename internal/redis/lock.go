package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("slot lock not acquired")

// SlotLocker serialises bookings of one (stylist, date, time) slot across
// api-server replicas.
type SlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSlotLocker(client *redis.Client, ttl time.Duration) *SlotLocker {
	return &SlotLocker{client: client, ttl: ttl}
}

// WithSlotLock runs fn while holding the lock for key. fn's context expires
// with the lock so work never outlives ownership.
func (l *SlotLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := "lock:slot:" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		// release on a fresh context so a cancelled request still unlocks
		relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.release(relCtx, lockKey, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *SlotLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slot lock: %w", err)
	}
	return nil
}
