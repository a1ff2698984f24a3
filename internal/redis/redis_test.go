package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", "")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSlotLockerExcludesConcurrentHolders(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	locker := NewSlotLocker(client, 5*time.Second)

	err := locker.WithSlotLock(ctx, "S1|2024-01-15|10:00", func(ctx context.Context) error {
		if !mr.Exists("lock:slot:S1|2024-01-15|10:00") {
			t.Fatal("lock key missing while held")
		}
		inner := locker.WithSlotLock(ctx, "S1|2024-01-15|10:00", func(context.Context) error { return nil })
		if !errors.Is(inner, ErrLockNotAcquired) {
			t.Fatalf("expected ErrLockNotAcquired, got %v", inner)
		}
		other := locker.WithSlotLock(ctx, "S1|2024-01-15|10:30", func(context.Context) error { return nil })
		if other != nil {
			t.Fatalf("different slot should lock independently, got %v", other)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSlotLock failed: %v", err)
	}
	if mr.Exists("lock:slot:S1|2024-01-15|10:00") {
		t.Fatal("lock was not released")
	}
}

func TestSlotLockerPropagatesError(t *testing.T) {
	_, client := newTestClient(t)
	locker := NewSlotLocker(client, time.Second)
	boom := errors.New("boom")

	err := locker.WithSlotLock(context.Background(), "k", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
}

func TestSlotLockerKeepsForeignToken(t *testing.T) {
	mr, client := newTestClient(t)
	locker := NewSlotLocker(client, time.Second)

	err := locker.WithSlotLock(context.Background(), "k", func(context.Context) error {
		// simulate expiry and takeover by another replica
		mr.Set("lock:slot:k", "someone-else")
		return nil
	})
	if err != nil {
		t.Fatalf("WithSlotLock failed: %v", err)
	}
	if got, _ := mr.Get("lock:slot:k"); got != "someone-else" {
		t.Fatalf("release removed a lock it did not own, value=%q", got)
	}
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	snap := NewSnapshotStore(client, "salon_appointments")

	data, err := snap.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("expected empty slot, got %q %v", data, err)
	}

	if err := snap.Save(ctx, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err = snap.Load(ctx)
	if err != nil || string(data) != `[{"id":"a"}]` {
		t.Fatalf("unexpected snapshot %q %v", data, err)
	}
}

func TestConnectFailsFast(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Connect(context.Background(), addr, "", ""); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
