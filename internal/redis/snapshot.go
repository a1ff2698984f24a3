package redisclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps the appointment snapshot under one Redis key.
type SnapshotStore struct {
	client *redis.Client
	key    string
}

func NewSnapshotStore(client *redis.Client, key string) *SnapshotStore {
	return &SnapshotStore{client: client, key: key}
}

func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot %s: %w", s.key, err)
	}
	return data, nil
}

func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot %s: %w", s.key, err)
	}
	return nil
}
