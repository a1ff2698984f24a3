package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotStore keeps the appointment snapshot as one row of the snapshots table.
type SnapshotStore struct {
	pool *pgxpool.Pool
	name string
}

func NewSnapshotStore(pool *pgxpool.Pool, name string) *SnapshotStore {
	return &SnapshotStore{pool: pool, name: name}
}

func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data::text
		FROM snapshots
		WHERE name = $1
	`, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot %s: %w", s.name, err)
	}
	return data, nil
}

func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO snapshots (name, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE
		SET data = EXCLUDED.data,
		    updated_at = now()
	`, s.name, string(data))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.name, err)
	}
	return nil
}
