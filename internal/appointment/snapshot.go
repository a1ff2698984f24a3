package appointment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Snapshotter persists the full appointment list as one opaque blob.
// Load returns nil data when nothing has been saved yet.
type Snapshotter interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// MemorySnapshotter keeps the snapshot in process. Used in dev and tests.
type MemorySnapshotter struct {
	mu   sync.Mutex
	data []byte
	// SaveErr, when set, is returned from every Save.
	SaveErr error
	saves   int
}

func NewMemorySnapshotter(initial []byte) *MemorySnapshotter {
	return &MemorySnapshotter{data: initial}
}

func (m *MemorySnapshotter) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemorySnapshotter) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

// Saves reports how many times Save was called.
func (m *MemorySnapshotter) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FileSnapshotter writes the snapshot to a single JSON file. Writes go to a
// temp file in the same directory and are renamed into place.
type FileSnapshotter struct {
	path string
}

func NewFileSnapshotter(path string) *FileSnapshotter {
	return &FileSnapshotter{path: path}
}

func (f *FileSnapshotter) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", f.path, err)
	}
	return data, nil
}

func (f *FileSnapshotter) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
