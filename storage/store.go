package storage

import (
	"context"
	"fmt"
	"sync"
)

// Store loads and saves snapshots. Load on a store that has never been
// saved returns an empty Snapshot and no error.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config selects and locates a store. For the file driver Path is a
// directory; for sqlite it is the database file.
type Config struct {
	Driver string
	Path   string
}

// Open returns the store cfg describes.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFile, "":
		return NewFileStore(cfg.Path)
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// Memory keeps the last saved snapshot in memory.
type Memory struct {
	mu    sync.Mutex
	snap  Snapshot
	saves int
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *Memory) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.saves++
	return nil
}

// Saves reports how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }
