package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	BankFile      = "bank_data.json"
	CustomersFile = "customers.json"
)

// FileStore keeps a snapshot as two JSON documents in a directory: the bank
// record and the customer map keyed by id.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := ctx.Err(); err != nil {
		return snap, err
	}
	if err := readJSON(filepath.Join(f.dir, BankFile), &snap.Bank); err != nil {
		return Snapshot{}, err
	}
	if err := readJSON(filepath.Join(f.dir, CustomersFile), &snap.Customers); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Save writes both documents, each through a temporary file renamed into
// place so a crash never leaves a half-written file.
func (f *FileStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Customers == nil {
		snap.Customers = map[int]CustomerRecord{}
	}
	if err := writeJSON(filepath.Join(f.dir, BankFile), snap.Bank); err != nil {
		return err
	}
	return writeJSON(filepath.Join(f.dir, CustomersFile), snap.Customers)
}

func (f *FileStore) Close() error { return nil }

// readJSON leaves v untouched when path does not exist.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
