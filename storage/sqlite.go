package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	var bank string
	err := s.db.QueryRowContext(ctx, `SELECT bank FROM snapshots WHERE id = 1`).Scan(&bank)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Snapshot{}, fmt.Errorf("load bank: %w", err)
	default:
		if err := json.Unmarshal([]byte(bank), &snap.Bank); err != nil {
			return Snapshot{}, fmt.Errorf("decode bank: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, record FROM customers ORDER BY id`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int
			doc string
			rec CustomerRecord
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return Snapshot{}, err
		}
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return Snapshot{}, fmt.Errorf("decode customer %d: %w", id, err)
		}
		if snap.Customers == nil {
			snap.Customers = make(map[int]CustomerRecord)
		}
		snap.Customers[id] = rec
	}
	return snap, rows.Err()
}

// Save replaces the stored snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	bank, err := json.Marshal(snap.Bank)
	if err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, day, saved_at, bank) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET day = excluded.day, saved_at = excluded.saved_at, bank = excluded.bank`,
		snap.Bank.Day, s.now().UTC(), string(bank),
	); err != nil {
		return fmt.Errorf("save bank: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers`); err != nil {
		return fmt.Errorf("save customers: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO customers (id, record) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, rec := range snap.Customers {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode customer %d: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(doc)); err != nil {
			return fmt.Errorf("save customer %d: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
