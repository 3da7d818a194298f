package journal

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Record inserts e unless an entry with the same Seq is already stored.
func (j *SQLite) Record(e Entry) error {
	_, err := j.db.Exec(`
		INSERT OR IGNORE INTO history (seq, day, description, recorded_at)
		VALUES (?, ?, ?, ?)`,
		e.Seq, e.Day, e.Description, e.RecordedAt.UTC(),
	)
	return err
}

// Get returns a single entry by sequence number.
func (j *SQLite) Get(seq uint64) (Entry, error) {
	var e Entry
	err := j.db.QueryRow(`
		SELECT seq, day, description, recorded_at
		FROM history
		WHERE seq = ?`, seq).Scan(&e.Seq, &e.Day, &e.Description, &e.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, fmt.Errorf("entry %d not found", seq)
		}
		return Entry{}, err
	}
	return e, nil
}

// ListBetween returns entries whose day is within [startDay, endDay].
func (j *SQLite) ListBetween(startDay, endDay int) ([]Entry, error) {
	return j.query(`
		SELECT seq, day, description, recorded_at
		FROM history
		WHERE day >= ? AND day <= ?
		ORDER BY seq ASC`, startDay, endDay)
}

// Tail returns the last n entries, oldest first.
func (j *SQLite) Tail(n int) ([]Entry, error) {
	return j.query(`
		SELECT seq, day, description, recorded_at FROM (
			SELECT seq, day, description, recorded_at
			FROM history
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC`, n)
}

// Count returns the number of stored entries.
func (j *SQLite) Count() (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&n)
	return n, err
}

func (j *SQLite) query(q string, args ...any) ([]Entry, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Day, &e.Description, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
