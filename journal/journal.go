// Package journal is the bank's durable activity log: every history entry
// the engine publishes, kept forever, unlike the engine's own thirty-day
// window. Writers de-duplicate by sequence number so re-publishing after a
// restart never double-logs.
package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/banksim/bank"
)

type Entry struct {
	Seq         uint64
	Day         int
	Description string
	RecordedAt  time.Time
}

// FromHistory converts an engine history entry.
func FromHistory(h bank.HistoryEntry) Entry {
	return Entry{Seq: h.Seq, Day: h.Day, Description: h.Description}
}

type Journal interface {
	Record(Entry) error
	Close() error
}

// Reader queries a journal.
type Reader interface {
	Get(seq uint64) (Entry, error)
	ListBetween(startDay, endDay int) ([]Entry, error)
	Tail(n int) ([]Entry, error)
}

// Noop discards entries.
type Noop struct{}

func (Noop) Record(Entry) error { return nil }
func (Noop) Close() error       { return nil }

// Entries is an in-memory Reader over entries sorted by Seq, such as the
// contents of a CSV journal.
type Entries []Entry

func (es Entries) Get(seq uint64) (Entry, error) {
	for _, e := range es {
		if e.Seq == seq {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("entry %d not found", seq)
}

func (es Entries) ListBetween(startDay, endDay int) ([]Entry, error) {
	var out []Entry
	for _, e := range es {
		if e.Day >= startDay && e.Day <= endDay {
			out = append(out, e)
		}
	}
	return out, nil
}

func (es Entries) Tail(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	if n >= len(es) {
		return append([]Entry(nil), es...), nil
	}
	return append([]Entry(nil), es[len(es)-n:]...), nil
}
