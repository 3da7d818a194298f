package journal

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/banksim/bank"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func entry(seq uint64, day int, desc string) Entry {
	return Entry{Seq: seq, Day: day, Description: desc, RecordedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = 'history'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "history", name)
}

func TestSQLiteRecordIsIdempotent(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	require.NoError(t, j.Record(entry(1, 0, "Customer 1 deposited $10.00 (had $0.00, now $10.00)")))
	require.NoError(t, j.Record(entry(1, 0, "duplicate")))
	require.NoError(t, j.Record(entry(2, 3, "Collected $5.00 in loan interest this month")))

	n, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := j.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Customer 1 deposited $10.00 (had $0.00, now $10.00)", got.Description)
	assert.True(t, got.RecordedAt.Equal(entry(1, 0, "").RecordedAt))

	_, err = j.Get(99)
	assert.ErrorContains(t, err, "not found")
}

func TestSQLiteQueries(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	for i := 1; i <= 10; i++ {
		require.NoError(t, j.Record(entry(uint64(i), i/2, "e")))
	}

	between, err := j.ListBetween(2, 3)
	require.NoError(t, err)
	require.Len(t, between, 4)
	assert.Equal(t, uint64(4), between[0].Seq)
	assert.Equal(t, uint64(7), between[3].Seq)

	tail, err := j.Tail(3)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	assert.Equal(t, []uint64{8, 9, 10}, []uint64{tail[0].Seq, tail[1].Seq, tail[2].Seq})
}

func TestCSVJournalAppendsAndResumes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(entry(1, 0, "first, with a comma")))
	require.NoError(t, j.Record(entry(2, 1, "second")))
	require.NoError(t, j.Close())

	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(entry(2, 1, "second again")))
	require.NoError(t, j.Record(entry(3, 2, "third")))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "seq,day,recorded_at,description"))

	entries, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "first, with a comma", entries[0].Description)
	assert.Equal(t, "third", entries[2].Description)
	assert.Equal(t, 2, entries[2].Day)
}

type flakyJournal struct {
	mu      sync.Mutex
	got     []Entry
	fail    uint64
	closed  bool
	release chan struct{}
}

func (f *flakyJournal) Record(e Entry) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.Seq == f.fail {
		return errors.New("disk full")
	}
	f.got = append(f.got, e)
	return nil
}

func (f *flakyJournal) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestPumpDrainsOnClose(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	fj := &flakyJournal{fail: 3, release: release}
	p := NewPump(fj, zerolog.Nop())

	for i := 1; i <= 50; i++ {
		p.Publish(entry(uint64(i), i, "e"))
	}
	written, _ := p.Stats()
	assert.Zero(t, written, "writer is stalled but Publish returned")

	close(release)
	require.NoError(t, p.Close())

	assert.True(t, fj.closed)
	assert.Len(t, fj.got, 49)
	written, failed := p.Stats()
	assert.Equal(t, 49, written)
	assert.Equal(t, 1, failed)
	assert.Zero(t, p.Pending())

	p.Publish(entry(51, 51, "late"))
	assert.Zero(t, p.Pending())
	assert.NoError(t, p.Close())
}

func TestPumpStampsTime(t *testing.T) {
	t.Parallel()

	fj := &flakyJournal{}
	p := NewPump(fj, zerolog.Nop())
	fixed := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.Publish(FromHistory(bank.HistoryEntry{Seq: 4, Day: 2, Description: "x"}))
	require.NoError(t, p.Close())

	require.Len(t, fj.got, 1)
	assert.Equal(t, fixed, fj.got[0].RecordedAt)
	assert.Equal(t, 2, fj.got[0].Day)
}

func TestFormatOrg(t *testing.T) {
	t.Parallel()

	out, err := FormatOrg("Bank journal", []Entry{
		entry(1, 0, "opened"),
		entry(2, 0, "deposit"),
		entry(3, 4, "payout"),
	})
	require.NoError(t, err)

	assert.Contains(t, out, "#+TITLE: Bank journal")
	assert.Contains(t, out, "* Day 0\n- [1] opened\n- [2] deposit")
	assert.Contains(t, out, "* Day 4\n- [3] payout")
	assert.Equal(t, 2, strings.Count(out, "* Day"))
}

func TestEntriesReader(t *testing.T) {
	t.Parallel()

	var r Reader = Entries{entry(1, 0, "a"), entry(2, 1, "b"), entry(3, 1, "c"), entry(4, 5, "d")}

	e, err := r.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "c", e.Description)
	_, err = r.Get(9)
	assert.ErrorContains(t, err, "not found")

	got, err := r.ListBetween(1, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].Seq)

	tail, err := r.Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "d", tail[1].Description)

	all, err := r.Tail(10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
