package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"seq", "day", "recorded_at", "description"}

// CSVJournal appends entries to a CSV file. Reopening an existing file
// continues after the highest sequence number already written.
type CSVJournal struct {
	w    *csv.Writer
	f    *os.File
	last uint64
}

func NewCSV(path string) (*CSVJournal, error) {
	last, exists, err := lastSeq(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)

	if !exists {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &CSVJournal{w: w, f: f, last: last}, nil
}

func (j *CSVJournal) Record(e Entry) error {
	if e.Seq <= j.last {
		return nil
	}
	err := j.w.Write([]string{
		strconv.FormatUint(e.Seq, 10),
		strconv.Itoa(e.Day),
		e.RecordedAt.UTC().Format(time.RFC3339),
		e.Description,
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	j.last = e.Seq
	return nil
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

// ReadCSV loads every entry from a journal file.
func ReadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		e, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func parseRow(row []string) (Entry, error) {
	seq, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("bad seq %q: %w", row[0], err)
	}
	day, err := strconv.Atoi(row[1])
	if err != nil {
		return Entry{}, fmt.Errorf("bad day %q: %w", row[1], err)
	}
	at, err := time.Parse(time.RFC3339, row[2])
	if err != nil {
		return Entry{}, fmt.Errorf("bad time %q: %w", row[2], err)
	}
	return Entry{Seq: seq, Day: day, RecordedAt: at, Description: row[3]}, nil
}

// lastSeq reports the highest sequence number in an existing journal file.
func lastSeq(path string) (uint64, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	entries, err := ReadCSV(path)
	if err != nil {
		return 0, true, err
	}
	var last uint64
	for _, e := range entries {
		last = max(last, e.Seq)
	}
	return last, true, nil
}
