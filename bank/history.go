package bank

import "fmt"

// record appends a history line stamped with the current day and prunes
// lines that fell out of the retention window.
func (s *State) record(format string, args ...any) HistoryEntry {
	s.nextSeq++
	e := HistoryEntry{Seq: s.nextSeq, Day: s.day, Description: fmt.Sprintf(format, args...)}
	s.history = append(s.history, e)
	s.pruneHistory()
	return e
}

func (s *State) pruneHistory() {
	window := s.params.HistoryWindow
	if window <= 0 {
		return
	}
	keep := 0
	for keep < len(s.history) && s.day-s.history[keep].Day >= window {
		keep++
	}
	if keep > 0 {
		s.history = append([]HistoryEntry(nil), s.history[keep:]...)
	}
}

// transact appends a signed cash movement to the transaction feed.
func (s *State) transact(kind string, amount float64) {
	s.nextSeq++
	s.transactions = append(s.transactions, Transaction{Seq: s.nextSeq, Day: s.day, Kind: kind, Amount: amount})
	if n := s.params.MaxTransactions; n > 0 && len(s.transactions) > n {
		s.transactions = append([]Transaction(nil), s.transactions[len(s.transactions)-n:]...)
	}
}

// History returns a copy of the retained history, oldest first.
func (s *State) History() []HistoryEntry {
	return append([]HistoryEntry(nil), s.history...)
}

// Transactions returns a copy of the transaction feed, oldest first.
func (s *State) Transactions() []Transaction {
	return append([]Transaction(nil), s.transactions...)
}

// historySince returns the retained entries with Seq > seq.
func (s *State) historySince(seq uint64) []HistoryEntry {
	var out []HistoryEntry
	for _, e := range s.history {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}
