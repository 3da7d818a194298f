package bank

import (
	"fmt"

	"github.com/rustyeddy/banksim/id"
	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/storage"
)

// Snapshot exports the state for persistence. Loans and deposit lots are
// written on the customer that owns them.
func (s *State) Snapshot() storage.Snapshot {
	balance := s.balance
	b := storage.BankRecord{
		Balance:             &balance,
		InterestEarned:      s.interestEarned,
		Day:                 s.day,
		NextSeq:             s.nextSeq,
		NextCustomerID:      s.nextCustomerID,
		DaysSinceCollection: s.daysSinceCollection,
		MonthlyIncome:       append([]float64(nil), s.monthlyIncome...),
		Month:               storage.MonthRecord{LoanInterest: s.month.loanInterest, DepositInterest: s.month.depositInterest},
		Economy:             storage.EconomyRecord{Regime: string(s.economy.Regime), DaysInRegime: s.economy.DaysInRegime},
		DaysSinceTax:        s.daysSinceTax,
		Market:              s.market.Snapshot(),
	}
	for _, l := range s.centralLoans {
		b.CentralLoans = append(b.CentralLoans, storage.CentralLoanRecord{
			ID: l.ID, Principal: l.Principal, DaysLeft: l.DaysLeft, Accrued: l.Accrued, Rate: l.Rate,
		})
	}
	for _, e := range s.history {
		b.History = append(b.History, storage.HistoryRecord{Seq: e.Seq, Day: e.Day, Description: e.Description})
	}
	for _, t := range s.transactions {
		b.Transactions = append(b.Transactions, storage.TransactionRecord{Seq: t.Seq, Day: t.Day, Kind: t.Kind, Amount: t.Amount})
	}
	for _, t := range s.taxHistory {
		b.TaxHistory = append(b.TaxHistory, storage.TaxRecord(t))
	}

	customers := make(map[int]storage.CustomerRecord, len(s.customers))
	for cid, c := range s.customers {
		rec := storage.CustomerRecord{ID: cid, CreditScore: c.CreditScore, DepositBalance: c.DepositBalance}
		for _, l := range c.Loans {
			rec.Loans = append(rec.Loans, storage.LoanRecord{
				ID: l.ID, Principal: l.Principal, DaysLeft: l.DaysLeft, Accrued: l.Accrued, Rate: l.Rate,
			})
		}
		for _, d := range c.Deposits {
			rec.Deposits = append(rec.Deposits, storage.DepositRecord{ID: d.ID, Principal: d.Principal, Accrued: d.Accrued})
		}
		customers[cid] = rec
	}
	return storage.Snapshot{Bank: b, Customers: customers}
}

// Restore rebuilds a state from a snapshot, filling defaults for anything
// missing: cash from p.StartingBalance, the Normal regime, a next customer
// id past every known id, and fresh ids for records saved without one.
// Several saved lots on one customer are merged and cached deposit balances
// are recomputed from the lots.
func Restore(snap storage.Snapshot, p Params, mkt *market.Market, ids *id.Generator) (*State, error) {
	s := NewState(p, mkt, ids)
	b := snap.Bank

	if b.Balance != nil {
		s.balance = money.Round(*b.Balance)
	}
	s.interestEarned = money.Round(b.InterestEarned)
	s.day = b.Day
	s.daysSinceCollection = b.DaysSinceCollection
	s.daysSinceTax = b.DaysSinceTax
	s.monthlyIncome = append([]float64(nil), b.MonthlyIncome...)
	s.month = monthTotals{loanInterest: b.Month.LoanInterest, depositInterest: b.Month.DepositInterest}

	s.economy = newEconomy(Normal)
	if b.Economy.Regime != "" {
		r, err := ParseRegime(b.Economy.Regime)
		if err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
		s.economy = newEconomy(r)
	}
	s.economy.DaysInRegime = b.Economy.DaysInRegime

	for _, l := range b.CentralLoans {
		s.centralLoans = append(s.centralLoans, &CentralBankLoan{
			ID: s.idOr(l.ID), Principal: money.Round(l.Principal), DaysLeft: l.DaysLeft, Accrued: l.Accrued, Rate: l.Rate,
		})
	}

	var seq uint64
	for _, h := range b.History {
		s.history = append(s.history, HistoryEntry{Seq: h.Seq, Day: h.Day, Description: h.Description})
		seq = max(seq, h.Seq)
	}
	for _, t := range b.Transactions {
		s.transactions = append(s.transactions, Transaction{Seq: t.Seq, Day: t.Day, Kind: t.Kind, Amount: t.Amount})
		seq = max(seq, t.Seq)
	}
	s.nextSeq = max(b.NextSeq, seq)

	for _, t := range b.TaxHistory {
		s.taxHistory = append(s.taxHistory, TaxRecord(t))
	}

	maxID := 0
	for key, rec := range snap.Customers {
		cid := rec.ID
		if cid == 0 {
			cid = key
		}
		if _, dup := s.customers[cid]; dup {
			return nil, fmt.Errorf("restore: duplicate customer %d", cid)
		}
		c := &Customer{ID: cid, CreditScore: rec.CreditScore}
		if c.CreditScore == 0 {
			c.CreditScore = 300
		}
		for _, lr := range rec.Loans {
			l := &Loan{
				ID: s.idOr(lr.ID), CustomerID: cid, Principal: money.Round(lr.Principal),
				DaysLeft: lr.DaysLeft, Accrued: lr.Accrued, Rate: lr.Rate,
			}
			c.Loans = append(c.Loans, l)
			s.loanIndex[l.ID] = cid
		}
		for _, dr := range rec.Deposits {
			if lot := c.lot(); lot != nil {
				lot.Principal = roundSum(lot.Principal, dr.Principal)
				lot.Accrued += dr.Accrued
				continue
			}
			c.Deposits = append(c.Deposits, &DepositLot{
				ID: s.idOr(dr.ID), CustomerID: cid, Principal: money.Round(dr.Principal), Accrued: dr.Accrued,
			})
		}
		if lot := c.lot(); lot != nil {
			c.DepositBalance = lot.Principal
			if lot.Principal <= 0 {
				c.Deposits, c.DepositBalance = nil, 0
			}
		}
		s.customers[cid] = c
		maxID = max(maxID, cid)
	}
	s.nextCustomerID = max(b.NextCustomerID, maxID+1, 1)

	s.market.Restore(b.Market)
	s.pruneHistory()

	if err := s.Verify(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return s, nil
}

func (s *State) idOr(saved string) string {
	if saved != "" {
		return saved
	}
	return s.ids.New()
}
