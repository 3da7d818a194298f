package bank

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/banksim/id"
	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/money"
)

// State is the whole simulation at the end of a day or an operation. It is
// mutated only by Step and by the operations in this package, and it is not
// safe for concurrent use; Engine provides the locking.
type State struct {
	params Params
	ids    *id.Generator

	balance        float64
	interestEarned float64
	day            int

	customers      map[int]*Customer
	nextCustomerID int
	loanIndex      map[string]int // loan id -> customer id

	centralLoans []*CentralBankLoan

	history      []HistoryEntry
	transactions []Transaction
	nextSeq      uint64

	daysSinceCollection int
	month               monthTotals
	monthlyIncome       []float64

	economy      Economy
	taxHistory   []TaxRecord
	daysSinceTax int

	market *market.Market
}

type monthTotals struct {
	loanInterest    float64
	depositInterest float64
}

// NewState returns a fresh bank holding p.StartingBalance in cash.
func NewState(p Params, mkt *market.Market, ids *id.Generator) *State {
	if ids == nil {
		ids = id.NewGenerator(nil, nil)
	}
	if mkt == nil {
		mkt = market.New(market.DefaultConfig(), market.DefaultCatalog())
	}
	regime := p.InitialRegime
	if regime == "" {
		regime = Normal
	}
	return &State{
		params:         p,
		ids:            ids,
		balance:        money.Round(p.StartingBalance),
		customers:      make(map[int]*Customer),
		nextCustomerID: 1,
		loanIndex:      make(map[string]int),
		economy:        newEconomy(regime),
		market:         mkt,
	}
}

func (s *State) Params() Params           { return s.params }
func (s *State) Balance() float64         { return s.balance }
func (s *State) InterestEarned() float64  { return s.interestEarned }
func (s *State) Day() int                 { return s.day }
func (s *State) Economy() Economy         { return s.economy }
func (s *State) Market() *market.Market   { return s.market }
func (s *State) DaysSinceCollection() int { return s.daysSinceCollection }

// sortedIDs returns every customer id in ascending order.
func (s *State) sortedIDs() []int {
	ids := make([]int, 0, len(s.customers))
	for id := range s.customers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// eachCustomer visits customers in id order.
func (s *State) eachCustomer(fn func(c *Customer)) {
	for _, id := range s.sortedIDs() {
		fn(s.customers[id])
	}
}

// Verify checks the ledger invariants: cached deposit balances match lot
// principals, every customer has at most one lot, the loan index matches
// ownership and settled amounts carry at most two decimals.
func (s *State) Verify() error {
	if !money.IsRounded(s.balance) {
		return fmt.Errorf("%w: balance %v not rounded", ErrInvariant, s.balance)
	}
	if !money.IsRounded(s.interestEarned) {
		return fmt.Errorf("%w: interest earned %v not rounded", ErrInvariant, s.interestEarned)
	}

	loans := 0
	for cid, c := range s.customers {
		if c.ID != cid {
			return fmt.Errorf("%w: customer keyed %d has id %d", ErrInvariant, cid, c.ID)
		}
		if cid >= s.nextCustomerID {
			return fmt.Errorf("%w: customer %d not below next id %d", ErrInvariant, cid, s.nextCustomerID)
		}
		if len(c.Deposits) > 1 {
			return fmt.Errorf("%w: customer %d has %d deposit lots", ErrInvariant, cid, len(c.Deposits))
		}
		var principal float64
		for _, d := range c.Deposits {
			if d.CustomerID != cid {
				return fmt.Errorf("%w: lot %s owned by %d sits on customer %d", ErrInvariant, d.ID, d.CustomerID, cid)
			}
			if !money.IsRounded(d.Principal) {
				return fmt.Errorf("%w: lot %s principal %v not rounded", ErrInvariant, d.ID, d.Principal)
			}
			principal = money.Sum(principal, d.Principal)
		}
		if principal != c.DepositBalance {
			return fmt.Errorf("%w: customer %d balance %v != lots %v", ErrInvariant, cid, c.DepositBalance, principal)
		}
		for _, l := range c.Loans {
			if l.CustomerID != cid || s.loanIndex[l.ID] != cid {
				return fmt.Errorf("%w: loan %s not indexed to customer %d", ErrInvariant, l.ID, cid)
			}
			if !money.IsRounded(l.Principal) {
				return fmt.Errorf("%w: loan %s principal %v not rounded", ErrInvariant, l.ID, l.Principal)
			}
			loans++
		}
	}
	if loans != len(s.loanIndex) {
		return fmt.Errorf("%w: %d loans but %d index entries", ErrInvariant, loans, len(s.loanIndex))
	}
	for _, l := range s.centralLoans {
		if !money.IsRounded(l.Principal) {
			return fmt.Errorf("%w: central bank loan %s principal %v not rounded", ErrInvariant, l.ID, l.Principal)
		}
	}
	return nil
}

func roundSum(xs ...float64) float64 { return money.Sum(xs...) }
