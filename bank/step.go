package bank

import "github.com/rustyeddy/banksim/rng"

// DayReport describes what happened during one call to Step.
type DayReport struct {
	Day            int
	MarketUpdated  bool
	Tax            *TaxRecord
	EconomyMessage string
	MaturedLoans   []Loan
	CentralRepaid  []CentralBankLoan
	CentralOverdue int
	Collected      float64
	Paid           float64
	MonthlyIncome  *float64
}

// Step advances s by one day in a fixed order: market, tax, economy, loan
// sweep, central bank sweep, deposit accrual and, every collection
// interval, interest collection and payout. Every stage runs regardless of
// warnings raised by earlier ones.
func Step(s *State, src rng.Source) DayReport {
	s.day++
	s.daysSinceCollection++
	s.pruneHistory()

	r := DayReport{Day: s.day}
	r.MarketUpdated = s.market.Update(src)
	r.Tax = s.stepTax()
	r.EconomyMessage = s.stepEconomy(src)
	r.MaturedLoans = s.sweepLoans()
	r.CentralRepaid, r.CentralOverdue = s.sweepCentralLoans()
	s.accrueDeposits()

	if s.daysSinceCollection >= s.params.CollectionInterval {
		r.Collected = s.collectLoanInterest()
		r.Paid = s.payDepositInterest()
		net := s.closeMonth()
		r.MonthlyIncome = &net
		s.daysSinceCollection = 0
	}
	return r
}

// DaysUntilCollection is the number of days before the next interest
// collection and payout.
func (s *State) DaysUntilCollection() int {
	return s.params.CollectionInterval - s.daysSinceCollection
}
