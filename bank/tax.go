package bank

import (
	"github.com/rustyeddy/banksim/money"
)

// MonthlyIncome returns the net interest of every completed month.
func (s *State) MonthlyIncome() []float64 {
	return append([]float64(nil), s.monthlyIncome...)
}

// YearlyIncome sums the last twelve months of net interest. With fewer than
// twelve months on record the available average is extrapolated.
func (s *State) YearlyIncome() float64 {
	n := len(s.monthlyIncome)
	switch {
	case n == 0:
		return 0
	case n >= 12:
		return roundSum(s.monthlyIncome[n-12:]...)
	default:
		return money.Round(roundSum(s.monthlyIncome...) / float64(n) * 12)
	}
}

// closeMonth records the net interest of the month just ended.
func (s *State) closeMonth() float64 {
	net := roundSum(s.month.loanInterest, -s.month.depositInterest)
	s.monthlyIncome = append(s.monthlyIncome, net)
	s.month = monthTotals{}
	return net
}

// stepTax levies tax on yearly income once the tax interval elapses.
func (s *State) stepTax() *TaxRecord {
	p := s.params.Tax
	s.daysSinceTax++
	if p.Interval <= 0 || s.daysSinceTax < p.Interval {
		return nil
	}

	income := s.YearlyIncome()
	rec := TaxRecord{Day: s.day, Income: income, Rate: p.Rate}
	switch {
	case income <= 0:
		rec.Paid = true
		rec.Note = "no taxable income"
		s.record("No tax due: yearly income was %s", money.Format(income))
	default:
		rec.Amount = money.Round(income * p.Rate)
		if rec.Amount > s.balance {
			rec.Note = "insufficient funds"
			s.record("WARNING: Could not pay taxes of %s (insufficient funds)", money.Format(rec.Amount))
			break
		}
		s.balance = roundSum(s.balance, -rec.Amount)
		rec.Paid = true
		rec.Note = "paid"
		s.transact(TxTax, -rec.Amount)
		s.record("Paid %s in taxes on yearly income of %s", money.Format(rec.Amount), money.Format(income))
	}

	if rec.Paid || !p.RetryUnpaid {
		s.daysSinceTax = 0
	}
	s.taxHistory = append(s.taxHistory, rec)
	return &rec
}

// TaxHistory returns every levy attempted so far.
func (s *State) TaxHistory() []TaxRecord {
	return append([]TaxRecord(nil), s.taxHistory...)
}

// DaysUntilTax is the number of days before the next levy.
func (s *State) DaysUntilTax() int {
	return s.params.Tax.Interval - s.daysSinceTax
}
