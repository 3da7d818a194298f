package bank

import (
	"fmt"
	"math"

	"github.com/rustyeddy/banksim/money"
)

// borrowCentralBank always succeeds. A non-positive rate uses the
// configured central bank rate.
func (s *State) borrowCentralBank(amount, years, rate float64) (CentralBankLoan, error) {
	amount = money.Round(amount)
	if !money.Finite(amount) || amount <= 0 {
		return CentralBankLoan{}, fmt.Errorf("borrow: %w", ErrInvalidAmount)
	}
	if !money.Finite(years) || years <= 0 {
		return CentralBankLoan{}, fmt.Errorf("borrow: %w", ErrInvalidTerm)
	}
	if !money.Finite(rate) {
		return CentralBankLoan{}, fmt.Errorf("borrow: %w", ErrInvalidRate)
	}
	if rate <= 0 {
		rate = s.params.CentralBankRate
	}
	days := int(math.Round(years * 365))
	if days < 1 {
		days = 1
	}

	l := &CentralBankLoan{ID: s.ids.New(), Principal: amount, DaysLeft: days, Rate: rate}
	s.centralLoans = append(s.centralLoans, l)
	s.balance = roundSum(s.balance, amount)

	s.transact(TxCentralBorrow, amount)
	s.record("Borrowed %s from the central bank at %s (%d days)", money.Format(amount), money.Percent(rate), days)
	return *l, nil
}

// repayCentralBank pays amount against the loan at index, interest first.
// A nil index means the oldest loan and a nil amount pays it off.
func (s *State) repayCentralBank(index *int, amount *float64) (Repayment, error) {
	if len(s.centralLoans) == 0 {
		return Repayment{}, fmt.Errorf("repay: %w", ErrNoCentralBankLoans)
	}
	i := 0
	if index != nil {
		i = *index
	}
	if i < 0 || i >= len(s.centralLoans) {
		return Repayment{}, fmt.Errorf("repay: index %d of %d: %w", i, len(s.centralLoans), ErrLoanNotFound)
	}
	l := s.centralLoans[i]

	pay := l.Due()
	if amount != nil {
		asked := money.Round(*amount)
		if !money.Finite(asked) || asked <= 0 {
			return Repayment{}, fmt.Errorf("repay: %w", ErrInvalidAmount)
		}
		if asked > s.balance {
			return Repayment{}, fmt.Errorf("repay: %s exceeds cash %s: %w",
				money.Format(asked), money.Format(s.balance), ErrInsufficientFunds)
		}
		pay = math.Min(asked, pay)
	}
	if pay > s.balance {
		return Repayment{}, fmt.Errorf("repay: %s exceeds cash %s: %w",
			money.Format(pay), money.Format(s.balance), ErrInsufficientFunds)
	}

	r := s.applyRepayment(i, pay)
	s.record("Repaid %s to the central bank", money.Format(r.Total()))
	return r, nil
}

// repayAllCentralBank pays every loan off, or nothing when cash is short.
func (s *State) repayAllCentralBank() ([]Repayment, error) {
	if len(s.centralLoans) == 0 {
		return nil, fmt.Errorf("repay all: %w", ErrNoCentralBankLoans)
	}
	var total float64
	for _, l := range s.centralLoans {
		total = roundSum(total, l.Due())
	}
	if total > s.balance {
		return nil, fmt.Errorf("repay all: %s exceeds cash %s: %w",
			money.Format(total), money.Format(s.balance), ErrInsufficientFunds)
	}

	var out []Repayment
	for len(s.centralLoans) > 0 {
		out = append(out, s.applyRepayment(0, s.centralLoans[0].Due()))
	}
	s.record("Repaid all central bank loans totaling %s", money.Format(total))
	return out, nil
}

// applyRepayment moves pay out of cash against loan i, interest first, and
// removes the loan once nothing is owed.
func (s *State) applyRepayment(i int, pay float64) Repayment {
	l := s.centralLoans[i]
	r := Repayment{LoanID: l.ID}

	interest := money.Round(l.Accrued)
	r.InterestPaid = math.Min(pay, interest)
	r.PrincipalPaid = roundSum(pay, -r.InterestPaid)
	if r.PrincipalPaid > l.Principal {
		r.PrincipalPaid = l.Principal
	}

	l.Accrued = math.Max(0, l.Accrued-r.InterestPaid)
	if r.InterestPaid == interest {
		l.Accrued = 0
	}
	l.Principal = roundSum(l.Principal, -r.PrincipalPaid)
	s.balance = roundSum(s.balance, -r.Total())
	s.transact(TxCentralRepay, -r.Total())

	if l.Principal <= 0 {
		s.centralLoans = append(s.centralLoans[:i], s.centralLoans[i+1:]...)
		r.Closed = true
	}
	return r
}

// sweepCentralLoans accrues interest on running loans and auto-repays
// matured ones when cash allows. It returns the repaid loans and how many
// matured loans remain overdue.
func (s *State) sweepCentralLoans() ([]CentralBankLoan, int) {
	mult := s.economy.InterestMultiplier
	var repaid []CentralBankLoan
	overdue := 0

	for i := 0; i < len(s.centralLoans); {
		l := s.centralLoans[i]
		if l.DaysLeft > 0 {
			l.Accrued += l.Principal * l.Rate * mult / 365
			l.DaysLeft--
			i++
			continue
		}
		due := l.Due()
		if due > s.balance {
			s.record("WARNING: Could not repay central bank loan (insufficient funds)")
			overdue++
			i++
			continue
		}
		snapshot := *l
		s.applyRepayment(i, due)
		repaid = append(repaid, snapshot)
		s.record("Repaid central bank loan of %s", money.Format(due))
	}
	return repaid, overdue
}

// CentralBankLoans returns copies of the outstanding central bank loans.
func (s *State) CentralBankLoans() []CentralBankLoan {
	out := make([]CentralBankLoan, 0, len(s.centralLoans))
	for _, l := range s.centralLoans {
		out = append(out, *l)
	}
	return out
}

// CentralBankDebt is the total owed to the central bank today.
func (s *State) CentralBankDebt() float64 {
	var total float64
	for _, l := range s.centralLoans {
		total = roundSum(total, l.Due())
	}
	return total
}
