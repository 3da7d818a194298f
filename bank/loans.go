package bank

import (
	"fmt"
	"math"

	"github.com/rustyeddy/banksim/credit"
	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/rng"
)

// LoanRequest describes a loan to issue. A nil Rate uses the customer's
// default rate scaled by the economy; a nil CustomerID registers a new
// customer.
type LoanRequest struct {
	Amount          float64
	Years           float64
	Rate            *float64
	CustomerID      *int
	RequireApproval bool
}

func (s *State) giveLoan(src rng.Source, req LoanRequest, approver Approver) (*Loan, error) {
	amount := money.Round(req.Amount)
	if !money.Finite(amount) || amount <= 0 {
		return nil, fmt.Errorf("give loan: %w", ErrInvalidAmount)
	}
	if !money.Finite(req.Years) || req.Years <= 0 {
		return nil, fmt.Errorf("give loan: %w", ErrInvalidTerm)
	}
	if req.Rate != nil && !money.Finite(*req.Rate) {
		return nil, fmt.Errorf("give loan: %w", ErrInvalidRate)
	}
	if amount > s.balance {
		return nil, fmt.Errorf("give loan: %s exceeds cash %s: %w",
			money.Format(amount), money.Format(s.balance), ErrInsufficientFunds)
	}
	if req.RequireApproval && approver == nil {
		return nil, fmt.Errorf("give loan: %w", ErrApproverRequired)
	}

	// An unknown applicant is only registered once the loan is issued, so a
	// declined request leaves no trace.
	var c *Customer
	if req.CustomerID != nil {
		c = s.customers[*req.CustomerID]
	}
	if c == nil {
		c = &Customer{ID: s.nextCustomerID, CreditScore: credit.Draw(src)}
	}

	rate := credit.DefaultRate(c.CreditScore) * s.economy.InterestMultiplier
	if req.Rate != nil {
		rate = *req.Rate
	}
	years := req.Years

	if req.RequireApproval {
		offer := LoanOffer{CustomerID: c.ID, CreditScore: c.CreditScore, Amount: amount, Years: years, Rate: rate, Balance: s.balance}
		d := approver.Review(offer)
		switch d.Verdict {
		case Accept:
		case Decline:
			return nil, fmt.Errorf("give loan: customer %d: %w", c.ID, ErrLoanDeclined)
		case Counter:
			orig := credit.Terms{Amount: amount, Years: years}
			counter := credit.Terms{Amount: money.Round(d.Amount), Years: d.Years}
			if !money.Finite(counter.Amount, counter.Years) || counter.Amount <= 0 || counter.Years <= 0 {
				return nil, fmt.Errorf("give loan: counter-offer: %w", ErrInvalidAmount)
			}
			p := credit.CounterAcceptance(c.CreditScore, orig, counter)
			if !rng.Chance(src, p) {
				return nil, fmt.Errorf("give loan: customer %d: %w", c.ID, ErrCounterRejected)
			}
			if counter.Amount > s.balance {
				return nil, fmt.Errorf("give loan: counter %s exceeds cash %s: %w",
					money.Format(counter.Amount), money.Format(s.balance), ErrInsufficientFunds)
			}
			amount, years = counter.Amount, counter.Years
		default:
			return nil, fmt.Errorf("give loan: unknown verdict %d", d.Verdict)
		}
	}

	if _, known := s.customers[c.ID]; !known {
		s.customers[c.ID] = c
		s.nextCustomerID++
	}
	return s.issueLoan(c, amount, years, rate), nil
}

func (s *State) issueLoan(c *Customer, amount, years, rate float64) *Loan {
	days := int(math.Round(years * 365))
	if days < 1 {
		days = 1
	}
	l := &Loan{ID: s.ids.New(), CustomerID: c.ID, Principal: amount, DaysLeft: days, Rate: rate}
	c.Loans = append(c.Loans, l)
	s.loanIndex[l.ID] = c.ID
	s.balance = roundSum(s.balance, -amount)

	s.transact(TxLoan, -amount)
	s.record("Loan granted %s at %s to customer %d (%d days)",
		money.Format(amount), money.Percent(rate), c.ID, days)
	cp := *l
	return &cp
}

// sweepLoans accrues a day of interest on running loans and settles loans
// that were already at zero days when the sweep began. It returns the
// matured loans.
func (s *State) sweepLoans() []Loan {
	mult := s.economy.InterestMultiplier
	var matured []Loan
	s.eachCustomer(func(c *Customer) {
		kept := c.Loans[:0]
		for _, l := range c.Loans {
			if l.DaysLeft > 0 {
				l.Accrued += l.Principal * l.Rate * mult / 365
				l.DaysLeft--
				kept = append(kept, l)
				continue
			}
			s.settleLoan(c, l)
			matured = append(matured, *l)
		}
		c.Loans = kept
	})
	return matured
}

// settleLoan returns the principal of a matured loan to cash. Interest
// accrued since the last collection is settled only with SettleAccrued set,
// otherwise it is forfeited.
func (s *State) settleLoan(c *Customer, l *Loan) {
	var interest float64
	if s.params.SettleAccrued {
		interest = money.Round(l.Accrued)
	}
	l.Accrued = 0
	s.balance = roundSum(s.balance, l.Principal, interest)
	if interest > 0 {
		s.interestEarned = roundSum(s.interestEarned, interest)
		s.month.loanInterest = roundSum(s.month.loanInterest, interest)
	}
	delete(s.loanIndex, l.ID)

	s.transact(TxLoanRepaid, roundSum(l.Principal, interest))
	if interest > 0 {
		s.record("Customer %d repaid loan principal of %s with %s interest",
			c.ID, money.Format(l.Principal), money.Format(interest))
		return
	}
	s.record("Customer %d repaid loan principal of %s", c.ID, money.Format(l.Principal))
}

// collectLoanInterest sweeps every loan's accrued interest into cash and
// returns the total collected.
func (s *State) collectLoanInterest() float64 {
	var total float64
	s.eachCustomer(func(c *Customer) {
		for _, l := range c.Loans {
			amt := money.Round(l.Accrued)
			l.Accrued = 0
			total = roundSum(total, amt)
		}
	})
	if total <= 0 {
		return 0
	}
	s.balance = roundSum(s.balance, total)
	s.interestEarned = roundSum(s.interestEarned, total)
	s.month.loanInterest = roundSum(s.month.loanInterest, total)
	s.transact(TxInterestIn, total)
	s.record("Collected %s in loan interest this month", money.Format(total))
	return total
}

// Loans returns copies of every customer loan, ordered by customer id and
// then by issue order.
func (s *State) Loans() []Loan {
	var out []Loan
	s.eachCustomer(func(c *Customer) {
		for _, l := range c.Loans {
			out = append(out, *l)
		}
	})
	return out
}

// Loan looks a loan up by id through the ownership index.
func (s *State) Loan(id string) (Loan, bool) {
	cid, ok := s.loanIndex[id]
	if !ok {
		return Loan{}, false
	}
	for _, l := range s.customers[cid].Loans {
		if l.ID == id {
			return *l, true
		}
	}
	return Loan{}, false
}
