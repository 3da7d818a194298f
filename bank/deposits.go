package bank

import (
	"fmt"

	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/rng"
)

// deposit credits amount to a customer's lot. With no customer given, half
// the time an existing customer is chosen at random and otherwise a new one
// is registered.
func (s *State) deposit(src rng.Source, amount float64, customerID *int) (int, error) {
	amount = money.Round(amount)
	if !money.Finite(amount) || amount <= 0 {
		return 0, fmt.Errorf("deposit: %w", ErrInvalidAmount)
	}

	var c *Customer
	switch {
	case customerID != nil:
		c = s.resolveCustomer(src, customerID)
	case len(s.customers) > 0 && rng.Chance(src, 0.5):
		c = s.customers[rng.Pick(src, s.sortedIDs())]
	default:
		c = s.newCustomer(src)
	}

	before := c.DepositBalance
	lot := c.lot()
	if lot == nil {
		lot = &DepositLot{ID: s.ids.New(), CustomerID: c.ID}
		c.Deposits = append(c.Deposits, lot)
	}
	lot.Principal = roundSum(lot.Principal, amount)
	c.DepositBalance = roundSum(before, amount)
	s.balance = roundSum(s.balance, amount)

	s.transact(TxDeposit, amount)
	s.record("Customer %d deposited %s (had %s, now %s)",
		c.ID, money.Format(amount), money.Format(before), money.Format(c.DepositBalance))
	return c.ID, nil
}

// withdraw debits up to amount from a customer's lot, clamping to what the
// customer holds. With no customer given, one with funds is chosen at random.
func (s *State) withdraw(src rng.Source, amount float64, customerID *int) (Withdrawal, error) {
	amount = money.Round(amount)
	if !money.Finite(amount) || amount <= 0 {
		return Withdrawal{}, fmt.Errorf("withdraw: %w", ErrInvalidAmount)
	}

	var c *Customer
	if customerID != nil {
		c = s.customers[*customerID]
		if c == nil || c.lot() == nil || c.lot().Principal <= 0 {
			return Withdrawal{}, fmt.Errorf("withdraw: customer %d: %w", *customerID, ErrCustomerNoFunds)
		}
	} else {
		funded := s.fundedCustomers()
		if len(funded) == 0 {
			return Withdrawal{}, fmt.Errorf("withdraw: %w", ErrNoFunds)
		}
		c = rng.Pick(src, funded)
	}

	w := Withdrawal{CustomerID: c.ID, Amount: amount}
	if amount > c.DepositBalance {
		w.Amount = c.DepositBalance
		w.Clamped = true
	}

	before := c.DepositBalance
	lot := c.lot()
	lot.Principal = roundSum(lot.Principal, -w.Amount)
	if lot.Principal <= 0 {
		c.Deposits = nil
	}
	c.DepositBalance = roundSum(before, -w.Amount)
	s.balance = roundSum(s.balance, -w.Amount)

	s.transact(TxWithdraw, -w.Amount)
	s.record("Customer %d withdrew %s (had %s, now %s)",
		c.ID, money.Format(w.Amount), money.Format(before), money.Format(c.DepositBalance))
	return w, nil
}

// fundedCustomers lists, in id order, customers whose lot holds money.
func (s *State) fundedCustomers() []*Customer {
	var out []*Customer
	s.eachCustomer(func(c *Customer) {
		if lot := c.lot(); lot != nil && lot.Principal > 0 {
			out = append(out, c)
		}
	})
	return out
}

// accrueDeposits adds one day of interest to every lot.
func (s *State) accrueDeposits() {
	rate := s.params.DepositRate * s.economy.InterestMultiplier / 365
	for _, c := range s.customers {
		for _, d := range c.Deposits {
			d.Accrued += d.Principal * rate
		}
	}
}

// payDepositInterest moves each lot's accrued interest, rounded, into its
// principal and out of the bank's cash. It returns the total paid.
func (s *State) payDepositInterest() float64 {
	var total float64
	s.eachCustomer(func(c *Customer) {
		for _, d := range c.Deposits {
			paid := money.Round(d.Accrued)
			d.Accrued = 0
			if paid <= 0 {
				continue
			}
			d.Principal = roundSum(d.Principal, paid)
			c.DepositBalance = roundSum(c.DepositBalance, paid)
			total = roundSum(total, paid)
		}
	})
	if total == 0 {
		return 0
	}
	s.balance = roundSum(s.balance, -total)
	s.month.depositInterest = roundSum(s.month.depositInterest, total)
	s.transact(TxInterestOut, -total)
	s.record("Paid %s in deposit interest to customers", money.Format(total))
	return total
}

// Deposits returns copies of every lot, in customer id order.
func (s *State) Deposits() []DepositLot {
	var out []DepositLot
	s.eachCustomer(func(c *Customer) {
		for _, d := range c.Deposits {
			out = append(out, *d)
		}
	})
	return out
}
