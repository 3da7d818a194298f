package bank

import (
	"github.com/rustyeddy/banksim/credit"
	"github.com/rustyeddy/banksim/rng"
)

// newCustomer registers a customer with a freshly drawn credit score.
func (s *State) newCustomer(src rng.Source) *Customer {
	c := &Customer{ID: s.nextCustomerID, CreditScore: credit.Draw(src)}
	s.customers[c.ID] = c
	s.nextCustomerID++
	return c
}

// resolveCustomer returns the customer with the given id, or a new one when
// the id is absent or unknown.
func (s *State) resolveCustomer(src rng.Source, id *int) *Customer {
	if id != nil {
		if c, ok := s.customers[*id]; ok {
			return c
		}
	}
	return s.newCustomer(src)
}

// Customers returns copies of every customer in id order.
func (s *State) Customers() []Customer {
	out := make([]Customer, 0, len(s.customers))
	s.eachCustomer(func(c *Customer) { out = append(out, c.clone()) })
	return out
}

// Customer returns a copy of one customer.
func (s *State) Customer(id int) (Customer, bool) {
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, false
	}
	return c.clone(), true
}

// TotalDeposits is the sum of every customer's deposit balance.
func (s *State) TotalDeposits() float64 {
	var xs []float64
	for _, c := range s.customers {
		xs = append(xs, c.DepositBalance)
	}
	return roundSum(xs...)
}
