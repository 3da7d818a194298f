// Package events generates the random customer activity that drives an
// unattended simulation: deposits, withdrawals and loan requests presented
// to the bank engine.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/rng"
)

// Ranges bounds the amounts and terms of generated events.
type Ranges struct {
	DepositMin, DepositMax int
	LoanMin, LoanMax       int
	YearsMin, YearsMax     int
}

func DefaultRanges() Ranges {
	return Ranges{
		DepositMin: 100, DepositMax: 10000,
		LoanMin: 500, LoanMax: 20000,
		YearsMin: 1, YearsMax: 20,
	}
}

type Generator struct {
	src      rng.Source
	ranges   Ranges
	approver bank.Approver
}

// NewGenerator returns a generator. A nil approver accepts every loan
// request as asked.
func NewGenerator(src rng.Source, approver bank.Approver) *Generator {
	return &Generator{src: src, ranges: DefaultRanges(), approver: approver}
}

// WithRanges replaces the default ranges.
func (g *Generator) WithRanges(r Ranges) *Generator {
	g.ranges = r
	return g
}

// Fire picks one event uniformly among deposit, loan request and, when some
// customer has funds, withdrawal, and applies it to e. Refusals by the bank
// are reported in the message; only unexpected failures are errors.
func (g *Generator) Fire(ctx context.Context, e *bank.Engine) (string, error) {
	kinds := []func(context.Context, *bank.Engine) (string, error){g.Deposit, g.LoanRequest}
	if len(e.Deposits()) > 0 {
		kinds = append(kinds, g.Withdraw)
	}
	return rng.Pick(g.src, kinds)(ctx, e)
}

// Deposit has an existing customer deposit half the time and a new
// customer the rest.
func (g *Generator) Deposit(ctx context.Context, e *bank.Engine) (string, error) {
	amount := float64(rng.IntRange(g.src, g.ranges.DepositMin, g.ranges.DepositMax))

	var cid *int
	if customers := e.Customers(); len(customers) > 0 && rng.Chance(g.src, 0.5) {
		id := rng.Pick(g.src, customers).ID
		cid = &id
	}
	got, err := e.Deposit(ctx, amount, cid)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Customer %d deposited %s", got, money.Format(amount)), nil
}

// Withdraw has a random customer with funds take out a whole-dollar amount
// up to their balance.
func (g *Generator) Withdraw(ctx context.Context, e *bank.Engine) (string, error) {
	var funded []bank.Customer
	for _, c := range e.Customers() {
		if c.DepositBalance > 0 {
			funded = append(funded, c)
		}
	}
	if len(funded) == 0 {
		return "No customers with deposits available for withdrawal.", nil
	}
	c := rng.Pick(g.src, funded)
	amount := float64(rng.IntRange(g.src, 1, int(c.DepositBalance)))

	w, err := e.Withdraw(ctx, amount, &c.ID)
	if errors.Is(err, bank.ErrCustomerNoFunds) {
		return fmt.Sprintf("Customer %d has no funds to withdraw.", c.ID), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Customer %d withdrew %s", w.CustomerID, money.Format(w.Amount)), nil
}

// LoanRequest has a new customer ask for a loan, routed through the
// generator's approver.
func (g *Generator) LoanRequest(ctx context.Context, e *bank.Engine) (string, error) {
	amount := float64(rng.IntRange(g.src, g.ranges.LoanMin, g.ranges.LoanMax))
	years := float64(rng.IntRange(g.src, g.ranges.YearsMin, g.ranges.YearsMax))

	rec := &recordingApprover{next: g.approver}
	req := bank.LoanRequest{Amount: amount, Years: years, RequireApproval: true}
	loan, err := e.GiveLoan(ctx, req, rec)

	terms := func(amt, yrs, rate float64) string {
		return fmt.Sprintf("%s for %g yrs at %s", money.Format(amt), yrs, money.Percent(rate))
	}
	o := rec.offer
	switch {
	case err == nil && rec.decision.Verdict == bank.Counter:
		return fmt.Sprintf("Loan COUNTER ACCEPTED for customer %d (%s)", loan.CustomerID,
			terms(loan.Principal, rec.decision.Years, loan.Rate)), nil
	case err == nil:
		return fmt.Sprintf("Loan ACCEPTED for customer %d (%s)", loan.CustomerID,
			terms(loan.Principal, years, loan.Rate)), nil
	case errors.Is(err, bank.ErrLoanDeclined):
		return fmt.Sprintf("Loan DECLINED for customer %d (%s)", o.CustomerID, terms(o.Amount, o.Years, o.Rate)), nil
	case errors.Is(err, bank.ErrCounterRejected):
		return fmt.Sprintf("Loan COUNTER REJECTED for customer %d", o.CustomerID), nil
	case errors.Is(err, bank.ErrInsufficientFunds):
		return fmt.Sprintf("Loan request of %s could not be funded", money.Format(amount)), nil
	default:
		return "", err
	}
}

// recordingApprover remembers the offer and the verdict it passed on.
type recordingApprover struct {
	next     bank.Approver
	offer    bank.LoanOffer
	decision bank.Decision
}

func (r *recordingApprover) Review(o bank.LoanOffer) bank.Decision {
	r.offer = o
	if r.next == nil {
		r.decision = bank.Decision{Verdict: bank.Accept}
	} else {
		r.decision = r.next.Review(o)
	}
	return r.decision
}
