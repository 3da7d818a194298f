package events

import (
	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/credit"
)

// PolicyApprover is an automated loan officer: it accepts offers the policy
// allows, counters with the policy's adjusted terms when there are any and
// declines the rest.
type PolicyApprover struct {
	Policy credit.Policy
}

func NewPolicyApprover(p credit.Policy) PolicyApprover {
	return PolicyApprover{Policy: p}
}

func (a PolicyApprover) Review(o bank.LoanOffer) bank.Decision {
	d := credit.Evaluate(a.Policy, credit.Application{
		Score:   o.CreditScore,
		Terms:   credit.Terms{Amount: o.Amount, Years: o.Years},
		Balance: o.Balance,
	})
	switch {
	case d.Allowed:
		return bank.Decision{Verdict: bank.Accept}
	case d.Counter != nil:
		return bank.CounterOffer(d.Counter.Amount, d.Counter.Years)
	default:
		return bank.Decision{Verdict: bank.Decline}
	}
}
