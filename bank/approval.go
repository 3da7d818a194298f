package bank

import "github.com/rustyeddy/banksim/credit"

// Verdict is an approver's answer to a loan offer.
type Verdict int

const (
	Accept Verdict = iota
	Decline
	Counter
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Decline:
		return "decline"
	case Counter:
		return "counter"
	default:
		return "unknown"
	}
}

// Decision carries a verdict and, for Counter, the proposed terms.
type Decision struct {
	Verdict Verdict
	Amount  float64
	Years   float64
}

// CounterOffer proposes different terms for a loan.
func CounterOffer(amount, years float64) Decision {
	return Decision{Verdict: Counter, Amount: amount, Years: years}
}

// LoanOffer is what an approver reviews.
type LoanOffer struct {
	CustomerID  int
	CreditScore int
	Amount      float64
	Years       float64
	Rate        float64
	Balance     float64 // bank cash at the time of the request
}

// Tier classifies the applicant's credit score.
func (o LoanOffer) Tier() credit.Tier { return credit.TierOf(o.CreditScore) }

// Approver decides on loan offers that require approval.
type Approver interface {
	Review(LoanOffer) Decision
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(LoanOffer) Decision

func (f ApproverFunc) Review(o LoanOffer) Decision { return f(o) }

// AcceptAll approves every offer as asked.
var AcceptAll Approver = ApproverFunc(func(LoanOffer) Decision { return Decision{Verdict: Accept} })
