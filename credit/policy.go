package credit

import "fmt"

// Policy holds the lending limits an automated loan officer applies.
type Policy struct {
	MinScore        int     // below this, decline outright
	MaxAmount       float64 // larger requests are countered down to this
	MaxYears        float64 // longer requests are countered down to this
	MaxBalanceShare float64 // a single loan may use at most this share of cash
}

// DefaultPolicy is a conservative officer for unattended simulations.
func DefaultPolicy() Policy {
	return Policy{
		MinScore:        450,
		MaxAmount:       15000,
		MaxYears:        15,
		MaxBalanceShare: 0.5,
	}
}

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of evaluating an application against a Policy.
// When Allowed is false and Counter is set, the officer proposes Counter
// instead of declining.
type Decision struct {
	Allowed    bool
	Violations []Violation
	Counter    *Terms
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Application is a loan request as seen by the officer.
type Application struct {
	Score   int
	Terms   Terms
	Balance float64 // bank cash at the time of the request
}

// Evaluate checks an application against the policy.
func Evaluate(p Policy, app Application) Decision {
	d := Decision{Allowed: true}

	if app.Terms.Amount <= 0 || app.Terms.Years <= 0 {
		d.add("BAD_TERMS", "amount and years must be positive")
		return d
	}
	if app.Score < p.MinScore {
		d.add("SCORE_TOO_LOW", fmt.Sprintf("score %d below minimum %d", app.Score, p.MinScore))
		return d
	}

	counter := app.Terms
	if p.MaxAmount > 0 && counter.Amount > p.MaxAmount {
		d.add("AMOUNT_TOO_HIGH", fmt.Sprintf("amount %.2f exceeds max %.2f", counter.Amount, p.MaxAmount))
		counter.Amount = p.MaxAmount
	}
	if limit := p.MaxBalanceShare * app.Balance; p.MaxBalanceShare > 0 && counter.Amount > limit {
		d.add("BALANCE_SHARE", fmt.Sprintf("amount %.2f exceeds %.0f%% of cash", counter.Amount, 100*p.MaxBalanceShare))
		counter.Amount = limit
	}
	if p.MaxYears > 0 && counter.Years > p.MaxYears {
		d.add("TERM_TOO_LONG", fmt.Sprintf("term %.1f years exceeds max %.1f", counter.Years, p.MaxYears))
		counter.Years = p.MaxYears
	}

	if !d.Allowed && counter.Amount > 0 {
		d.Counter = &counter
	}
	return d
}
