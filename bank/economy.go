package bank

import (
	"fmt"

	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/rng"
)

// Regime is a phase of the economic cycle.
type Regime string

const (
	Normal    Regime = "Normal"
	Boom      Regime = "Boom"
	Recession Regime = "Recession"
	Inflation Regime = "Inflation"
	Crisis    Regime = "Crisis"
)

// Regimes lists every regime in a fixed order.
var Regimes = []Regime{Normal, Boom, Recession, Inflation, Crisis}

type regimeEffect struct {
	deposit  float64
	interest float64
	blurb    string
}

var effects = map[Regime]regimeEffect{
	Normal:    {1.00, 1.00, "conditions are stable"},
	Boom:      {1.05, 1.20, "deposits grow and rates rise"},
	Recession: {0.95, 0.75, "deposits shrink and rates are cut"},
	Inflation: {0.97, 1.50, "money loses value and rates climb"},
	Crisis:    {0.85, 0.50, "deposits collapse and rates are slashed"},
}

// ParseRegime accepts a regime name; an unknown name is an error.
func ParseRegime(name string) (Regime, error) {
	for _, r := range Regimes {
		if string(r) == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown economic regime %q", name)
}

// DepositMultiplier scales deposit principal relative to Normal.
func (r Regime) DepositMultiplier() float64 { return effects[r].deposit }

// InterestMultiplier scales every accrual.
func (r Regime) InterestMultiplier() float64 { return effects[r].interest }

// Economy is the economic cycle state.
type Economy struct {
	Regime             Regime
	DepositMultiplier  float64
	InterestMultiplier float64
	DaysInRegime       int
}

func newEconomy(r Regime) Economy {
	return Economy{Regime: r, DepositMultiplier: r.DepositMultiplier(), InterestMultiplier: r.InterestMultiplier()}
}

// stepEconomy advances the regime counter and, once the interval elapses,
// resamples the regime. It returns a message when the regime changed.
func (s *State) stepEconomy(src rng.Source) string {
	p := s.params.Economy
	s.economy.DaysInRegime++
	if p.Interval <= 0 || s.economy.DaysInRegime < p.Interval {
		return ""
	}
	s.economy.DaysInRegime = 0

	from := s.economy.Regime
	to := nextRegime(src, from, p)
	if to == from {
		return ""
	}
	return s.shiftEconomy(to)
}

func nextRegime(src rng.Source, current Regime, p EconomyParams) Regime {
	if rng.Chance(src, p.StayProbability) {
		return current
	}
	if rng.Chance(src, p.NormalProbability) {
		return Normal
	}
	others := make([]Regime, 0, len(Regimes)-1)
	for _, r := range Regimes {
		if r != current {
			others = append(others, r)
		}
	}
	return rng.Pick(src, others)
}

// shiftEconomy moves to regime to, rescaling deposit principal by the ratio
// of the two regimes' deposit multipliers so no discount is applied twice.
func (s *State) shiftEconomy(to Regime) string {
	from := s.economy
	next := newEconomy(to)
	ratio := next.DepositMultiplier / from.DepositMultiplier

	s.eachCustomer(func(c *Customer) {
		var total float64
		for _, d := range c.Deposits {
			d.Principal = money.Round(d.Principal * ratio)
			total = roundSum(total, d.Principal)
		}
		c.DepositBalance = total
	})
	s.economy = next

	msg := fmt.Sprintf("Economy shifted from %s to %s: %s", from.Regime, to, effects[to].blurb)
	s.record("%s", msg)
	return msg
}
