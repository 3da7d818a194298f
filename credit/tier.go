// Package credit classifies credit scores into tiers and derives the loan
// terms that depend on them: default rate, counter-offer tolerance and the
// probability a customer accepts a counter-offer.
package credit

import (
	"math"

	"github.com/rustyeddy/banksim/rng"
)

const (
	MinScore = 300
	MaxScore = 850
)

// Tier is a banded classification of a credit score.
type Tier int

const (
	Poor Tier = iota
	Fair
	Good
	VeryGood
	Excellent
)

type band struct {
	name      string
	min, max  int
	rate      float64
	tolerance float64
}

var bands = [...]band{
	Poor:      {"Poor", 300, 449, 0.10, 0.60},
	Fair:      {"Fair", 450, 599, 0.08, 0.40},
	Good:      {"Good", 600, 699, 0.06, 0.25},
	VeryGood:  {"Very Good", 700, 799, 0.04, 0.15},
	Excellent: {"Excellent", 800, 850, 0.02, 0.10},
}

// Tiers lists every tier from worst to best.
var Tiers = []Tier{Poor, Fair, Good, VeryGood, Excellent}

func (t Tier) String() string { return bands[t].name }

// Range returns the inclusive score range of the tier.
func (t Tier) Range() (int, int) { return bands[t].min, bands[t].max }

// Rate is the annual loan rate offered to the tier before any economic scaling.
func (t Tier) Rate() float64 { return bands[t].rate }

// Tolerance is how far a counter-offer may stray before the customer refuses it.
func (t Tier) Tolerance() float64 { return bands[t].tolerance }

// TierOf classifies a score. Scores below 450 are Poor regardless of range.
func TierOf(score int) Tier {
	switch {
	case score < 450:
		return Poor
	case score < 600:
		return Fair
	case score < 700:
		return Good
	case score < 800:
		return VeryGood
	default:
		return Excellent
	}
}

// DefaultRate is the annual rate for a score: <450 10%, <600 8%, <700 6%,
// <800 4%, else 2%.
func DefaultRate(score int) float64 {
	return TierOf(score).Rate()
}

// Draw picks a tier uniformly and then a score uniformly inside it.
func Draw(src rng.Source) int {
	t := rng.Pick(src, Tiers)
	lo, hi := t.Range()
	return rng.IntRange(src, lo, hi)
}

// Terms are the amount and duration of a loan offer.
type Terms struct {
	Amount float64
	Years  float64
}

// CounterAcceptance returns the probability that a customer with the given
// score accepts counter in place of the terms they asked for:
//
//	max(0, 1 - (Δamount + Δyears)/2 - (1 - tolerance))
//
// where each Δ is relative to the original request (years relative to at
// least one year).
func CounterAcceptance(score int, original, counter Terms) float64 {
	dAmt := 0.0
	if original.Amount != 0 {
		dAmt = math.Abs(counter.Amount-original.Amount) / original.Amount
	}
	dYrs := math.Abs(counter.Years-original.Years) / math.Max(1, original.Years)

	p := 1 - (dAmt+dYrs)/2 - (1 - TierOf(score).Tolerance())
	return math.Max(0, p)
}
