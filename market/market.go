// Package market is the bank's simplified stock exchange: a catalog of known
// companies, a rotating set of available listings whose prices follow a
// stochastic model, and the bank's holdings with buy/sell settlement.
//
// A Market is not safe for concurrent use; the bank engine serializes access.
package market

import (
	"fmt"
	"math"
	"sort"

	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/rng"
)

// Config tunes the market cadence and listing rules.
type Config struct {
	UpdateInterval int  // days between rotations/repricing
	MaxListings    int  // upper bound on available listings after a rotation
	HistoryLen     int  // rolling price points kept per ticker
	DelistOnBuy    bool // a purchase removes the ticker from the available set
}

func DefaultConfig() Config {
	return Config{
		UpdateInterval: 30,
		MaxListings:    30,
		HistoryLen:     100,
		DelistOnBuy:    true,
	}
}

type Market struct {
	cfg Config

	listings  map[string]*Listing
	tickers   []string // every known ticker, sorted
	available []string
	holdings  []*Holding
	history   map[string][]float64

	daysSinceUpdate int
}

// New opens a market over the catalog. The first MaxListings tickers start
// out available and every ticker's price history is seeded with its
// catalog price.
func New(cfg Config, catalog []Stock) *Market {
	m := &Market{
		cfg:      cfg,
		listings: make(map[string]*Listing, len(catalog)),
		history:  make(map[string][]float64, len(catalog)),
	}
	for _, s := range catalog {
		if _, dup := m.listings[s.Ticker]; dup {
			continue
		}
		m.listings[s.Ticker] = newListing(s)
		m.tickers = append(m.tickers, s.Ticker)
		m.history[s.Ticker] = []float64{s.Price}
	}
	sort.Strings(m.tickers)

	n := len(m.tickers)
	if cfg.MaxListings > 0 && n > cfg.MaxListings {
		n = cfg.MaxListings
	}
	m.available = append([]string(nil), m.tickers[:n]...)
	return m
}

func (m *Market) Config() Config { return m.cfg }

// DaysUntilUpdate is the number of days before the next rotation.
func (m *Market) DaysUntilUpdate() int {
	return m.cfg.UpdateInterval - m.daysSinceUpdate
}

// Update advances the market by one day. Every UpdateInterval days it
// rotates the available set and reprices it, and reports true.
func (m *Market) Update(src rng.Source) bool {
	m.daysSinceUpdate++
	if m.daysSinceUpdate < m.cfg.UpdateInterval {
		return false
	}
	m.daysSinceUpdate = 0
	m.Rotate(src)
	m.Reprice(src)
	return true
}

// Rotate replaces the available set with a random sample of at most
// MaxListings tickers that are not currently held.
func (m *Market) Rotate(src rng.Source) {
	candidates := make([]string, 0, len(m.tickers))
	for _, t := range m.tickers {
		if m.holding(t) == nil {
			candidates = append(candidates, t)
		}
	}
	k := len(candidates)
	if m.cfg.MaxListings > 0 && k > m.cfg.MaxListings {
		k = m.cfg.MaxListings
	}
	m.available = rng.Sample(src, candidates, k)
}

// Reprice perturbs every available listing. The percent change is a normal
// draw whose mean is a trend in [-0.05, 0.10) and whose deviation is a
// volatility in [0.02, 0.08), inflated for expensive (P/E > 20) and
// indebted (D/E > 1.5) companies. A price never falls below 30% of where it
// started.
func (m *Market) Reprice(src rng.Source) {
	for _, t := range m.available {
		l := m.listings[t]
		old := l.Price

		vol := rng.Uniform(src, 0.02, 0.08)
		trend := rng.Uniform(src, -0.05, 0.10)
		if l.PERatio > 20 {
			vol *= 1.5
		}
		if l.DebtEquity > 1.5 {
			vol *= 1.3
		}

		change := rng.Gauss(src, trend, vol)
		price := math.Max(old*(1+change), old*0.3)
		m.setPrice(l, money.Round(price))
		if old > 0 {
			l.DailyChangePercent = money.Round((l.Price/old - 1) * 100)
		}
	}
}

func (m *Market) setPrice(l *Listing, price float64) {
	l.Price = price
	if price > l.High52 {
		l.High52 = price
	}
	if l.Low52 == 0 || price < l.Low52 {
		l.Low52 = price
	}

	h := append(m.history[l.Ticker], price)
	if n := m.cfg.HistoryLen; n > 0 && len(h) > n {
		h = append([]float64(nil), h[len(h)-n:]...)
	}
	m.history[l.Ticker] = h
}

// Available returns copies of the listings currently open for purchase.
func (m *Market) Available() []Listing {
	out := make([]Listing, 0, len(m.available))
	for _, t := range m.available {
		out = append(out, *m.listings[t])
	}
	return out
}

// IsListed reports whether ticker can be bought right now.
func (m *Market) IsListed(ticker string) bool {
	return m.availableIndex(ticker) >= 0
}

// Listing returns the live state of any known ticker.
func (m *Market) Listing(ticker string) (Listing, bool) {
	l, ok := m.listings[ticker]
	if !ok {
		return Listing{}, false
	}
	return *l, true
}

// PriceHistory returns a copy of the rolling price history of ticker.
func (m *Market) PriceHistory(ticker string) []float64 {
	return append([]float64(nil), m.history[ticker]...)
}

// Holdings returns copies of the bank's positions.
func (m *Market) Holdings() []Holding {
	out := make([]Holding, 0, len(m.holdings))
	for _, h := range m.holdings {
		out = append(out, *h)
	}
	return out
}

func (m *Market) holding(ticker string) *Holding {
	for _, h := range m.holdings {
		if h.Ticker == ticker {
			return h
		}
	}
	return nil
}

func (m *Market) availableIndex(ticker string) int {
	for i, t := range m.available {
		if t == ticker {
			return i
		}
	}
	return -1
}

// Buy purchases shares of a listed stock with at most cash available.
// The caller owns the cash and must debit Trade.Amount.
func (m *Market) Buy(ticker string, shares int, cash float64) (Trade, error) {
	if shares <= 0 {
		return Trade{}, fmt.Errorf("buy %s: %w", ticker, ErrInvalidShares)
	}
	idx := m.availableIndex(ticker)
	if idx < 0 {
		return Trade{}, fmt.Errorf("buy %s: %w", ticker, ErrNotListed)
	}

	price := m.listings[ticker].Price
	cost := money.Round(price * float64(shares))
	if cost > cash {
		return Trade{}, fmt.Errorf("buy %s: cost %.2f: %w", ticker, cost, ErrInsufficientFunds)
	}

	if h := m.holding(ticker); h != nil {
		total := h.Shares + shares
		h.AvgPrice = money.Round((h.Cost() + cost) / float64(total))
		h.Shares = total
	} else {
		m.holdings = append(m.holdings, &Holding{Ticker: ticker, Shares: shares, AvgPrice: price})
	}

	if m.cfg.DelistOnBuy {
		m.available = append(m.available[:idx], m.available[idx+1:]...)
	}

	return Trade{Side: Buy, Ticker: ticker, Shares: shares, Price: price, Amount: cost}, nil
}

// Sell disposes of shares of a held stock. The settlement price is the live
// listing price when the ticker is available, else its last recorded price.
// The caller must credit Trade.Amount.
func (m *Market) Sell(ticker string, shares int) (Trade, error) {
	if shares <= 0 {
		return Trade{}, fmt.Errorf("sell %s: %w", ticker, ErrInvalidShares)
	}
	h := m.holding(ticker)
	if h == nil {
		return Trade{}, fmt.Errorf("sell %s: %w", ticker, ErrNotHeld)
	}
	if shares > h.Shares {
		return Trade{}, fmt.Errorf("sell %s: own %d, asked %d: %w", ticker, h.Shares, shares, ErrNotEnoughShares)
	}

	price, ok := m.settlementPrice(ticker)
	if !ok {
		return Trade{}, fmt.Errorf("sell %s: %w", ticker, ErrNoPrice)
	}

	proceeds := money.Round(price * float64(shares))
	pl := money.Round(proceeds - h.AvgPrice*float64(shares))

	t := Trade{Side: Sell, Ticker: ticker, Shares: shares, Price: price, Amount: proceeds, ProfitLoss: pl}

	if shares == h.Shares {
		m.removeHolding(ticker)
		t.Closed = true
		if l, known := m.listings[ticker]; known {
			l.Price = price
			if m.availableIndex(ticker) < 0 {
				m.available = append(m.available, ticker)
			}
		}
	} else {
		h.Shares -= shares
	}
	return t, nil
}

func (m *Market) removeHolding(ticker string) {
	for i, h := range m.holdings {
		if h.Ticker == ticker {
			m.holdings = append(m.holdings[:i], m.holdings[i+1:]...)
			return
		}
	}
}

func (m *Market) settlementPrice(ticker string) (float64, bool) {
	if m.IsListed(ticker) {
		return m.listings[ticker].Price, true
	}
	if h := m.history[ticker]; len(h) > 0 {
		return h[len(h)-1], true
	}
	return 0, false
}

// PriceOf is the price used to value a position: the live listing, else
// the last recorded price, else zero.
func (m *Market) PriceOf(ticker string) float64 {
	p, _ := m.settlementPrice(ticker)
	return p
}

// PortfolioValue marks every holding to PriceOf.
func (m *Market) PortfolioValue() float64 {
	var total float64
	for _, h := range m.holdings {
		total += m.PriceOf(h.Ticker) * float64(h.Shares)
	}
	return money.Round(total)
}

// Performance returns the portfolio's gain over cost basis, in cash and in
// percent. An empty portfolio returns zeros.
func (m *Market) Performance() (float64, float64) {
	var invested, current float64
	for _, h := range m.holdings {
		invested += h.Cost()
		current += m.PriceOf(h.Ticker) * float64(h.Shares)
	}
	if invested <= 0 {
		return 0, 0
	}
	ret := current - invested
	return money.Round(ret), money.Round(ret / invested * 100)
}
