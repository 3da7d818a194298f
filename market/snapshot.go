package market

import (
	"sort"

	"github.com/rustyeddy/banksim/storage"
)

// Snapshot exports the market state for persistence.
func (m *Market) Snapshot() storage.MarketRecord {
	rec := storage.MarketRecord{
		Available:       append([]string(nil), m.available...),
		PriceHistory:    make(map[string][]float64, len(m.history)),
		DaysSinceUpdate: m.daysSinceUpdate,
	}
	for _, t := range m.tickers {
		l := m.listings[t]
		rec.Listings = append(rec.Listings, storage.ListingRecord{
			Ticker:             l.Ticker,
			Name:               l.Name,
			Sector:             l.Sector,
			Country:            l.Country,
			Price:              l.Price,
			DailyChangePercent: l.DailyChangePercent,
			High52:             l.High52,
			Low52:              l.Low52,
			PERatio:            l.PERatio,
			DebtEquity:         l.DebtEquity,
		})
	}
	for _, h := range m.holdings {
		rec.Holdings = append(rec.Holdings, storage.HoldingRecord{Ticker: h.Ticker, Shares: h.Shares, AvgPrice: h.AvgPrice})
	}
	for t, h := range m.history {
		rec.PriceHistory[t] = append([]float64(nil), h...)
	}
	return rec
}

// Restore overlays a saved market onto the catalog the market was opened
// with. Saved listings replace catalog entries; tickers unknown to the
// catalog are added. A record without listings keeps the catalog state.
func (m *Market) Restore(rec storage.MarketRecord) {
	for _, lr := range rec.Listings {
		l, ok := m.listings[lr.Ticker]
		if !ok {
			l = &Listing{Ticker: lr.Ticker}
			m.listings[lr.Ticker] = l
			m.tickers = append(m.tickers, lr.Ticker)
		}
		l.Name, l.Sector, l.Country = lr.Name, lr.Sector, lr.Country
		l.Price = lr.Price
		l.DailyChangePercent = lr.DailyChangePercent
		l.High52, l.Low52 = lr.High52, lr.Low52
		l.PERatio, l.DebtEquity = lr.PERatio, lr.DebtEquity
	}
	sort.Strings(m.tickers)

	if len(rec.Listings) > 0 || rec.Available != nil {
		m.available = m.available[:0]
		for _, t := range rec.Available {
			if _, ok := m.listings[t]; ok {
				m.available = append(m.available, t)
			}
		}
	}

	m.holdings = nil
	for _, hr := range rec.Holdings {
		if hr.Shares <= 0 {
			continue
		}
		m.holdings = append(m.holdings, &Holding{Ticker: hr.Ticker, Shares: hr.Shares, AvgPrice: hr.AvgPrice})
	}

	for t, h := range rec.PriceHistory {
		m.history[t] = append([]float64(nil), h...)
	}
	m.daysSinceUpdate = rec.DaysSinceUpdate
}
