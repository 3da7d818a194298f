package market

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/banksim/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Stock {
	return []Stock{
		{Ticker: "AAA", Name: "Alpha", Price: 50, PERatio: 12, DebtEquity: 0.5, High52: 60, Low52: 40},
		{Ticker: "BBB", Name: "Beta", Price: 100, PERatio: 25, DebtEquity: 0.5, High52: 120, Low52: 80},
		{Ticker: "CCC", Name: "Gamma", Price: 100, PERatio: 10, DebtEquity: 2.0, High52: 100, Low52: 90},
		{Ticker: "DDD", Name: "Delta", Price: 20, PERatio: 30, DebtEquity: 3.0, High52: 25, Low52: 15},
	}
}

func newTestMarket(t *testing.T) *Market {
	t.Helper()
	return New(DefaultConfig(), testCatalog())
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	stocks := DefaultCatalog()
	require.GreaterOrEqual(t, len(stocks), 30)

	seen := map[string]bool{}
	for _, s := range stocks {
		assert.False(t, seen[s.Ticker], "duplicate %s", s.Ticker)
		assert.Positive(t, s.Price)
		seen[s.Ticker] = true
	}
}

func TestLoadCatalogJSONAndErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "stocks.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"ticker":"ZZZ","price":10},{"ticker":"AAA","price":5}]`), 0o644))

	stocks, err := LoadCatalog(good)
	require.NoError(t, err)
	require.Len(t, stocks, 2)
	assert.Equal(t, "AAA", stocks[0].Ticker)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("- {ticker: A, price: 1}\n- {ticker: A, price: 2}\n"), 0o644))
	_, err = LoadCatalog(dup)
	assert.ErrorContains(t, err, "duplicate")

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewListsUpToMax(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxListings = 2
	m := New(cfg, testCatalog())

	assert.Len(t, m.Available(), 2)
	assert.True(t, m.IsListed("AAA"))
	assert.False(t, m.IsListed("DDD"))
	assert.Equal(t, []float64{20}, m.PriceHistory("DDD"))
}

func TestBuyThenSellAll(t *testing.T) {
	t.Parallel()

	m := newTestMarket(t)

	trade, err := m.Buy("AAA", 10, 1000)
	require.NoError(t, err)
	assert.Equal(t, 500.0, trade.Amount)
	assert.Equal(t, 50.0, trade.Price)
	assert.False(t, m.IsListed("AAA"), "bought ticker leaves the available set")

	h := m.Holdings()
	require.Len(t, h, 1)
	assert.Equal(t, Holding{Ticker: "AAA", Shares: 10, AvgPrice: 50}, h[0])

	sale, err := m.Sell("AAA", 10)
	require.NoError(t, err)
	assert.True(t, sale.Closed)
	assert.Equal(t, 500.0, sale.Amount)
	assert.Equal(t, 0.0, sale.ProfitLoss)
	assert.True(t, m.IsListed("AAA"), "full sale re-lists the ticker")
	assert.Empty(t, m.Holdings())

	l, ok := m.Listing("AAA")
	require.True(t, ok)
	assert.Equal(t, 50.0, l.Price)
}

func TestBuyErrors(t *testing.T) {
	t.Parallel()

	m := newTestMarket(t)

	_, err := m.Buy("NOPE", 1, 1000)
	assert.True(t, errors.Is(err, ErrNotListed))

	_, err = m.Buy("BBB", 11, 1000)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	_, err = m.Buy("BBB", 0, 1000)
	assert.True(t, errors.Is(err, ErrInvalidShares))

	assert.Empty(t, m.Holdings())
	assert.True(t, m.IsListed("BBB"))
}

func TestSellPartialAndErrors(t *testing.T) {
	t.Parallel()

	m := newTestMarket(t)
	_, err := m.Buy("CCC", 5, 1000)
	require.NoError(t, err)

	_, err = m.Sell("AAA", 1)
	assert.True(t, errors.Is(err, ErrNotHeld))

	_, err = m.Sell("CCC", 6)
	assert.True(t, errors.Is(err, ErrNotEnoughShares))

	// Delisted, so settlement falls back to the last recorded price.
	m.history["CCC"] = append(m.history["CCC"], 110)
	sale, err := m.Sell("CCC", 2)
	require.NoError(t, err)
	assert.False(t, sale.Closed)
	assert.Equal(t, 110.0, sale.Price)
	assert.Equal(t, 220.0, sale.Amount)
	assert.Equal(t, 20.0, sale.ProfitLoss)
	assert.Equal(t, 3, m.Holdings()[0].Shares)
	assert.False(t, m.IsListed("CCC"))
}

func TestSellWithoutPrice(t *testing.T) {
	t.Parallel()

	m := newTestMarket(t)
	m.holdings = append(m.holdings, &Holding{Ticker: "GONE", Shares: 1, AvgPrice: 5})

	_, err := m.Sell("GONE", 1)
	assert.True(t, errors.Is(err, ErrNoPrice))
}

func TestBuyMergesWhenListingKept(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DelistOnBuy = false
	m := New(cfg, testCatalog())

	_, err := m.Buy("AAA", 10, 10000)
	require.NoError(t, err)
	assert.True(t, m.IsListed("AAA"))

	m.listings["AAA"].Price = 80
	_, err = m.Buy("AAA", 30, 10000)
	require.NoError(t, err)

	h := m.Holdings()
	require.Len(t, h, 1)
	assert.Equal(t, 40, h[0].Shares)
	// (10*50 + 30*80) / 40
	assert.Equal(t, 72.5, h[0].AvgPrice)
}

func TestReprice(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxListings = 1
	m := New(cfg, []Stock{{Ticker: "BBB", Price: 100, PERatio: 10, DebtEquity: 0.5, High52: 100, Low52: 90}})

	// vol = 0.05, trend = -0.05, z = 2 → +5%.
	src := &rng.Script{Floats: []float64{0.5, 0}, Normals: []float64{2}}
	m.Reprice(src)

	l, _ := m.Listing("BBB")
	assert.Equal(t, 105.0, l.Price)
	assert.Equal(t, 5.0, l.DailyChangePercent)
	assert.Equal(t, 105.0, l.High52)
	assert.Equal(t, []float64{100, 105}, m.PriceHistory("BBB"))
}

func TestRepriceVolatilityMultipliers(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	m := New(cfg, []Stock{{Ticker: "DDD", Price: 100, PERatio: 30, DebtEquity: 3}})

	// vol = 0.05 * 1.5 * 1.3 = 0.0975, trend = -0.05, z = 2 → +14.5%.
	src := &rng.Script{Floats: []float64{0.5, 0}, Normals: []float64{2}}
	m.Reprice(src)

	l, _ := m.Listing("DDD")
	assert.Equal(t, 114.5, l.Price)
}

func TestRepriceFloor(t *testing.T) {
	t.Parallel()

	m := New(DefaultConfig(), []Stock{{Ticker: "AAA", Price: 50, High52: 60, Low52: 40}})

	src := &rng.Script{Floats: []float64{0.5, 0}, Normals: []float64{-40}}
	m.Reprice(src)

	l, _ := m.Listing("AAA")
	assert.Equal(t, 15.0, l.Price)
	assert.Equal(t, 15.0, l.Low52)
	assert.Equal(t, -70.0, l.DailyChangePercent)
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HistoryLen = 5
	m := New(cfg, []Stock{{Ticker: "AAA", Price: 50}})

	src := rng.New(9)
	for i := 0; i < 20; i++ {
		m.Reprice(src)
	}
	assert.Len(t, m.PriceHistory("AAA"), 5)
}

func TestUpdateCadenceAndRotationSkipsHoldings(t *testing.T) {
	t.Parallel()

	m := newTestMarket(t)
	_, err := m.Buy("AAA", 1, 1000)
	require.NoError(t, err)

	src := rng.New(5)
	for day := 1; day < 30; day++ {
		assert.False(t, m.Update(src), "day %d", day)
	}
	assert.Equal(t, 1, m.DaysUntilUpdate())
	assert.True(t, m.Update(src))
	assert.Equal(t, 30, m.DaysUntilUpdate())

	assert.Len(t, m.Available(), 3)
	assert.False(t, m.IsListed("AAA"), "held tickers never rotate in")
}

func TestPortfolioValueAndPerformance(t *testing.T) {
	t.Parallel()

	m := newTestMarket(t)
	v, pct := m.Performance()
	assert.Zero(t, v)
	assert.Zero(t, pct)

	_, err := m.Buy("AAA", 10, 1000)
	require.NoError(t, err)
	m.history["AAA"] = append(m.history["AAA"], 60)

	assert.Equal(t, 600.0, m.PortfolioValue())
	v, pct = m.Performance()
	assert.Equal(t, 100.0, v)
	assert.Equal(t, 20.0, pct)
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	m := newTestMarket(t)
	_, err := m.Buy("BBB", 3, 1000)
	require.NoError(t, err)
	m.Update(rng.New(1))

	rec := m.Snapshot()

	restored := New(DefaultConfig(), testCatalog())
	restored.Restore(rec)

	assert.Equal(t, m.Holdings(), restored.Holdings())
	assert.Equal(t, m.Available(), restored.Available())
	assert.Equal(t, m.PriceHistory("CCC"), restored.PriceHistory("CCC"))
	assert.Equal(t, m.DaysUntilUpdate(), restored.DaysUntilUpdate())
}
