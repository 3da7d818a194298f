package bank

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/rng"
	"github.com/rustyeddy/banksim/storage"
)

func newTestEngine(t *testing.T, seed uint64, opts ...Option) *Engine {
	t.Helper()
	mkt := market.New(market.DefaultConfig(), []market.Stock{{Ticker: "ACME", Name: "Acme", Price: 50}})
	base := []Option{WithRand(rng.New(seed)), WithMarket(mkt)}
	return New(append(base, opts...)...)
}

func withBalance(b float64) Option {
	p := DefaultParams()
	p.StartingBalance = b
	return WithParams(p)
}

func TestDepositEarnsAMonthOfInterest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 1)
	assert.Equal(t, 20000.0, e.Balance())

	cid, err := e.Deposit(ctx, 1000, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cid)
	assert.Equal(t, 21000.0, e.Balance())

	for i := 0; i < 30; i++ {
		_, err := e.AdvanceDay(ctx)
		require.NoError(t, err)
	}

	c, ok := e.Customer(1)
	require.True(t, ok)
	assert.InDelta(t, 1000+1000*0.01/365*30, c.DepositBalance, 0.005)
	assert.Equal(t, 1000.82, c.DepositBalance)
	assert.Equal(t, 20999.18, e.Balance())
	assert.Equal(t, 30, e.Day())
}

func TestGiveLoanRespectsCash(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 2, withBalance(10000))

	l, err := e.GiveLoan(ctx, LoanRequest{Amount: 5000, Years: 1, CustomerID: ptr(2)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 365, l.DaysLeft)
	assert.Equal(t, 5000.0, e.Balance())

	_, err = e.GiveLoan(ctx, LoanRequest{Amount: 6000, Years: 1, CustomerID: ptr(2)}, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 5000.0, e.Balance())
	assert.Len(t, e.Loans(), 1)
}

func TestCentralBankLoanRepaidAfterMaturity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 3)
	_, err := e.BorrowCentralBank(ctx, 1000, 1.0/365, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 21000.0, e.Balance())

	_, err = e.AdvanceDay(ctx)
	require.NoError(t, err)
	loans := e.CentralBankLoans()
	require.Len(t, loans, 1)
	assert.InDelta(t, 1000*0.05/365, loans[0].Accrued, 1e-9)
	assert.Zero(t, loans[0].DaysLeft)

	r, err := e.AdvanceDay(ctx)
	require.NoError(t, err)
	require.Len(t, r.CentralRepaid, 1)
	assert.Empty(t, e.CentralBankLoans())
	assert.Equal(t, 19999.86, e.Balance())
}

func TestCentralBankOverdueWarnsDaily(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 4, withBalance(0))
	_, err := e.BorrowCentralBank(ctx, 1000, 1.0/365, 0)
	require.NoError(t, err)
	_, err = e.GiveLoan(ctx, LoanRequest{Amount: 1000, Years: 1}, nil)
	require.NoError(t, err)

	var warnings int
	e.Subscribe(func(h HistoryEntry) {
		if h.Description == "WARNING: Could not repay central bank loan (insufficient funds)" {
			warnings++
		}
	})

	for i := 0; i < 4; i++ {
		r, err := e.AdvanceDay(ctx)
		require.NoError(t, err)
		if i > 0 {
			assert.Equal(t, 1, r.CentralOverdue)
		}
	}
	assert.Equal(t, 3, warnings)
	assert.Len(t, e.CentralBankLoans(), 1)
}

func TestRepayCentralBank(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 5, withBalance(0))

	_, err := e.RepayCentralBank(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrNoCentralBankLoans)
	_, err = e.RepayAllCentralBank(ctx)
	assert.ErrorIs(t, err, ErrNoCentralBankLoans)

	_, err = e.BorrowCentralBank(ctx, 1000, 1, 0)
	require.NoError(t, err)
	_, err = e.BorrowCentralBank(ctx, 500, 1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0.05, e.CentralBankLoans()[0].Rate)

	_, err = e.RepayCentralBank(ctx, ptr(7), nil)
	assert.ErrorIs(t, err, ErrLoanNotFound)

	r, err := e.RepayCentralBank(ctx, nil, ptr(400.0))
	require.NoError(t, err)
	assert.False(t, r.Closed)
	assert.Equal(t, 400.0, r.PrincipalPaid)
	assert.Equal(t, 600.0, e.CentralBankLoans()[0].Principal)
	assert.Equal(t, 1100.0, e.Balance())

	_, err = e.GiveLoan(ctx, LoanRequest{Amount: 1000, Years: 1}, nil)
	require.NoError(t, err)

	_, err = e.RepayCentralBank(ctx, ptr(0), nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = e.RepayAllCentralBank(ctx)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Len(t, e.CentralBankLoans(), 2)
	assert.Equal(t, 100.0, e.Balance())

	_, err = e.Deposit(ctx, 2000, nil)
	require.NoError(t, err)
	rs, err := e.RepayAllCentralBank(ctx)
	require.NoError(t, err)
	assert.Len(t, rs, 2)
	assert.Empty(t, e.CentralBankLoans())
	assert.Equal(t, 1000.0, e.Balance())
}

func TestRepayCentralBankInterestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 5, withBalance(0))
	_, err := e.BorrowCentralBank(ctx, 1000, 1, 0.365)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err = e.AdvanceDay(ctx)
		require.NoError(t, err)
	}
	require.InDelta(t, 10.0, e.CentralBankLoans()[0].Accrued, 1e-9)

	r, err := e.RepayCentralBank(ctx, nil, ptr(4.0))
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.InterestPaid)
	assert.Zero(t, r.PrincipalPaid)
	assert.False(t, r.Closed)

	loans := e.CentralBankLoans()
	require.Len(t, loans, 1)
	assert.Equal(t, 1000.0, loans[0].Principal)
	assert.InDelta(t, 6.0, loans[0].Accrued, 1e-9)
	assert.Equal(t, 996.0, e.Balance())

	r, err = e.RepayCentralBank(ctx, nil, ptr(106.0))
	require.NoError(t, err)
	assert.Equal(t, 6.0, r.InterestPaid)
	assert.Equal(t, 100.0, r.PrincipalPaid)
	assert.False(t, r.Closed)

	loans = e.CentralBankLoans()
	require.Len(t, loans, 1)
	assert.Equal(t, 900.0, loans[0].Principal)
	assert.Zero(t, loans[0].Accrued)
	assert.Equal(t, 890.0, e.Balance())
}

func TestRepayCentralBankAskedAboveCash(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 6, withBalance(2000))
	_, err := e.BorrowCentralBank(ctx, 1000, 1, 0)
	require.NoError(t, err)
	txs := len(e.Transactions())

	_, err = e.RepayCentralBank(ctx, nil, ptr(5000.0))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 3000.0, e.Balance())
	assert.Equal(t, 1000.0, e.CentralBankLoans()[0].Principal)
	assert.Len(t, e.Transactions(), txs)

	// An amount within cash but above what is owed pays the loan off.
	r, err := e.RepayCentralBank(ctx, nil, ptr(2500.0))
	require.NoError(t, err)
	assert.True(t, r.Closed)
	assert.Equal(t, 1000.0, r.PrincipalPaid)
	assert.Equal(t, 2000.0, e.Balance())
}

func TestNonFiniteInputsAreRefused(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	nan, inf := math.NaN(), math.Inf(1)

	e := newTestEngine(t, 7)
	_, err := e.BorrowCentralBank(ctx, 1000, 1, 0)
	require.NoError(t, err)
	before := e.Balance()

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"deposit nan", func() error { _, err := e.Deposit(ctx, nan, nil); return err }, ErrInvalidAmount},
		{"deposit inf", func() error { _, err := e.Deposit(ctx, inf, nil); return err }, ErrInvalidAmount},
		{"withdraw inf", func() error { _, err := e.Withdraw(ctx, inf, nil); return err }, ErrInvalidAmount},
		{"loan amount nan", func() error {
			_, err := e.GiveLoan(ctx, LoanRequest{Amount: nan, Years: 1}, nil)
			return err
		}, ErrInvalidAmount},
		{"loan years nan", func() error {
			_, err := e.GiveLoan(ctx, LoanRequest{Amount: 100, Years: nan}, nil)
			return err
		}, ErrInvalidTerm},
		{"loan rate inf", func() error {
			_, err := e.GiveLoan(ctx, LoanRequest{Amount: 100, Years: 1, Rate: ptr(inf)}, nil)
			return err
		}, ErrInvalidRate},
		{"borrow amount inf", func() error { _, err := e.BorrowCentralBank(ctx, inf, 1, 0); return err }, ErrInvalidAmount},
		{"borrow years inf", func() error { _, err := e.BorrowCentralBank(ctx, 100, inf, 0); return err }, ErrInvalidTerm},
		{"borrow rate nan", func() error { _, err := e.BorrowCentralBank(ctx, 100, 1, nan); return err }, ErrInvalidRate},
		{"repay nan", func() error { _, err := e.RepayCentralBank(ctx, nil, ptr(nan)); return err }, ErrInvalidAmount},
		{"repay -inf", func() error { _, err := e.RepayCentralBank(ctx, nil, ptr(math.Inf(-1))); return err }, ErrInvalidAmount},
	}

	for _, tt := range tests {
		var err error
		require.NotPanics(t, func() { err = tt.op() }, tt.name)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
	assert.Equal(t, before, e.Balance())
	assert.Len(t, e.CentralBankLoans(), 1)
	require.NoError(t, e.state.Verify())
}

func TestEngineUsableAfterRecoveredPanic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 8)
	assert.Panics(t, func() {
		_ = e.mutate(ctx, "boom", func(*State) error { panic("boom") })
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Deposit(ctx, 10, nil)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine lock still held after a recovered panic")
	}
	assert.Equal(t, 20010.0, e.Balance())
}

func TestWithdraw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 6)

	_, err := e.Withdraw(ctx, 10, nil)
	assert.ErrorIs(t, err, ErrNoFunds)
	_, err = e.Withdraw(ctx, 10, ptr(9))
	assert.ErrorIs(t, err, ErrCustomerNoFunds)

	cid, err := e.Deposit(ctx, 100, nil)
	require.NoError(t, err)

	w, err := e.Withdraw(ctx, 500, &cid)
	require.NoError(t, err)
	assert.True(t, w.Clamped)
	assert.Equal(t, 100.0, w.Amount)
	assert.Equal(t, 20000.0, e.Balance())

	c, _ := e.Customer(cid)
	assert.Zero(t, c.DepositBalance)
	assert.Empty(t, c.Deposits)
	assert.Empty(t, e.Deposits())

	_, err = e.Withdraw(ctx, 10, &cid)
	assert.ErrorIs(t, err, ErrCustomerNoFunds)

	h := e.History()
	assert.Equal(t, "Customer 1 withdrew $100.00 (had $100.00, now $0.00)", h[len(h)-1].Description)
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for seed := uint64(1); seed <= 20; seed++ {
		e := newTestEngine(t, seed)
		src := rng.New(seed + 100)
		for i := 0; i < 10; i++ {
			_, err := e.Deposit(ctx, money.Round(rng.Uniform(src, 1, 5000)), nil)
			require.NoError(t, err)
		}
		beforeBalance := e.Balance()
		target := rng.IntRange(src, 1, len(e.Customers()))
		before, _ := e.Customer(target)

		x := money.Round(rng.Uniform(src, 1, 5000))
		_, err := e.Deposit(ctx, x, &target)
		require.NoError(t, err)
		w, err := e.Withdraw(ctx, x, &target)
		require.NoError(t, err)
		assert.False(t, w.Clamped)

		after, _ := e.Customer(target)
		assert.Equal(t, beforeBalance, e.Balance(), "seed %d", seed)
		assert.Equal(t, before.DepositBalance, after.DepositBalance, "seed %d", seed)
	}
}

func TestGiveLoanApproval(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	decline := ApproverFunc(func(LoanOffer) Decision { return Decision{Verdict: Decline} })
	counter := ApproverFunc(func(o LoanOffer) Decision { return CounterOffer(3000, o.Years) })

	tests := []struct {
		name       string
		approver   Approver
		floats     []float64
		wantErr    error
		wantAmount float64
	}{
		{"accept", AcceptAll, nil, nil, 4000},
		{"decline", decline, nil, ErrLoanDeclined, 0},
		{"no approver", nil, nil, ErrApproverRequired, 0},
		// Poor tier tolerance 0.6, amount off by 25%: p = 0.475.
		{"counter accepted", counter, []float64{0.4}, nil, 3000},
		{"counter rejected", counter, []float64{0.5}, ErrCounterRejected, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Tier Poor, lowest score in range.
			src := &rng.Script{Ints: []int{0, 0}, Floats: tt.floats}
			e := newTestEngine(t, 0, WithRand(src))

			l, err := e.GiveLoan(ctx, LoanRequest{Amount: 4000, Years: 2, RequireApproval: true}, tt.approver)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, e.Customers(), "refused loans leave no customer behind")
				assert.Equal(t, 20000.0, e.Balance())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, l.Principal)
			assert.Equal(t, 0.10, l.Rate)
			assert.Equal(t, 730, l.DaysLeft)
			assert.Equal(t, 20000-tt.wantAmount, e.Balance())
		})
	}
}

func TestApproverSeesOffer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var seen LoanOffer
	spy := ApproverFunc(func(o LoanOffer) Decision { seen = o; return Decision{Verdict: Accept} })

	e := newTestEngine(t, 0, WithRand(&rng.Script{Ints: []int{4, 0}}))
	_, err := e.GiveLoan(ctx, LoanRequest{Amount: 100, Years: 1, RequireApproval: true}, spy)
	require.NoError(t, err)

	assert.Equal(t, 1, seen.CustomerID)
	assert.Equal(t, 800, seen.CreditScore)
	assert.Equal(t, 0.02, seen.Rate)
	assert.Equal(t, "Excellent", seen.Tier().String())
	assert.Equal(t, 20000.0, seen.Balance)
}

func TestStockBuyAndSell(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 7, withBalance(1000))

	_, err := e.BuyStock(ctx, "ACME", 21)
	assert.True(t, errors.Is(err, market.ErrInsufficientFunds))
	assert.Equal(t, 1000.0, e.Balance())

	trade, err := e.BuyStock(ctx, "ACME", 10)
	require.NoError(t, err)
	assert.Equal(t, 500.0, trade.Amount)
	assert.Equal(t, 500.0, e.Balance())

	view := e.Market()
	assert.Empty(t, view.Available)
	require.Len(t, view.Holdings, 1)
	assert.Equal(t, 500.0, view.PortfolioValue)

	_, err = e.SellStock(ctx, "ACME", 11)
	assert.True(t, errors.Is(err, market.ErrNotEnoughShares))

	sale, err := e.SellStock(ctx, "ACME", 10)
	require.NoError(t, err)
	assert.True(t, sale.Closed)
	assert.Equal(t, 1000.0, e.Balance())
	assert.Len(t, e.Market().Available, 1)

	h := e.History()
	assert.Equal(t, "Sold 10 shares of ACME at $50.00 each (profit: $0.00)", h[len(h)-1].Description)
}

func TestInvariantsHoldAcrossRandomActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := rng.New(99)
	e := newTestEngine(t, 42)
	for day := 0; day < 400; day++ {
		switch src.IntN(5) {
		case 0:
			_, _ = e.Deposit(ctx, money.Round(rng.Uniform(src, 100, 10000)), nil)
		case 1:
			_, _ = e.Withdraw(ctx, money.Round(rng.Uniform(src, 1, 5000)), nil)
		case 2:
			_, _ = e.GiveLoan(ctx, LoanRequest{Amount: money.Round(rng.Uniform(src, 500, 20000)), Years: float64(rng.IntRange(src, 1, 3))}, nil)
		case 3:
			_, _ = e.BorrowCentralBank(ctx, 2000, 0.5, 0)
		}
		_, err := e.AdvanceDay(ctx)
		require.NoError(t, err)

		e.read(func(s *State) {
			require.NoError(t, s.Verify())
		})
		assert.True(t, money.IsRounded(e.Balance()))
	}
	for _, c := range e.Customers() {
		assert.GreaterOrEqual(t, c.DepositBalance, 0.0)
	}
}

func TestSubscribersReceiveEachEntryOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 8)
	var (
		mu  sync.Mutex
		got []HistoryEntry
	)
	e.Subscribe(func(h HistoryEntry) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, h)
	})

	_, err := e.Deposit(ctx, 10, nil)
	require.NoError(t, err)
	_, err = e.Withdraw(ctx, 1000, ptr(99))
	require.Error(t, err)
	_, err = e.Deposit(ctx, 20, ptr(1))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Less(t, got[0].Seq, got[1].Seq)
	assert.Equal(t, "Customer 1 deposited $20.00 (had $10.00, now $30.00)", got[1].Description)
}

func TestOpenResumesFromStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	e, err := Open(ctx, WithStore(st), WithRand(rng.New(10)))
	require.NoError(t, err)
	_, err = e.Deposit(ctx, 750, nil)
	require.NoError(t, err)
	_, err = e.GiveLoan(ctx, LoanRequest{Amount: 300, Years: 1}, nil)
	require.NoError(t, err)
	_, err = e.AdvanceDay(ctx)
	require.NoError(t, err)

	resumed, err := Open(ctx, WithStore(st), WithRand(rng.New(11)))
	require.NoError(t, err)
	assert.Equal(t, e.Balance(), resumed.Balance())
	assert.Equal(t, 1, resumed.Day())
	assert.Equal(t, e.Loans(), resumed.Loans())
	assert.Equal(t, e.Customers(), resumed.Customers())

	// New history continues the sequence.
	_, err = resumed.Deposit(ctx, 5, ptr(1))
	require.NoError(t, err)
	h := resumed.History()
	assert.Greater(t, h[len(h)-1].Seq, e.History()[len(e.History())-1].Seq)
}

func TestSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newTestEngine(t, 12)
	_, err := e.Deposit(ctx, 1500, nil)
	require.NoError(t, err)
	_, err = e.BorrowCentralBank(ctx, 1000, 1, 0)
	require.NoError(t, err)
	_, err = e.AdvanceDay(ctx)
	require.NoError(t, err)

	s := e.Summary()
	assert.Equal(t, 1, s.Day)
	assert.Equal(t, 22500.0, s.Balance)
	assert.Equal(t, 1500.0, s.TotalDeposits)
	assert.Equal(t, 1, s.Customers)
	assert.Equal(t, 29, s.DaysUntilCollection)
	assert.Equal(t, 364, s.DaysUntilTax)
	assert.Equal(t, Normal, s.Regime)
	assert.InDelta(t, 1000.14, s.CentralBankDebt, 0.001)
}
