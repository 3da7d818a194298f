// Package bank is the simulation core of the banking game: customers with
// their deposits and loans, the bank's central bank borrowing, the economic
// cycle, taxation and the daily transition that ties them together.
//
// State holds the simulation and Step advances it by one day. Engine wraps a
// State for callers: it serializes operations, checks the ledger invariants
// after every change, persists a snapshot and publishes new history entries.
package bank

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/banksim/id"
	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/money"
	"github.com/rustyeddy/banksim/rng"
	"github.com/rustyeddy/banksim/storage"
)

type Engine struct {
	mu        sync.Mutex
	state     *State
	src       rng.Source
	store     storage.Store
	log       zerolog.Logger
	subs      []func(HistoryEntry)
	published uint64
}

type options struct {
	params Params
	src    rng.Source
	store  storage.Store
	log    zerolog.Logger
	market *market.Market
	ids    *id.Generator
}

// Option configures an Engine.
type Option func(*options)

func WithParams(p Params) Option         { return func(o *options) { o.params = p } }
func WithRand(src rng.Source) Option     { return func(o *options) { o.src = src } }
func WithStore(st storage.Store) Option  { return func(o *options) { o.store = st } }
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }
func WithMarket(m *market.Market) Option { return func(o *options) { o.market = m } }
func WithIDs(g *id.Generator) Option     { return func(o *options) { o.ids = g } }

func buildOptions(opts []Option) options {
	o := options{params: DefaultParams(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = rng.New(0)
	}
	if o.ids == nil {
		o.ids = id.NewGenerator(nil, nil)
	}
	return o
}

// New returns an engine over a fresh bank.
func New(opts ...Option) *Engine {
	o := buildOptions(opts)
	return newEngine(o, NewState(o.params, o.market, o.ids))
}

// Open returns an engine resumed from the configured store. An empty store
// starts a fresh bank.
func Open(ctx context.Context, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)
	if o.store == nil {
		return newEngine(o, NewState(o.params, o.market, o.ids)), nil
	}

	snap, err := o.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	if snap.Empty() {
		o.log.Info().Msg("no saved bank found, starting fresh")
		return newEngine(o, NewState(o.params, o.market, o.ids)), nil
	}
	s, err := Restore(snap, o.params, o.market, o.ids)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	o.log.Info().Int("day", s.Day()).Float64("balance", s.Balance()).Int("customers", len(s.customers)).Msg("bank restored")
	return newEngine(o, s), nil
}

func newEngine(o options, s *State) *Engine {
	return &Engine{
		state:     s,
		src:       o.src,
		store:     o.store,
		log:       o.log.With().Str("component", "bank").Logger(),
		published: s.nextSeq,
	}
}

// Subscribe registers fn to receive every history entry appended from now
// on. fn is called after the operation completes, without the engine lock.
func (e *Engine) Subscribe(fn func(HistoryEntry)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// mutate runs fn against the state under the lock. On success it verifies
// the invariants, saves a snapshot and publishes the new history entries
// once the lock is released.
func (e *Engine) mutate(ctx context.Context, op string, fn func(s *State) error) error {
	fresh, subs, err := e.apply(ctx, op, fn)
	for _, entry := range fresh {
		for _, sub := range subs {
			sub(entry)
		}
	}
	return err
}

func (e *Engine) apply(ctx context.Context, op string, fn func(s *State) error) ([]HistoryEntry, []func(HistoryEntry), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.state); err != nil {
		e.log.Debug().Str("op", op).Err(err).Msg("operation refused")
		return nil, nil, err
	}

	err := e.commitLocked(ctx, op)
	fresh := e.state.historySince(e.published)
	if n := len(fresh); n > 0 {
		e.published = fresh[n-1].Seq
	}
	return fresh, append(([]func(HistoryEntry))(nil), e.subs...), err
}

func (e *Engine) commitLocked(ctx context.Context, op string) error {
	if err := e.state.Verify(); err != nil {
		e.log.Error().Str("op", op).Err(err).Msg("invariant check failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, e.state.Snapshot()); err != nil {
		e.log.Error().Str("op", op).Err(err).Msg("save failed")
		return fmt.Errorf("%s: save: %w", op, err)
	}
	return nil
}

// Save persists the current state.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commitLocked(ctx, "save")
}

// AdvanceDay runs one day of the simulation.
func (e *Engine) AdvanceDay(ctx context.Context) (DayReport, error) {
	var r DayReport
	err := e.mutate(ctx, "advance day", func(s *State) error {
		r = Step(s, e.src)
		return nil
	})

	e.log.Debug().Int("day", r.Day).Bool("market_updated", r.MarketUpdated).Msg("day advanced")
	if r.MonthlyIncome != nil {
		e.log.Info().Int("day", r.Day).Float64("collected", r.Collected).Float64("paid", r.Paid).
			Float64("net", *r.MonthlyIncome).Msg("month closed")
	}

	if r.EconomyMessage != "" {
		e.log.Info().Int("day", r.Day).Msg(r.EconomyMessage)
	}
	if r.CentralOverdue > 0 {
		e.log.Warn().Int("day", r.Day).Int("overdue", r.CentralOverdue).Msg("central bank loans overdue")
	}
	if r.Tax != nil && !r.Tax.Paid {
		e.log.Warn().Int("day", r.Day).Float64("amount", r.Tax.Amount).Msg("tax unpaid")
	}
	return r, err
}

// Deposit credits amount to a customer and returns the customer id. A nil
// customerID lets the bank choose between an existing and a new customer.
func (e *Engine) Deposit(ctx context.Context, amount float64, customerID *int) (int, error) {
	var cid int
	err := e.mutate(ctx, "deposit", func(s *State) error {
		var err error
		cid, err = s.deposit(e.src, amount, customerID)
		return err
	})
	return cid, err
}

// Withdraw debits up to amount from a customer. A nil customerID picks a
// random customer with funds.
func (e *Engine) Withdraw(ctx context.Context, amount float64, customerID *int) (Withdrawal, error) {
	var w Withdrawal
	err := e.mutate(ctx, "withdraw", func(s *State) error {
		var err error
		w, err = s.withdraw(e.src, amount, customerID)
		return err
	})
	return w, err
}

// GiveLoan issues a loan. approver is consulted only when the request
// requires approval. The call holds the engine lock while approver runs.
func (e *Engine) GiveLoan(ctx context.Context, req LoanRequest, approver Approver) (*Loan, error) {
	var l *Loan
	err := e.mutate(ctx, "give loan", func(s *State) error {
		var err error
		l, err = s.giveLoan(e.src, req, approver)
		return err
	})
	return l, err
}

func (e *Engine) BorrowCentralBank(ctx context.Context, amount, years, rate float64) (CentralBankLoan, error) {
	var l CentralBankLoan
	err := e.mutate(ctx, "borrow", func(s *State) error {
		var err error
		l, err = s.borrowCentralBank(amount, years, rate)
		return err
	})
	return l, err
}

// RepayCentralBank pays down one central bank loan. A nil index means the
// oldest loan and a nil amount pays it off in full.
func (e *Engine) RepayCentralBank(ctx context.Context, index *int, amount *float64) (Repayment, error) {
	var r Repayment
	err := e.mutate(ctx, "repay", func(s *State) error {
		var err error
		r, err = s.repayCentralBank(index, amount)
		return err
	})
	return r, err
}

// RepayAllCentralBank pays off every central bank loan or none.
func (e *Engine) RepayAllCentralBank(ctx context.Context) ([]Repayment, error) {
	var rs []Repayment
	err := e.mutate(ctx, "repay all", func(s *State) error {
		var err error
		rs, err = s.repayAllCentralBank()
		return err
	})
	return rs, err
}

// BuyStock buys shares of a listed stock with the bank's cash.
func (e *Engine) BuyStock(ctx context.Context, ticker string, shares int) (market.Trade, error) {
	var t market.Trade
	err := e.mutate(ctx, "buy stock", func(s *State) error {
		var err error
		t, err = s.market.Buy(ticker, shares, s.balance)
		if err != nil {
			return err
		}
		s.balance = roundSum(s.balance, -t.Amount)
		s.transact(TxStockBuy, -t.Amount)
		s.record("Bought %d shares of %s at %s each", t.Shares, t.Ticker, money.Format(t.Price))
		return nil
	})
	return t, err
}

// SellStock sells shares the bank holds.
func (e *Engine) SellStock(ctx context.Context, ticker string, shares int) (market.Trade, error) {
	var t market.Trade
	err := e.mutate(ctx, "sell stock", func(s *State) error {
		var err error
		t, err = s.market.Sell(ticker, shares)
		if err != nil {
			return err
		}
		s.balance = roundSum(s.balance, t.Amount)
		s.transact(TxStockSell, t.Amount)
		s.record("Sold %d shares of %s at %s each (profit: %s)",
			t.Shares, t.Ticker, money.Format(t.Price), money.Format(t.ProfitLoss))
		return nil
	})
	return t, err
}

// read runs fn under the lock.
func (e *Engine) read(fn func(s *State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}

func (e *Engine) Balance() (v float64)        { e.read(func(s *State) { v = s.Balance() }); return }
func (e *Engine) Day() (v int)                { e.read(func(s *State) { v = s.Day() }); return }
func (e *Engine) Customers() (v []Customer)   { e.read(func(s *State) { v = s.Customers() }); return }
func (e *Engine) Loans() (v []Loan)           { e.read(func(s *State) { v = s.Loans() }); return }
func (e *Engine) Deposits() (v []DepositLot)  { e.read(func(s *State) { v = s.Deposits() }); return }
func (e *Engine) History() (v []HistoryEntry) { e.read(func(s *State) { v = s.History() }); return }
func (e *Engine) Transactions() (v []Transaction) {
	e.read(func(s *State) { v = s.Transactions() })
	return
}
func (e *Engine) Economy() (v Economy)        { e.read(func(s *State) { v = s.Economy() }); return }
func (e *Engine) TaxHistory() (v []TaxRecord) { e.read(func(s *State) { v = s.TaxHistory() }); return }
func (e *Engine) MonthlyIncome() (v []float64) {
	e.read(func(s *State) { v = s.MonthlyIncome() })
	return
}
func (e *Engine) YearlyIncome() (v float64) { e.read(func(s *State) { v = s.YearlyIncome() }); return }
func (e *Engine) CentralBankLoans() (v []CentralBankLoan) {
	e.read(func(s *State) { v = s.CentralBankLoans() })
	return
}

func (e *Engine) Customer(id int) (c Customer, ok bool) {
	e.read(func(s *State) { c, ok = s.Customer(id) })
	return
}

// Snapshot exports the current state.
func (e *Engine) Snapshot() (snap storage.Snapshot) {
	e.read(func(s *State) { snap = s.Snapshot() })
	return
}

// MarketView is a read-only copy of the stock market.
type MarketView struct {
	Available       []market.Listing
	Holdings        []Position
	PortfolioValue  float64
	TotalReturn     float64
	PercentReturn   float64
	DaysUntilUpdate int
}

// Position is a holding marked to the market.
type Position struct {
	market.Holding
	Price float64
	Value float64
}

func (e *Engine) Market() (v MarketView) {
	e.read(func(s *State) {
		m := s.market
		v.Available = m.Available()
		for _, h := range m.Holdings() {
			p := m.PriceOf(h.Ticker)
			v.Holdings = append(v.Holdings, Position{Holding: h, Price: p, Value: money.Round(p * float64(h.Shares))})
		}
		v.PortfolioValue = m.PortfolioValue()
		v.TotalReturn, v.PercentReturn = m.Performance()
		v.DaysUntilUpdate = m.DaysUntilUpdate()
	})
	return
}

// PriceHistory returns the rolling price history of ticker.
func (e *Engine) PriceHistory(ticker string) (v []float64) {
	e.read(func(s *State) { v = s.market.PriceHistory(ticker) })
	return
}
