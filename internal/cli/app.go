package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/config"
	"github.com/rustyeddy/banksim/journal"
	"github.com/rustyeddy/banksim/logger"
	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/rng"
	"github.com/rustyeddy/banksim/storage"
)

// app carries what every command needs once the root flags are parsed.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	// resume is the next history sequence of the persisted bank. It keeps
	// successive commands on one bank from replaying the same draws.
	resume uint64
}

func (a *app) load(ro *rootOptions) error {
	cfg := config.Default()
	if ro.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(ro.ConfigPath); err != nil {
			return err
		}
	}
	if ro.LogLevel != "" {
		cfg.Log.Level = ro.LogLevel
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// src returns the stream-th random source. Streams of a seeded run are
// distinct but reproducible for a given saved bank.
func (a *app) src(stream uint64) rng.Source {
	if a.cfg.Simulation.Seed == 0 {
		return rng.New(0)
	}
	return rng.New((a.cfg.Simulation.Seed ^ a.resume*0x9e3779b97f4a7c15) + stream)
}

// session is an opened bank with its store and journal.
type session struct {
	engine *bank.Engine
	store  storage.Store
	pump   *journal.Pump
}

func (a *app) open(ctx context.Context) (*session, error) {
	store, err := storage.Open(a.cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	snap, err := store.Load(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load bank: %w", err)
	}
	a.resume = snap.Bank.NextSeq

	catalog, err := a.cfg.Catalog()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	mkt := market.New(a.cfg.MarketParams(), catalog)

	e, err := bank.Open(ctx,
		bank.WithParams(a.cfg.BankParams()),
		bank.WithRand(a.src(0)),
		bank.WithStore(store),
		bank.WithLogger(a.log),
		bank.WithMarket(mkt),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	j, err := a.openJournal()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}
	pump := journal.NewPump(j, a.log)
	e.Subscribe(func(h bank.HistoryEntry) {
		pump.Publish(journal.FromHistory(h))
	})

	return &session{engine: e, store: store, pump: pump}, nil
}

func (s *session) Close() error {
	return errors.Join(s.pump.Close(), s.store.Close())
}

func (a *app) openJournal() (journal.Journal, error) {
	path := a.cfg.Journal.Path
	switch a.cfg.Journal.Type {
	case "csv", "sqlite":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	switch a.cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(path)
	case "sqlite":
		return journal.NewSQLite(path)
	default:
		return journal.Noop{}, nil
	}
}

// withBank opens a session, runs fn and closes the session.
func (a *app) withBank(ctx context.Context, fn func(e *bank.Engine) error) (err error) {
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s.engine)
}
