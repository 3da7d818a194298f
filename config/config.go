// Package config loads the simulation settings from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/banksim/bank"
	"github.com/rustyeddy/banksim/logger"
	"github.com/rustyeddy/banksim/market"
	"github.com/rustyeddy/banksim/storage"
)

// Config represents the complete simulation configuration
type Config struct {
	Bank       BankConfig       `json:"bank" yaml:"bank"`
	Economy    EconomyConfig    `json:"economy" yaml:"economy"`
	Tax        TaxConfig        `json:"tax" yaml:"tax"`
	Market     MarketConfig     `json:"market" yaml:"market"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Log        logger.Config    `json:"log" yaml:"log"`
}

type BankConfig struct {
	StartingBalance        float64 `json:"starting_balance" yaml:"starting_balance"`
	DepositRate            float64 `json:"deposit_rate" yaml:"deposit_rate"`
	CollectionIntervalDays int     `json:"collection_interval_days" yaml:"collection_interval_days"`
	HistoryWindowDays      int     `json:"history_window_days" yaml:"history_window_days"`
	MaxTransactions        int     `json:"max_transactions" yaml:"max_transactions"`
	CentralBankRate        float64 `json:"central_bank_rate" yaml:"central_bank_rate"`
	SettleAccrued          bool    `json:"settle_accrued_interest" yaml:"settle_accrued_interest"`
}

type EconomyConfig struct {
	IntervalDays      int     `json:"interval_days" yaml:"interval_days"`
	StayProbability   float64 `json:"stay_probability" yaml:"stay_probability"`
	NormalProbability float64 `json:"normal_probability" yaml:"normal_probability"`
	InitialRegime     string  `json:"initial_regime,omitempty" yaml:"initial_regime,omitempty"`
}

type TaxConfig struct {
	Rate         float64 `json:"rate" yaml:"rate"`
	IntervalDays int     `json:"interval_days" yaml:"interval_days"`
	RetryUnpaid  bool    `json:"retry_unpaid" yaml:"retry_unpaid"`
}

type MarketConfig struct {
	UpdateIntervalDays int    `json:"update_interval_days" yaml:"update_interval_days"`
	MaxListings        int    `json:"max_listings" yaml:"max_listings"`
	HistoryLen         int    `json:"history_len" yaml:"history_len"`
	DelistOnBuy        bool   `json:"delist_on_buy" yaml:"delist_on_buy"`
	CatalogPath        string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
}

type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "file", "sqlite" or "memory"
	Path   string `json:"path" yaml:"path"`
}

type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

type SimulationConfig struct {
	Seed             uint64  `json:"seed" yaml:"seed"` // 0 seeds from the clock
	EventProbability float64 `json:"event_probability" yaml:"event_probability"`
	Tick             string  `json:"tick" yaml:"tick"` // cron spec, e.g. "@every 2s"
	Days             int     `json:"days" yaml:"days"` // default length of a batch run
}

// LoadFromFile loads configuration from a file. Fields missing from the
// file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Bank.StartingBalance < 0 {
		return fmt.Errorf("bank.starting_balance must not be negative")
	}
	if c.Bank.DepositRate < 0 {
		return fmt.Errorf("bank.deposit_rate must not be negative")
	}
	if c.Bank.CollectionIntervalDays <= 0 {
		return fmt.Errorf("bank.collection_interval_days must be positive")
	}
	if c.Bank.HistoryWindowDays <= 0 {
		return fmt.Errorf("bank.history_window_days must be positive")
	}
	if c.Bank.CentralBankRate <= 0 {
		return fmt.Errorf("bank.central_bank_rate must be positive")
	}
	if c.Economy.IntervalDays <= 0 {
		return fmt.Errorf("economy.interval_days must be positive")
	}
	if !isProbability(c.Economy.StayProbability) || !isProbability(c.Economy.NormalProbability) {
		return fmt.Errorf("economy probabilities must be between 0 and 1")
	}
	if c.Economy.InitialRegime != "" {
		if _, err := bank.ParseRegime(c.Economy.InitialRegime); err != nil {
			return fmt.Errorf("economy.initial_regime: %w", err)
		}
	}
	if c.Tax.Rate < 0 || c.Tax.Rate > 1 {
		return fmt.Errorf("tax.rate must be between 0 and 1")
	}
	if c.Tax.IntervalDays <= 0 {
		return fmt.Errorf("tax.interval_days must be positive")
	}
	if c.Market.UpdateIntervalDays <= 0 {
		return fmt.Errorf("market.update_interval_days must be positive")
	}
	if c.Market.MaxListings <= 0 {
		return fmt.Errorf("market.max_listings must be positive")
	}
	switch c.Storage.Driver {
	case storage.DriverFile, storage.DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path required for %s driver", c.Storage.Driver)
		}
	case storage.DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be 'file', 'sqlite' or 'memory'")
	}
	switch c.Journal.Type {
	case "csv", "sqlite":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s type", c.Journal.Type)
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	if !isProbability(c.Simulation.EventProbability) {
		return fmt.Errorf("simulation.event_probability must be between 0 and 1")
	}
	if _, err := cron.ParseStandard(c.Simulation.Tick); err != nil {
		return fmt.Errorf("simulation.tick: %w", err)
	}
	if c.Simulation.Days < 0 {
		return fmt.Errorf("simulation.days must not be negative")
	}
	return nil
}

func isProbability(p float64) bool { return p >= 0 && p <= 1 }

// Default returns a configuration with sensible defaults
func Default() *Config {
	p := bank.DefaultParams()
	m := market.DefaultConfig()
	return &Config{
		Bank: BankConfig{
			StartingBalance:        p.StartingBalance,
			DepositRate:            p.DepositRate,
			CollectionIntervalDays: p.CollectionInterval,
			HistoryWindowDays:      p.HistoryWindow,
			MaxTransactions:        p.MaxTransactions,
			CentralBankRate:        p.CentralBankRate,
		},
		Economy: EconomyConfig{
			IntervalDays:      p.Economy.Interval,
			StayProbability:   p.Economy.StayProbability,
			NormalProbability: p.Economy.NormalProbability,
		},
		Tax: TaxConfig{
			Rate:         p.Tax.Rate,
			IntervalDays: p.Tax.Interval,
		},
		Market: MarketConfig{
			UpdateIntervalDays: m.UpdateInterval,
			MaxListings:        m.MaxListings,
			HistoryLen:         m.HistoryLen,
			DelistOnBuy:        m.DelistOnBuy,
		},
		Storage: StorageConfig{
			Driver: storage.DriverFile,
			Path:   "./data",
		},
		Journal: JournalConfig{
			Type: "sqlite",
			Path: "./data/journal.db",
		},
		Simulation: SimulationConfig{
			EventProbability: 0.5,
			Tick:             "@every 2s",
			Days:             30,
		},
		Log: logger.Config{Level: "info", Format: logger.FormatConsole},
	}
}

// BankParams converts the bank, economy and tax sections.
func (c *Config) BankParams() bank.Params {
	return bank.Params{
		StartingBalance:    c.Bank.StartingBalance,
		DepositRate:        c.Bank.DepositRate,
		CollectionInterval: c.Bank.CollectionIntervalDays,
		HistoryWindow:      c.Bank.HistoryWindowDays,
		MaxTransactions:    c.Bank.MaxTransactions,
		CentralBankRate:    c.Bank.CentralBankRate,
		SettleAccrued:      c.Bank.SettleAccrued,
		InitialRegime:      bank.Regime(c.Economy.InitialRegime),
		Economy: bank.EconomyParams{
			Interval:          c.Economy.IntervalDays,
			StayProbability:   c.Economy.StayProbability,
			NormalProbability: c.Economy.NormalProbability,
		},
		Tax: bank.TaxParams{
			Rate:        c.Tax.Rate,
			Interval:    c.Tax.IntervalDays,
			RetryUnpaid: c.Tax.RetryUnpaid,
		},
	}
}

// MarketParams converts the market section.
func (c *Config) MarketParams() market.Config {
	return market.Config{
		UpdateInterval: c.Market.UpdateIntervalDays,
		MaxListings:    c.Market.MaxListings,
		HistoryLen:     c.Market.HistoryLen,
		DelistOnBuy:    c.Market.DelistOnBuy,
	}
}

// Catalog loads the configured stock catalog, or the built-in one.
func (c *Config) Catalog() ([]market.Stock, error) {
	if c.Market.CatalogPath == "" {
		return market.DefaultCatalog(), nil
	}
	return market.LoadCatalog(c.Market.CatalogPath)
}

// StoreConfig converts the storage section.
func (c *Config) StoreConfig() storage.Config {
	return storage.Config{Driver: c.Storage.Driver, Path: c.Storage.Path}
}
