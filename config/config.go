// Package config loads the account context, journal, and replay settings.
// Files are YAML with a JSON fallback.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Trade   TradeConfig   `json:"trade" yaml:"trade"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Replay  ReplayConfig  `json:"replay" yaml:"replay"`
}

// AccountConfig is the account context supplied by the external settings
// collaborator: balance, leverage, and the margin-health thresholds.
type AccountConfig struct {
	ID              string  `json:"id" yaml:"id"`
	Currency        string  `json:"currency" yaml:"currency"`
	Balance         float64 `json:"balance" yaml:"balance"`
	Leverage        float64 `json:"leverage" yaml:"leverage"`
	MarginCallLevel float64 `json:"margin_call_level" yaml:"margin_call_level"`
	StopOutLevel    float64 `json:"stop_out_level" yaml:"stop_out_level"`
}

// TradeConfig holds the default trade parameters used by the run command.
type TradeConfig struct {
	Symbol      string  `json:"symbol" yaml:"symbol"`
	RiskPercent float64 `json:"risk_percent" yaml:"risk_percent"`
	StopPips    float64 `json:"stop_pips" yaml:"stop_pips"`
	TargetPips  float64 `json:"target_pips" yaml:"target_pips"`
}

type LedgerConfig struct {
	TickInterval string `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"`
}

func (l LedgerConfig) ParseTickInterval() (time.Duration, error) {
	if l.TickInterval == "" {
		return time.Second, nil
	}
	return time.ParseDuration(l.TickInterval)
}

type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	ClosesFile string `json:"closes_file,omitempty" yaml:"closes_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type ReplayConfig struct {
	InitialBid float64     `json:"initial_bid" yaml:"initial_bid"`
	InitialAsk float64     `json:"initial_ask" yaml:"initial_ask"`
	Steps      []PriceStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type PriceStep struct {
	Bid   float64 `json:"bid" yaml:"bid"`
	Ask   float64 `json:"ask" yaml:"ask"`
	Delay string  `json:"delay" yaml:"delay"` // e.g. "1s", "500ms"
}

func (ps PriceStep) ParseDelay() (time.Duration, error) {
	if ps.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(ps.Delay)
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration, including the threshold ordering the
// margin tiers depend on (stop-out < margin-call < 200).
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Account.Leverage <= 0 {
		return fmt.Errorf("account.leverage must be positive")
	}
	if c.Account.StopOutLevel <= 0 {
		return fmt.Errorf("account.stop_out_level must be positive")
	}
	if c.Account.StopOutLevel >= c.Account.MarginCallLevel {
		return fmt.Errorf("account.stop_out_level must be below margin_call_level")
	}
	if c.Account.MarginCallLevel >= 200 {
		return fmt.Errorf("account.margin_call_level must be below 200")
	}
	if c.Trade.Symbol == "" {
		return fmt.Errorf("trade.symbol is required")
	}
	if c.Trade.RiskPercent <= 0 || c.Trade.RiskPercent > 10 {
		return fmt.Errorf("trade.risk_percent must be in (0, 10]")
	}
	if c.Trade.StopPips <= 0 {
		return fmt.Errorf("trade.stop_pips must be positive")
	}
	if c.Trade.TargetPips <= 0 {
		return fmt.Errorf("trade.target_pips must be positive")
	}
	if _, err := c.Ledger.ParseTickInterval(); err != nil {
		return fmt.Errorf("ledger.tick_interval: %w", err)
	}
	if c.Replay.InitialBid <= 0 || c.Replay.InitialAsk <= 0 {
		return fmt.Errorf("replay initial prices must be positive")
	}
	if c.Replay.InitialAsk <= c.Replay.InitialBid {
		return fmt.Errorf("replay initial_ask must be greater than initial_bid")
	}
	for i, s := range c.Replay.Steps {
		if _, err := s.ParseDelay(); err != nil {
			return fmt.Errorf("replay.steps[%d].delay: %w", i, err)
		}
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.ClosesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal closes_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:              "ACC-001",
			Currency:        "USD",
			Balance:         10000,
			Leverage:        100,
			MarginCallLevel: 100,
			StopOutLevel:    50,
		},
		Trade: TradeConfig{
			Symbol:      "EURUSD",
			RiskPercent: 1,
			StopPips:    20,
			TargetPips:  40,
		},
		Ledger: LedgerConfig{TickInterval: "1s"},
		Journal: JournalConfig{
			Type:       "csv",
			ClosesFile: "./closes.csv",
			EquityFile: "./equity.csv",
		},
		Replay: ReplayConfig{
			InitialBid: 1.0849,
			InitialAsk: 1.0851,
		},
	}
}
