package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default simulation parameters.
const (
	DefaultInitialCapital = 1_000_000.0
	DefaultCommission     = 0.0005
	DefaultSlippage       = 0.001
	DefaultLotSize        = 100

	DefaultMaxPositionPct = 0.10
	DefaultMaxExposurePct = 0.50

	DateFormat = "2006-01-02"
)

// Config describes one backtest run.
type Config struct {
	InitialCapital float64 `json:"initial_capital"`
	Commission     float64 `json:"commission"`
	Slippage       float64 `json:"slippage"`
	LotSize        int64   `json:"lot_size"`

	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD

	Symbols []SymbolConfig `json:"symbols"`

	BuyRule  string `json:"buy_rule"`
	SellRule string `json:"sell_rule"`

	// MonthlyInvestment > 0 schedules a fixed buy on the first bar of
	// each month in addition to rule-driven signals.
	MonthlyInvestment float64 `json:"monthly_investment,omitempty"`

	Sizing SizingConfig `json:"sizing"`
	Risk   RiskConfig   `json:"risk"`
}

// SymbolConfig binds one instrument to its data source and capital share.
type SymbolConfig struct {
	Symbol        string  `json:"symbol"`
	DataFile      string  `json:"data_file"`
	AllocationPct float64 `json:"allocation_pct"` // share of initial capital, 0 = equal split
}

// SizingConfig selects and parameterizes the position-sizing strategy.
type SizingConfig struct {
	Type string `json:"position_strategy_type"` // fixed_percent | kelly | martingale

	// fixed_percent
	Percent float64 `json:"percent,omitempty"`

	// kelly
	WinRate      float64 `json:"win_rate,omitempty"`
	WinLossRatio float64 `json:"win_loss_ratio,omitempty"`
	MaxPercent   float64 `json:"max_percent,omitempty"`

	// martingale
	BasePercent float64 `json:"base_percent,omitempty"`
	Multiplier  float64 `json:"multiplier,omitempty"`
	MaxDoubles  int     `json:"max_doubles,omitempty"`
}

// RiskConfig holds portfolio-level exposure ceilings.
type RiskConfig struct {
	MaxPositionPct float64 `json:"max_position_pct"` // single-symbol ceiling
	MaxExposurePct float64 `json:"max_exposure_pct"` // aggregate ceiling
}

// Sizing strategy type names accepted in configuration.
const (
	SizingFixedPercent = "fixed_percent"
	SizingKelly        = "kelly"
	SizingMartingale   = "martingale"
)

// Load reads and validates a JSON config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config pre-filled with the standard parameters.
func Default() *Config {
	return &Config{
		InitialCapital: DefaultInitialCapital,
		Commission:     DefaultCommission,
		Slippage:       DefaultSlippage,
		LotSize:        DefaultLotSize,
		Sizing: SizingConfig{
			Type:    SizingFixedPercent,
			Percent: 0.1,
		},
		Risk: RiskConfig{
			MaxPositionPct: DefaultMaxPositionPct,
			MaxExposurePct: DefaultMaxExposurePct,
		},
	}
}

// ApplyEnvOverrides applies environment variables on top of the file
// config. Called by commands after godotenv loads the environment.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BACKTEST_INITIAL_CAPITAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.InitialCapital = f
		}
	}
	if v := os.Getenv("BACKTEST_COMMISSION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Commission = f
		}
	}
	if v := os.Getenv("BACKTEST_SLIPPAGE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Slippage = f
		}
	}
	if v := os.Getenv("BACKTEST_LOT_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.LotSize = n
		}
	}
}

// DateRange parses the configured start and end dates.
func (c *Config) DateRange() (start, end time.Time, err error) {
	start, err = time.Parse(DateFormat, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: %w", c.StartDate, err)
	}
	end, err = time.Parse(DateFormat, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: %w", c.EndDate, err)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date %s is after end_date %s", c.StartDate, c.EndDate)
	}
	return start, end, nil
}

// Allocation returns the capital allocated to the i-th symbol.
func (c *Config) Allocation(i int) float64 {
	if i < 0 || i >= len(c.Symbols) {
		return 0
	}
	if pct := c.Symbols[i].AllocationPct; pct > 0 {
		return c.InitialCapital * pct
	}
	return c.InitialCapital / float64(len(c.Symbols))
}
